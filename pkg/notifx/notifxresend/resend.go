package notifxresend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Abraxas-365/mailrelay/pkg/errx"
	"github.com/Abraxas-365/mailrelay/pkg/notifx"
)

const (
	ProviderName   = "resend"
	DefaultBaseURL = "https://api.resend.com"
	DefaultTimeout = 30 * time.Second
)

// Provider implements notifx.EmailSender against a Resend-compatible JSON API.
// It performs a single request per message and never retries.
type Provider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewProvider creates a new provider. A nil httpClient gets DefaultTimeout.
func NewProvider(apiKey, baseURL string, httpClient *http.Client) *Provider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Provider{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// sendRequest is the wire payload. Optional recipient keys are omitted
// entirely when empty.
type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text"`
	CC      []string `json:"cc,omitempty"`
	BCC     []string `json:"bcc,omitempty"`
	ReplyTo string   `json:"reply_to,omitempty"`
}

type sendResponse struct {
	ID string `json:"id"`
}

type errorResponse struct {
	StatusCode int    `json:"statusCode"`
	Name       string `json:"name"`
	Message    string `json:"message"`
}

// SendEmail posts msg to /emails.
func (p *Provider) SendEmail(ctx context.Context, msg notifx.EmailMessage) (*notifx.Receipt, error) {
	payload, err := json.Marshal(sendRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTMLBody,
		Text:    msg.TextBody,
		CC:      msg.CC,
		BCC:     msg.BCC,
		ReplyTo: msg.ReplyTo,
	})
	if err != nil {
		return nil, errx.Wrap(err, "failed to marshal email payload", errx.TypeInternal)
	}

	url := p.baseURL + "/emails"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, notifx.SendFailedError(ProviderName, err).WithDetail("url", url)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("User-Agent", "mailrelay/1.0")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, notifx.SendFailedError(ProviderName, err).WithDetail("url", url)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, notifx.SendFailedError(ProviderName, err).WithDetail("stage", "read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr errorResponse
		_ = json.Unmarshal(body, &apiErr)
		return nil, notifx.RejectedError(ProviderName, resp.StatusCode, apiErr.Message, body)
	}

	var out sendResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, notifx.SendFailedError(ProviderName, err).WithDetail("stage", "decode response")
	}

	return &notifx.Receipt{
		MessageID: out.ID,
		Provider:  ProviderName,
		Raw:       json.RawMessage(body),
	}, nil
}
