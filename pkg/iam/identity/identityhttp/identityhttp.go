// Package identityhttp resolves bearer tokens by asking the hosted backend's
// auth endpoint who the token belongs to.
package identityhttp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Abraxas-365/mailrelay/pkg/errx"
	"github.com/Abraxas-365/mailrelay/pkg/iam"
	"github.com/Abraxas-365/mailrelay/pkg/kernel"
)

const (
	UserPath       = "/auth/v1/user"
	DefaultTimeout = 10 * time.Second
)

// Resolver calls GET {baseURL}/auth/v1/user with the caller's token.
type Resolver struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
}

// NewResolver creates a remote resolver.
func NewResolver(baseURL, anonKey string, httpClient *http.Client) *Resolver {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Resolver{
		baseURL:    strings.TrimRight(baseURL, "/"),
		anonKey:    anonKey,
		httpClient: httpClient,
	}
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Resolve returns the caller owning token. Any non-200 answer means the token
// is not valid for this backend.
func (r *Resolver) Resolve(ctx context.Context, token string) (*kernel.Caller, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+UserPath, nil)
	if err != nil {
		return nil, errx.Wrap(err, "failed to build identity request", errx.TypeInternal)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if r.anonKey != "" {
		req.Header.Set("apikey", r.anonKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, iam.ErrInvalidToken().WithDetail("error", err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, iam.ErrInvalidToken().WithDetail("error", err.Error())
	}

	if resp.StatusCode != http.StatusOK {
		return nil, iam.ErrInvalidToken().WithDetail("status_code", resp.StatusCode)
	}

	var user userResponse
	if err := json.Unmarshal(body, &user); err != nil || user.ID == "" {
		return nil, iam.ErrInvalidToken().WithDetail("error", "malformed identity response")
	}

	return &kernel.Caller{
		ID:    kernel.NewUserID(user.ID),
		Email: user.Email,
	}, nil
}
