package relay_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abraxas-365/mailrelay/pkg/activity"
	"github.com/Abraxas-365/mailrelay/pkg/config"
	"github.com/Abraxas-365/mailrelay/pkg/errx"
	"github.com/Abraxas-365/mailrelay/pkg/iam"
	"github.com/Abraxas-365/mailrelay/pkg/kernel"
	"github.com/Abraxas-365/mailrelay/pkg/logx"
	"github.com/Abraxas-365/mailrelay/pkg/notifx"
	"github.com/Abraxas-365/mailrelay/pkg/profile"
	"github.com/Abraxas-365/mailrelay/pkg/relay"
)

// ============================================================================
// Fakes
// ============================================================================

type fakeProvider struct {
	calls    int
	messages []notifx.EmailMessage
	receipt  *notifx.Receipt
	err      error
}

func (f *fakeProvider) SendEmail(_ context.Context, msg notifx.EmailMessage) (*notifx.Receipt, error) {
	f.calls++
	f.messages = append(f.messages, msg)
	if f.err != nil {
		return nil, f.err
	}
	if f.receipt != nil {
		return f.receipt, nil
	}
	return &notifx.Receipt{MessageID: "abc123", Provider: "fake", Raw: json.RawMessage(`{"id":"abc123"}`)}, nil
}

type fakeProfiles struct {
	profile *profile.Profile
	err     error
	calls   int
}

func (f *fakeProfiles) FindByID(_ context.Context, _ kernel.UserID) (*profile.Profile, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.profile == nil {
		return nil, profile.ErrNotFound()
	}
	return f.profile, nil
}

type fakeActivity struct {
	err     error
	entries []*activity.Entry
}

func (f *fakeActivity) Insert(_ context.Context, e *activity.Entry) error {
	f.entries = append(f.entries, e)
	return f.err
}

type fixture struct {
	provider *fakeProvider
	profiles *fakeProfiles
	activity *fakeActivity
	service  *relay.Service
}

func newFixture() *fixture {
	f := &fixture{
		provider: &fakeProvider{},
		profiles: &fakeProfiles{profile: &profile.Profile{ID: "user-1", FullName: "Jane Doe"}},
		activity: &fakeActivity{},
	}
	f.service = relay.NewService(f.provider, f.profiles, activity.NewRecorder(f.activity), relayConfig())
	return f
}

func relayConfig() config.RelayConfig {
	return config.RelayConfig{ProductName: "Bizflow", Signature: "Sent with Bizflow"}
}

var caller = &kernel.Caller{ID: "user-1", Email: "jane.doe@acme.io"}

func validRequest() relay.Request {
	return relay.Request{To: "jane@example.com", Subject: "Invoice", Body: "Hello"}
}

// ============================================================================
// Validation
// ============================================================================

func TestSend_MissingFields(t *testing.T) {
	tests := []struct {
		name string
		req  relay.Request
	}{
		{"no to", relay.Request{Subject: "s", Body: "b"}},
		{"no subject", relay.Request{To: "jane@example.com", Body: "b"}},
		{"no body", relay.Request{To: "jane@example.com", Subject: "s"}},
		{"blank body", relay.Request{To: "jane@example.com", Subject: "s", Body: "  \n"}},
		{"empty", relay.Request{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			_, err := f.service.Send(context.Background(), caller, tt.req)

			require.Error(t, err)
			assert.True(t, errx.Is(err, relay.CodeMissingFields))
			status, res := relay.Failed(err)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.False(t, res.Success)
			assert.Contains(t, res.Error, "to, subject, body")
			assert.Zero(t, f.provider.calls)
			assert.Empty(t, f.activity.entries)
		})
	}
}

func TestSend_InvalidRecipient(t *testing.T) {
	for _, to := range []string{"foo", "foo@bar", "@bar.com", " a@b.com", "a@b.com ", "a b@c.com", "a@@b.com"} {
		t.Run(to, func(t *testing.T) {
			f := newFixture()
			req := validRequest()
			req.To = to

			_, err := f.service.Send(context.Background(), caller, req)

			status, res := relay.Failed(err)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, "Invalid email format", res.Error)
			assert.Zero(t, f.provider.calls)
		})
	}
}

func TestSend_InvalidEntityType(t *testing.T) {
	f := newFixture()
	req := validRequest()
	req.EntityType = "spaceship"

	_, err := f.service.Send(context.Background(), caller, req)

	assert.True(t, errx.Is(err, relay.CodeInvalidEntity))
	assert.Zero(t, f.provider.calls)
}

func TestSend_RequiresCaller(t *testing.T) {
	f := newFixture()
	_, err := f.service.Send(context.Background(), nil, validRequest())

	assert.True(t, errx.Is(err, iam.CodeUnauthorized))
	assert.Zero(t, f.provider.calls)
	assert.Zero(t, f.profiles.calls)
}

func TestSend_NotConfigured(t *testing.T) {
	act := &fakeActivity{}
	svc := relay.NewService(nil, &fakeProfiles{}, activity.NewRecorder(act), relayConfig())
	assert.False(t, svc.Configured())

	_, err := svc.Send(context.Background(), caller, validRequest())
	status, res := relay.Failed(err)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Email service not configured", res.Error)
	assert.Empty(t, act.entries)

	// validation still runs first
	_, err = svc.Send(context.Background(), caller, relay.Request{})
	assert.True(t, errx.Is(err, relay.CodeMissingFields))
}

// ============================================================================
// Delivery
// ============================================================================

func TestSend_Success(t *testing.T) {
	f := newFixture()
	res, err := f.service.Send(context.Background(), caller, validRequest())
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "abc123", res.MessageID)
	assert.Equal(t, json.RawMessage(`{"id":"abc123"}`), res.Details)

	require.Equal(t, 1, f.provider.calls)
	msg := f.provider.messages[0]
	assert.Equal(t, []string{"jane@example.com"}, msg.To)
	assert.Equal(t, "Jane Doe <jane.doe@acme.io>", msg.From)
	assert.Equal(t, "Hello", msg.TextBody)
	assert.Contains(t, msg.HTMLBody, "<p>Hello</p>")
	assert.Nil(t, msg.CC)
	assert.Nil(t, msg.BCC)
}

func TestSend_ForwardsOptionalRecipients(t *testing.T) {
	f := newFixture()
	req := validRequest()
	req.CC = []string{"cc@example.com", ""}
	req.BCC = []string{}
	req.ReplyTo = "reply@example.com"

	_, err := f.service.Send(context.Background(), caller, req)
	require.NoError(t, err)

	msg := f.provider.messages[0]
	assert.Equal(t, []string{"cc@example.com"}, msg.CC)
	assert.Nil(t, msg.BCC)
	assert.Equal(t, "reply@example.com", msg.ReplyTo)
}

func TestSend_ProviderRejection(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		message string
		want    string
	}{
		{"invalid key", http.StatusUnauthorized, "", notifx.MsgInvalidAPIKey},
		{"rate limited", http.StatusTooManyRequests, "", notifx.MsgRateLimited},
		{"unavailable", http.StatusServiceUnavailable, "", notifx.MsgUnavailable},
		{"provider message", http.StatusUnprocessableEntity, "Invalid `to` field", "Invalid `to` field"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.provider.err = notifx.RejectedError("fake", tt.status, tt.message, []byte(`{"statusCode":1}`))

			_, err := f.service.Send(context.Background(), caller, validRequest())

			status, res := relay.Failed(err)
			assert.Equal(t, tt.status, status)
			assert.False(t, res.Success)
			assert.Equal(t, tt.want, res.Error)
			assert.Equal(t, json.RawMessage(`{"statusCode":1}`), res.Details)
			assert.Equal(t, 1, f.provider.calls)
			assert.Empty(t, f.activity.entries)
		})
	}
}

// ============================================================================
// Sender enrichment
// ============================================================================

func TestSend_SenderName(t *testing.T) {
	tests := []struct {
		name     string
		profiles *fakeProfiles
		caller   *kernel.Caller
		cfg      func(*config.RelayConfig)
		override string
		want     string
	}{
		{
			name:     "profile name",
			profiles: &fakeProfiles{profile: &profile.Profile{FullName: "Jane Doe"}},
			caller:   caller,
			want:     "Jane Doe <jane.doe@acme.io>",
		},
		{
			name:     "no profile falls back to local part",
			profiles: &fakeProfiles{},
			caller:   caller,
			want:     "jane.doe <jane.doe@acme.io>",
		},
		{
			name:     "blank profile name",
			profiles: &fakeProfiles{profile: &profile.Profile{FullName: "  "}},
			caller:   caller,
			want:     "jane.doe <jane.doe@acme.io>",
		},
		{
			name:     "lookup failure falls back",
			profiles: &fakeProfiles{err: errors.New("connection refused")},
			caller:   caller,
			want:     "jane.doe <jane.doe@acme.io>",
		},
		{
			name:     "product name when caller email has no local part",
			profiles: &fakeProfiles{},
			caller:   &kernel.Caller{ID: "user-2"},
			cfg:      func(c *config.RelayConfig) { c.FromAddress = "noreply@bizflow.app" },
			want:     "Bizflow <noreply@bizflow.app>",
		},
		{
			name:     "configured address",
			profiles: &fakeProfiles{profile: &profile.Profile{FullName: "Jane Doe"}},
			caller:   caller,
			cfg:      func(c *config.RelayConfig) { c.FromAddress = "noreply@bizflow.app" },
			want:     "Jane Doe <noreply@bizflow.app>",
		},
		{
			name:     "override used verbatim",
			profiles: &fakeProfiles{profile: &profile.Profile{FullName: "Jane Doe"}},
			caller:   caller,
			override: "Billing Team <billing@acme.io>",
			want:     "Billing Team <billing@acme.io>",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := relayConfig()
			if tt.cfg != nil {
				tt.cfg(&cfg)
			}
			provider := &fakeProvider{}
			svc := relay.NewService(provider, tt.profiles, activity.NewRecorder(&fakeActivity{}), cfg)

			req := validRequest()
			req.From = tt.override
			_, err := svc.Send(context.Background(), tt.caller, req)
			require.NoError(t, err)

			assert.Equal(t, tt.want, provider.messages[0].From)
		})
	}
}

func TestSend_NoSenderAddress(t *testing.T) {
	f := newFixture()
	_, err := f.service.Send(context.Background(), &kernel.Caller{ID: "user-2"}, validRequest())

	assert.True(t, errx.Is(err, relay.CodeNotConfigured))
	assert.Zero(t, f.provider.calls)
}

// ============================================================================
// Activity log
// ============================================================================

func TestSend_RecordsActivity(t *testing.T) {
	f := newFixture()
	_, err := f.service.Send(context.Background(), caller, validRequest())
	require.NoError(t, err)

	require.Len(t, f.activity.entries, 1)
	e := f.activity.entries[0]
	assert.Equal(t, activity.TypeEmailSent, e.Type)
	assert.Equal(t, "Email sent: Invoice", e.Title)
	assert.Equal(t, "Sent to jane@example.com (message id: abc123)", e.Description)
	assert.Equal(t, kernel.EntityEmail, e.EntityType)
	assert.Equal(t, "abc123", e.EntityID)
	assert.Equal(t, kernel.UserID("user-1"), e.UserID)
}

func TestSend_RecordsLinkedEntity(t *testing.T) {
	f := newFixture()
	req := validRequest()
	req.EntityType = "invoice"
	req.EntityID = "inv-42"

	_, err := f.service.Send(context.Background(), caller, req)
	require.NoError(t, err)

	e := f.activity.entries[0]
	assert.Equal(t, kernel.EntityInvoice, e.EntityType)
	assert.Equal(t, "inv-42", e.EntityID)
}

func TestSend_ActivityFailureIsSwallowed(t *testing.T) {
	f := newFixture()
	f.activity.err = errors.New("insert failed")

	res, err := f.service.Send(context.Background(), caller, validRequest())

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "abc123", res.MessageID)
	assert.Len(t, f.activity.entries, 1)
}

// ============================================================================
// Formatting
// ============================================================================

func TestFormatHTML(t *testing.T) {
	body := "Hello\n\nVisit https://example.com today"
	out := relay.FormatHTML(body, "Sent with Bizflow")

	head, footer, found := strings.Cut(out, "<hr>")
	require.True(t, found)

	units := strings.Count(head, "<p>") + strings.Count(head, "<br>")
	assert.Equal(t, 3, units)
	assert.Equal(t, 1, strings.Count(out, "<a "))
	assert.Contains(t, head, `<a href="https://example.com">https://example.com</a>`)
	assert.Contains(t, head, "<p>Hello</p>")
	assert.Contains(t, footer, "<p>Sent with Bizflow</p>")
}

func TestFormatHTML_EscapesMarkup(t *testing.T) {
	out := relay.FormatHTML("<b>bold</b> & more", "sig")
	assert.Contains(t, out, "<p>&lt;b&gt;bold&lt;/b&gt; &amp; more</p>")
}

func TestSend_KeepsOriginalText(t *testing.T) {
	f := newFixture()
	req := validRequest()
	req.Body = "Hello\n\nVisit https://example.com today"

	_, err := f.service.Send(context.Background(), caller, req)
	require.NoError(t, err)

	assert.Equal(t, req.Body, f.provider.messages[0].TextBody)
	assert.Contains(t, f.provider.messages[0].HTMLBody, `<a href="https://example.com">`)
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, relay.IsValidEmail("jane@example.com"))
	assert.True(t, relay.IsValidEmail("jane.doe+tag@mail.example.co"))
	assert.False(t, relay.IsValidEmail("jane@example"))
	assert.False(t, relay.IsValidEmail(""))
}

func TestFailed_OnlyPublicDetails(t *testing.T) {
	authErr := iam.ErrInvalidToken().
		WithDetail("reason", "token is malformed").
		WithDetail("error", `Get "http://10.0.0.5/auth/v1/user": connection refused`)

	status, res := relay.Failed(authErr)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Unauthorized", res.Error)
	assert.Nil(t, res.Details)

	transport := notifx.SendFailedError("resend", errors.New("dial tcp: timeout")).
		WithDetail("url", "https://mail.internal/emails")
	_, res = relay.Failed(transport)
	assert.Nil(t, res.Details)

	_, res = relay.Failed(relay.ErrMissingFields("subject"))
	assert.Equal(t, map[string]any{"missing": []string{"subject"}}, res.Details)
}

func TestFormatHTML_LinkBoundaries(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{
			name: "angle brackets",
			line: "<https://example.com>",
			want: `<p>&lt;<a href="https://example.com">https://example.com</a>&gt;</p>`,
		},
		{
			name: "sentence end",
			line: "Docs: https://example.com/docs.",
			want: `<p>Docs: <a href="https://example.com/docs">https://example.com/docs</a>.</p>`,
		},
		{
			name: "comma and parenthesis",
			line: "(see https://example.com, https://example.org)",
			want: `<p>(see <a href="https://example.com">https://example.com</a>, <a href="https://example.org">https://example.org</a>)</p>`,
		},
		{
			name: "balanced parenthesis kept",
			line: "https://en.wikipedia.org/wiki/Go_(programming_language)",
			want: `<p><a href="https://en.wikipedia.org/wiki/Go_(programming_language)">https://en.wikipedia.org/wiki/Go_(programming_language)</a></p>`,
		},
		{
			name: "query escaped once",
			line: "https://x.io/?a=1&b=2",
			want: `<p><a href="https://x.io/?a=1&amp;b=2">https://x.io/?a=1&amp;b=2</a></p>`,
		},
		{
			name: "scheme only stays text",
			line: "https://.",
			want: `<p>https://.</p>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := relay.FormatHTML(tt.line, "sig")
			assert.Equal(t, tt.want+"\n<hr>\n<p>sig</p>", out)
		})
	}
}

// ============================================================================
// Logging
// ============================================================================

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	cfg := logx.DefaultConfig()
	cfg.Format = logx.FormatJSON
	cfg.Level = logx.LevelInfo
	cfg.Output = buf
	logx.SetDefaultLogger(logx.NewLogger(cfg))
	t.Cleanup(func() { logx.SetDefaultLogger(logx.NewLogger(logx.LoadFromEnv())) })
	return buf
}

func logLines(t *testing.T, buf *bytes.Buffer) map[string]map[string]any {
	t.Helper()
	lines := make(map[string]map[string]any)
	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		var line map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		lines[line["message"].(string)] = line
	}
	return lines
}

func TestSend_LogLinesCarryOnlyTheirOwnFields(t *testing.T) {
	buf := captureLogs(t)
	ctx := logx.ContextWithFields(context.Background(), logx.Fields{"request_id": "req-7"})

	f := newFixture()
	f.provider.err = notifx.RejectedError("fake", http.StatusTooManyRequests, "", nil)
	_, err := f.service.Send(ctx, caller, validRequest())
	require.Error(t, err)

	f.provider.err = nil
	_, err = f.service.Send(ctx, caller, validRequest())
	require.NoError(t, err)

	lines := logLines(t, buf)

	rejected := lines["relay: provider rejected email"]
	require.NotNil(t, rejected)
	assert.Equal(t, float64(http.StatusTooManyRequests), rejected["status"])
	assert.Equal(t, "req-7", rejected["request_id"])
	assert.NotContains(t, rejected, "message_id")

	sent := lines["relay: email sent"]
	require.NotNil(t, sent)
	assert.Equal(t, "abc123", sent["message_id"])
	assert.Equal(t, "user-1", sent["user_id"])
	assert.Equal(t, "jane@example.com", sent["to"])
	assert.Equal(t, "req-7", sent["request_id"])
	assert.NotContains(t, sent, "status")
	assert.NotContains(t, sent, "error")
}
