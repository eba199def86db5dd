package notifx_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abraxas-365/mailrelay/pkg/errx"
	"github.com/Abraxas-365/mailrelay/pkg/notifx"
)

type recordingSender struct {
	calls int
}

func (s *recordingSender) SendEmail(_ context.Context, _ notifx.EmailMessage) (*notifx.Receipt, error) {
	s.calls++
	return &notifx.Receipt{MessageID: "m-1", Provider: "test"}, nil
}

func TestDescribeFailure(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		message string
		want    string
	}{
		{"provider message wins", http.StatusUnauthorized, "API key is invalid", "API key is invalid"},
		{"unauthorized", http.StatusUnauthorized, "", notifx.MsgInvalidAPIKey},
		{"rate limited", http.StatusTooManyRequests, "", notifx.MsgRateLimited},
		{"server error", http.StatusBadGateway, "", notifx.MsgUnavailable},
		{"other client error", http.StatusUnprocessableEntity, "", notifx.MsgGenericFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, notifx.DescribeFailure(tt.status, tt.message))
		})
	}
}

func TestRejectedError_EchoesStatusAndBody(t *testing.T) {
	e := notifx.RejectedError("resend", http.StatusTooManyRequests, "", []byte(`{"name":"rate_limit_exceeded"}`))

	assert.Equal(t, http.StatusTooManyRequests, e.HTTPStatus)
	assert.Equal(t, notifx.MsgRateLimited, e.Message)
	raw, ok := e.Detail(errx.DetailProviderResponse)
	require.True(t, ok)
	assert.JSONEq(t, `{"name":"rate_limit_exceeded"}`, string(raw.(json.RawMessage)))
}

func TestClient_RejectsEmptyEnvelope(t *testing.T) {
	sender := &recordingSender{}
	client := notifx.NewClient(sender)

	_, err := client.SendEmail(context.Background(), notifx.EmailMessage{From: "a <a@b.co>", Subject: "hi"})
	require.Error(t, err)
	assert.True(t, errx.Is(err, notifx.ErrInvalidMessage))
	assert.Zero(t, sender.calls)

	receipt, err := client.SendEmail(context.Background(), notifx.EmailMessage{
		From: "a <a@b.co>", To: []string{"x@y.co"}, Subject: "hi",
	})
	require.NoError(t, err)
	assert.Equal(t, "m-1", receipt.MessageID)
	assert.Equal(t, 1, sender.calls)
}

func TestClient_NoProvider(t *testing.T) {
	_, err := notifx.NewClient(nil).SendEmail(context.Background(), notifx.EmailMessage{})
	assert.True(t, errx.Is(err, notifx.ErrNoProvider))
}
