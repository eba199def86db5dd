package notifx

import (
	"encoding/json"
	"net/http"

	"github.com/Abraxas-365/mailrelay/pkg/errx"
)

var notifxErrors = errx.NewRegistry("NOTIFX")

var (
	ErrSendFailed     = notifxErrors.Register("SEND_FAILED", errx.TypeExternal, http.StatusBadGateway, "Failed to send email")
	ErrInvalidMessage = notifxErrors.Register("INVALID_MESSAGE", errx.TypeValidation, http.StatusBadRequest, "Invalid email message")
	ErrNoProvider     = notifxErrors.Register("NO_PROVIDER", errx.TypeInternal, http.StatusInternalServerError, "No email provider configured")
	ErrProviderReject = notifxErrors.Register("PROVIDER_REJECTED", errx.TypeExternal, http.StatusBadGateway, "Failed to send email")
)

// Fallback messages used when the provider gives no message of its own.
const (
	MsgInvalidAPIKey = "Invalid email service API key"
	MsgRateLimited   = "Too many emails sent. Rate limit exceeded, please try again later"
	MsgUnavailable   = "Email service is temporarily unavailable"
	MsgGenericFailed = "Failed to send email"
)

// DescribeFailure picks the caller-facing message for a rejected send. The
// provider's own message wins; otherwise the status decides.
func DescribeFailure(status int, providerMessage string) string {
	if providerMessage != "" {
		return providerMessage
	}
	switch {
	case status == http.StatusUnauthorized:
		return MsgInvalidAPIKey
	case status == http.StatusTooManyRequests:
		return MsgRateLimited
	case status >= 500:
		return MsgUnavailable
	default:
		return MsgGenericFailed
	}
}

// RejectedError builds the error returned when a provider answers with a
// non-success status. The provider status is echoed and its raw body attached.
func RejectedError(provider string, status int, providerMessage string, raw []byte) *errx.Error {
	e := notifxErrors.NewWithMessage(ErrProviderReject, DescribeFailure(status, providerMessage)).
		WithStatus(status).
		WithDetail("provider", provider).
		WithDetail("status_code", status)

	if len(raw) > 0 {
		if json.Valid(raw) {
			e.WithDetail(errx.DetailProviderResponse, json.RawMessage(raw))
		} else {
			e.WithDetail(errx.DetailProviderResponse, string(raw))
		}
	}
	return e
}

// SendFailedError wraps a transport level failure (no usable provider response).
func SendFailedError(provider string, cause error) *errx.Error {
	return notifxErrors.NewWithCause(ErrSendFailed, cause).
		WithMessage(MsgUnavailable).
		WithDetail("provider", provider)
}
