package relay

import (
	"net/http"

	"github.com/Abraxas-365/mailrelay/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("RELAY")

var (
	CodeMissingFields    = ErrRegistry.Register("MISSING_FIELDS", errx.TypeValidation, http.StatusBadRequest, "Missing required fields: to, subject, body")
	CodeInvalidEmail     = ErrRegistry.Register("INVALID_EMAIL", errx.TypeValidation, http.StatusBadRequest, "Invalid email format")
	CodeInvalidEntity    = ErrRegistry.Register("INVALID_ENTITY", errx.TypeValidation, http.StatusBadRequest, "Invalid entity type")
	CodeInvalidBody      = ErrRegistry.Register("INVALID_BODY", errx.TypeValidation, http.StatusBadRequest, "Invalid request body")
	CodeNotConfigured    = ErrRegistry.Register("NOT_CONFIGURED", errx.TypeInternal, http.StatusInternalServerError, "Email service not configured")
	CodeMethodNotAllowed = ErrRegistry.Register("METHOD_NOT_ALLOWED", errx.TypeValidation, http.StatusMethodNotAllowed, "Method not allowed")
)

func ErrMissingFields(fields ...string) *errx.Error {
	return ErrRegistry.New(CodeMissingFields).WithDetail("missing", fields)
}

func ErrInvalidEmail(field string) *errx.Error {
	return ErrRegistry.New(CodeInvalidEmail).WithDetail("field", field)
}

func ErrInvalidEntity(entityType string) *errx.Error {
	return ErrRegistry.New(CodeInvalidEntity).WithDetail("entity_type", entityType)
}

func ErrInvalidBody(cause error) *errx.Error {
	return ErrRegistry.NewWithCause(CodeInvalidBody, cause)
}

func ErrNotConfigured() *errx.Error {
	return ErrRegistry.New(CodeNotConfigured)
}

func ErrMethodNotAllowed(method string) *errx.Error {
	return ErrRegistry.New(CodeMethodNotAllowed).WithDetail("method", method)
}
