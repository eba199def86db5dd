package identity

import (
	"github.com/Abraxas-365/mailrelay/pkg/errx"
	"github.com/Abraxas-365/mailrelay/pkg/iam"
	"github.com/Abraxas-365/mailrelay/pkg/kernel"
	"github.com/Abraxas-365/mailrelay/pkg/logx"
	"github.com/gofiber/fiber/v2"
)

// ErrorHandler renders an authentication failure.
type ErrorHandler func(c *fiber.Ctx, err *errx.Error) error

// Middleware authenticates requests with a bearer credential.
type Middleware struct {
	resolver Resolver
	onError  ErrorHandler
}

// MiddlewareOption configures a Middleware.
type MiddlewareOption func(*Middleware)

// WithErrorHandler replaces the default failure rendering, which hands the
// error to fiber's global error handler.
func WithErrorHandler(h ErrorHandler) MiddlewareOption {
	return func(m *Middleware) {
		m.onError = h
	}
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(resolver Resolver, opts ...MiddlewareOption) *Middleware {
	m := &Middleware{
		resolver: resolver,
		onError: func(_ *fiber.Ctx, err *errx.Error) error {
			return err
		},
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Authenticate resolves the caller before the next handler runs. No handler
// after it is reached without a valid caller.
func (m *Middleware) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := BearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return m.onError(c, iam.ErrMissingToken())
		}

		caller, err := m.resolver.Resolve(c.UserContext(), token)
		if err != nil {
			logx.WithContext(c.UserContext()).WithError(err).Debug("identity: token rejected")
			return m.onError(c, toAuthError(err))
		}
		if !caller.IsValid() {
			return m.onError(c, iam.ErrInvalidToken().WithDetail("reason", "caller without id"))
		}

		c.Locals(kernel.CallerContextKey, caller)
		c.SetUserContext(kernel.WithCaller(c.UserContext(), caller))
		return c.Next()
	}
}

// CallerFrom returns the caller stored by Authenticate.
func CallerFrom(c *fiber.Ctx) (*kernel.Caller, bool) {
	caller, ok := c.Locals(kernel.CallerContextKey).(*kernel.Caller)
	return caller, ok && caller != nil
}

// toAuthError keeps authorization errors and folds everything else into
// an invalid token error so callers always see 401.
func toAuthError(err error) *errx.Error {
	e := errx.From(err)
	if e.Type == errx.TypeAuthorization {
		return e
	}
	return iam.ErrInvalidToken().WithDetail("reason", e.Message)
}
