// Package relayapi exposes the relay over HTTP.
package relayapi

import (
	"context"

	"github.com/Abraxas-365/mailrelay/pkg/errx"
	"github.com/Abraxas-365/mailrelay/pkg/iam"
	"github.com/Abraxas-365/mailrelay/pkg/iam/identity"
	"github.com/Abraxas-365/mailrelay/pkg/kernel"
	"github.com/Abraxas-365/mailrelay/pkg/logx"
	"github.com/Abraxas-365/mailrelay/pkg/relay"
	"github.com/gofiber/fiber/v2"
)

// Path is where the relay is mounted.
const Path = "/functions/v1/send-email"

// CORS values sent on every relay response.
const (
	AllowOrigin  = "*"
	AllowHeaders = "authorization, x-client-info, apikey, content-type"
	AllowMethods = "POST, OPTIONS"
)

// Sender is the part of relay.Service the handlers need.
type Sender interface {
	Send(ctx context.Context, caller *kernel.Caller, req relay.Request) (*relay.Result, error)
}

// Handlers serves the send-email endpoint.
type Handlers struct {
	sender Sender
	auth   *identity.Middleware
}

// NewHandlers builds the handlers. Authentication failures are rendered in the
// relay result shape rather than by the global error handler.
func NewHandlers(sender Sender, resolver identity.Resolver) *Handlers {
	return &Handlers{
		sender: sender,
		auth:   identity.NewMiddleware(resolver, identity.WithErrorHandler(renderAuthError)),
	}
}

// RegisterRoutes mounts OPTIONS, POST and a 405 catch-all on Path.
func (h *Handlers) RegisterRoutes(r fiber.Router) {
	r.Options(Path, h.Preflight)
	r.Post(Path, withCORS, h.auth.Authenticate(), h.Send)
	r.All(Path, h.MethodNotAllowed)
}

// Preflight answers cross-origin preflight requests before any authentication.
func (h *Handlers) Preflight(c *fiber.Ctx) error {
	setCORS(c)
	return c.SendStatus(fiber.StatusNoContent)
}

// Send decodes the request and relays it for the authenticated caller.
func (h *Handlers) Send(c *fiber.Ctx) error {
	ctx := logx.ContextWithFields(c.UserContext(), logx.Fields{
		"request_id": c.GetRespHeader(fiber.HeaderXRequestID),
	})

	caller, ok := identity.CallerFrom(c)
	if !ok {
		return render(c, iam.ErrUnauthorized())
	}

	var req relay.Request
	if err := c.App().Config().JSONDecoder(c.Body(), &req); err != nil {
		return render(c, relay.ErrInvalidBody(err))
	}

	res, err := h.sender.Send(ctx, caller, req)
	if err != nil {
		return render(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(res)
}

// MethodNotAllowed answers every method other than OPTIONS and POST.
func (h *Handlers) MethodNotAllowed(c *fiber.Ctx) error {
	setCORS(c)
	c.Set(fiber.HeaderAllow, AllowMethods)
	return render(c, relay.ErrMethodNotAllowed(c.Method()))
}

func renderAuthError(c *fiber.Ctx, err *errx.Error) error {
	return render(c, err)
}

func render(c *fiber.Ctx, err error) error {
	status, res := relay.Failed(err)

	log := logx.WithContext(c.UserContext()).WithError(err).WithFields(logx.Fields{
		"path":       c.Path(),
		"status":     status,
		"request_id": c.GetRespHeader(fiber.HeaderXRequestID),
	})
	if e := errx.From(err); len(e.Details) > 0 {
		log.WithField("details", e.Details)
	}
	if status >= fiber.StatusInternalServerError {
		log.Error("relay: request failed")
	} else {
		log.Debug("relay: request rejected")
	}
	return c.Status(status).JSON(res)
}

func withCORS(c *fiber.Ctx) error {
	setCORS(c)
	return c.Next()
}

func setCORS(c *fiber.Ctx) {
	c.Set(fiber.HeaderAccessControlAllowOrigin, AllowOrigin)
	c.Set(fiber.HeaderAccessControlAllowHeaders, AllowHeaders)
	c.Set(fiber.HeaderAccessControlAllowMethods, AllowMethods)
}
