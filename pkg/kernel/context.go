package kernel

import (
	"context"
	"strings"
)

// Caller is the authenticated identity resolved from a bearer credential.
type Caller struct {
	ID    UserID `json:"id"`
	Email string `json:"email"`
}

// IsValid reports whether the caller carries a usable id.
func (c *Caller) IsValid() bool {
	return c != nil && !c.ID.IsEmpty()
}

// EmailLocalPart returns the part of the caller email before '@', or "".
func (c *Caller) EmailLocalPart() string {
	if c == nil {
		return ""
	}
	local, _, found := strings.Cut(c.Email, "@")
	if !found {
		return ""
	}
	return local
}

type ContextKey string

const (
	// CallerContextKey stores the *Caller in fiber locals and context.Context
	CallerContextKey ContextKey = "caller"
)

// WithCaller returns a copy of ctx carrying caller.
func WithCaller(ctx context.Context, caller *Caller) context.Context {
	return context.WithValue(ctx, CallerContextKey, caller)
}

// CallerFrom returns the caller stored in ctx, if any.
func CallerFrom(ctx context.Context) (*Caller, bool) {
	caller, ok := ctx.Value(CallerContextKey).(*Caller)
	return caller, ok && caller != nil
}
