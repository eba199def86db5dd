// Package identity resolves bearer credentials to the calling user.
package identity

import (
	"context"
	"strings"

	"github.com/Abraxas-365/mailrelay/pkg/kernel"
)

// Resolver turns a bearer token into the caller it belongs to. Implementations
// return an iam error for unknown, expired or malformed tokens.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*kernel.Caller, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, token string) (*kernel.Caller, error)

func (f ResolverFunc) Resolve(ctx context.Context, token string) (*kernel.Caller, error) {
	return f(ctx, token)
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
