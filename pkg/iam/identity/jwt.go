package identity

import (
	"context"
	"fmt"

	"github.com/Abraxas-365/mailrelay/pkg/iam"
	"github.com/Abraxas-365/mailrelay/pkg/kernel"
	"github.com/golang-jwt/jwt/v5"
)

// JWTResolver validates tokens locally with the backend's HMAC signing secret.
type JWTResolver struct {
	secretKey []byte
	issuer    string
}

// NewJWTResolver creates a resolver. An empty issuer skips the issuer check.
func NewJWTResolver(secretKey, issuer string) *JWTResolver {
	return &JWTResolver{
		secretKey: []byte(secretKey),
		issuer:    issuer,
	}
}

// Claims are the claims the hosted backend puts in its access tokens.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Resolve validates the token signature and expiry and returns its subject.
func (r *JWTResolver) Resolve(_ context.Context, token string) (*kernel.Caller, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg(), jwt.SigningMethodHS384.Alg(), jwt.SigningMethodHS512.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if r.issuer != "" {
		opts = append(opts, jwt.WithIssuer(r.issuer))
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return r.secretKey, nil
	}, opts...)
	if err != nil {
		return nil, iam.ErrInvalidToken().WithDetail("error", err.Error())
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, iam.ErrInvalidToken().WithDetail("error", "invalid claims")
	}
	if claims.Subject == "" {
		return nil, iam.ErrInvalidToken().WithDetail("error", "token without subject")
	}

	return &kernel.Caller{
		ID:    kernel.NewUserID(claims.Subject),
		Email: claims.Email,
	}, nil
}
