package config

import "time"

// Identity resolution modes.
const (
	IdentityModeRemote = "remote"
	IdentityModeJWT    = "jwt"
)

// IdentityConfig configures how bearer credentials are resolved to callers.
type IdentityConfig struct {
	Mode       string        `env:"IDENTITY_MODE" envDefault:"remote"`
	BackendURL string        `env:"BACKEND_URL"`
	AnonKey    string        `env:"BACKEND_ANON_KEY"`
	JWTSecret  string        `env:"JWT_SECRET"`
	JWTIssuer  string        `env:"JWT_ISSUER"`
	Timeout    time.Duration `env:"IDENTITY_TIMEOUT" envDefault:"10s"`
	// CacheTTL enables the redis identity cache when positive and redis is enabled.
	CacheTTL time.Duration `env:"IDENTITY_CACHE_TTL" envDefault:"0s"`
}
