package config

import "time"

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	AppName         string        `env:"APP_NAME" envDefault:"mailrelay"`
	Version         string        `env:"APP_VERSION" envDefault:"1.0.0"`
	CORSOrigins     string        `env:"CORS_ORIGINS" envDefault:"*"`
	BodyLimit       int           `env:"BODY_LIMIT" envDefault:"1048576"`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
	Debug           bool          `env:"DEBUG" envDefault:"false"`
}
