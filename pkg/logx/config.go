package logx

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Format selects the output encoding.
type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

// Config holds the logger configuration
type Config struct {
	// Level is the minimum level written
	Level Level

	Format Format

	// EnableColors only applies to the console format
	EnableColors    bool
	EnableCaller    bool
	EnableTimestamp bool

	// TimeFormat is a time layout, or "unix" / "unixmilli"
	TimeFormat string

	// Output defaults to os.Stdout
	Output io.Writer
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Level:           LevelInfo,
		Format:          FormatConsole,
		EnableColors:    true,
		EnableTimestamp: true,
		TimeFormat:      time.RFC3339,
		Output:          os.Stdout,
	}
}

type envConfig struct {
	Level      string `env:"LOG_LEVEL" envDefault:"info"`
	Format     string `env:"LOG_FORMAT" envDefault:"console"`
	Color      bool   `env:"LOG_COLOR" envDefault:"true"`
	Caller     bool   `env:"LOG_CALLER" envDefault:"false"`
	TimeFormat string `env:"LOG_TIME_FORMAT" envDefault:"RFC3339"`
}

var namedTimeFormats = map[string]string{
	"RFC3339":     time.RFC3339,
	"RFC3339NANO": time.RFC3339Nano,
	"RFC822":      time.RFC822,
	"UNIX":        "unix",
	"UNIXMILLI":   "unixmilli",
}

// LoadFromEnv builds a Config from LOG_* variables. Values that fail to parse
// leave the defaults in place.
func LoadFromEnv() *Config {
	config := DefaultConfig()

	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return config
	}

	config.Level = ParseLevel(raw.Level)
	if strings.EqualFold(raw.Format, string(FormatJSON)) {
		config.Format = FormatJSON
	}
	config.EnableColors = raw.Color
	config.EnableCaller = raw.Caller

	if layout, ok := namedTimeFormats[strings.ToUpper(raw.TimeFormat)]; ok {
		config.TimeFormat = layout
	} else if raw.TimeFormat != "" {
		config.TimeFormat = raw.TimeFormat
	}
	return config
}
