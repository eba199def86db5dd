package relay

import (
	"regexp"
	"strings"

	"github.com/Abraxas-365/mailrelay/pkg/kernel"
)

// emailPattern accepts local@domain.tld with no whitespace anywhere.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValidEmail reports whether addr has the local@domain.tld shape.
func IsValidEmail(addr string) bool {
	return emailPattern.MatchString(addr)
}

// Validate checks req before anything leaves the process.
func Validate(req Request) error {
	var missing []string
	if strings.TrimSpace(req.To) == "" {
		missing = append(missing, "to")
	}
	if strings.TrimSpace(req.Subject) == "" {
		missing = append(missing, "subject")
	}
	if strings.TrimSpace(req.Body) == "" {
		missing = append(missing, "body")
	}
	if len(missing) > 0 {
		return ErrMissingFields(missing...)
	}

	if !IsValidEmail(req.To) {
		return ErrInvalidEmail("to")
	}

	if req.EntityType != "" {
		if _, ok := kernel.ParseEntityType(req.EntityType); !ok {
			return ErrInvalidEntity(req.EntityType)
		}
	}
	return nil
}
