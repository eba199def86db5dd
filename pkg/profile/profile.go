package profile

import (
	"context"
	"net/http"
	"strings"

	"github.com/Abraxas-365/mailrelay/pkg/errx"
	"github.com/Abraxas-365/mailrelay/pkg/kernel"
)

// Profile is the part of a user's stored profile the relay reads.
type Profile struct {
	ID       kernel.UserID `db:"id" json:"id"`
	FullName string        `db:"full_name" json:"full_name"`
}

// DisplayName returns the trimmed full name, or "" when none is stored.
func (p *Profile) DisplayName() string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(p.FullName)
}

// Repository looks profiles up by user id.
type Repository interface {
	FindByID(ctx context.Context, id kernel.UserID) (*Profile, error)
}

var ErrRegistry = errx.NewRegistry("PROFILE")

var CodeNotFound = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Profile not found")

func ErrNotFound() *errx.Error {
	return ErrRegistry.New(CodeNotFound)
}
