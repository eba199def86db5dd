package profileinfra

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Abraxas-365/mailrelay/pkg/errx"
	"github.com/Abraxas-365/mailrelay/pkg/kernel"
	"github.com/Abraxas-365/mailrelay/pkg/profile"
	"github.com/jmoiron/sqlx"
)

// PostgresProfileRepository reads the profiles table.
type PostgresProfileRepository struct {
	db *sqlx.DB
}

func NewPostgresProfileRepository(db *sqlx.DB) profile.Repository {
	return &PostgresProfileRepository{db: db}
}

type profilePersistence struct {
	ID       string         `db:"id"`
	FullName sql.NullString `db:"full_name"`
}

// FindByID returns the profile for id or profile.ErrNotFound.
func (r *PostgresProfileRepository) FindByID(ctx context.Context, id kernel.UserID) (*profile.Profile, error) {
	var p profilePersistence
	query := `SELECT id, full_name FROM profiles WHERE id = $1`
	if err := r.db.GetContext(ctx, &p, query, id.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, profile.ErrNotFound().WithDetail("user_id", id)
		}
		return nil, errx.Wrap(err, "failed to find profile", errx.TypeInternal).WithDetail("user_id", id)
	}

	return &profile.Profile{
		ID:       kernel.NewUserID(p.ID),
		FullName: p.FullName.String,
	}, nil
}
