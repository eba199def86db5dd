package activityinfra

import (
	"context"
	"database/sql"

	"github.com/Abraxas-365/mailrelay/pkg/activity"
	"github.com/Abraxas-365/mailrelay/pkg/errx"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// PostgresActivityRepository writes to the activity_logs table.
type PostgresActivityRepository struct {
	db *sqlx.DB
}

func NewPostgresActivityRepository(db *sqlx.DB) activity.Repository {
	return &PostgresActivityRepository{db: db}
}

type activityPersistence struct {
	ID          string         `db:"id"`
	Type        string         `db:"type"`
	Title       string         `db:"title"`
	Description sql.NullString `db:"description"`
	EntityType  sql.NullString `db:"entity_type"`
	EntityID    sql.NullString `db:"entity_id"`
	UserID      string         `db:"user_id"`
}

// Insert stores entry and fills in its id and store-assigned creation time.
func (r *PostgresActivityRepository) Insert(ctx context.Context, entry *activity.Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	query := `
		INSERT INTO activity_logs (
			id, type, title, description, entity_type, entity_id, user_id
		) VALUES (
			:id, :type, :title, :description, :entity_type, :entity_id, :user_id
		)
		RETURNING created_at`

	rows, err := r.db.NamedQueryContext(ctx, query, toPersistence(entry))
	if err != nil {
		return errx.Wrap(err, "failed to insert activity log", errx.TypeInternal).
			WithDetail("activity_id", entry.ID)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&entry.CreatedAt); err != nil {
			return errx.Wrap(err, "failed to read activity log timestamp", errx.TypeInternal)
		}
	}
	return rows.Err()
}

func toPersistence(e *activity.Entry) activityPersistence {
	return activityPersistence{
		ID:          e.ID,
		Type:        string(e.Type),
		Title:       e.Title,
		Description: sql.NullString{String: e.Description, Valid: e.Description != ""},
		EntityType:  sql.NullString{String: e.EntityType.String(), Valid: e.EntityType != ""},
		EntityID:    sql.NullString{String: e.EntityID, Valid: e.EntityID != ""},
		UserID:      e.UserID.String(),
	}
}
