// Package activity records notable user actions for the application's history
// views. Writes are best effort: a failed write is logged and reported through
// Outcome, never returned as an error.
package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/Abraxas-365/mailrelay/pkg/kernel"
	"github.com/Abraxas-365/mailrelay/pkg/logx"
)

// Type tags an activity entry.
type Type string

const (
	TypeEmailSent Type = "email_sent"
)

// Entry is one activity log record. CreatedAt is assigned by the store.
type Entry struct {
	ID          string            `db:"id" json:"id"`
	Type        Type              `db:"type" json:"type"`
	Title       string            `db:"title" json:"title"`
	Description string            `db:"description" json:"description"`
	EntityType  kernel.EntityType `db:"entity_type" json:"entity_type"`
	EntityID    string            `db:"entity_id" json:"entity_id"`
	UserID      kernel.UserID     `db:"user_id" json:"user_id"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
}

// Repository persists entries. Insert sets the store-assigned fields on entry.
type Repository interface {
	Insert(ctx context.Context, entry *Entry) error
}

// Outcome is the result of a best-effort write. Err is informational only.
type Outcome struct {
	Entry    *Entry
	Recorded bool
	Err      error
}

// Recorder writes entries without ever failing its caller.
type Recorder struct {
	repo Repository
}

func NewRecorder(repo Repository) *Recorder {
	return &Recorder{repo: repo}
}

// Record inserts entry once. Errors and panics from the store are logged and
// folded into the Outcome.
func (r *Recorder) Record(ctx context.Context, entry *Entry) (out Outcome) {
	out.Entry = entry
	if r == nil || r.repo == nil {
		return out
	}

	defer func() {
		if p := recover(); p != nil {
			out.Recorded = false
			out.Err = panicError{value: p}
			r.logFailure(ctx, entry, out.Err)
		}
	}()

	if err := r.repo.Insert(ctx, entry); err != nil {
		out.Err = err
		r.logFailure(ctx, entry, err)
		return out
	}
	out.Recorded = true
	return out
}

func (r *Recorder) logFailure(ctx context.Context, entry *Entry, err error) {
	logx.WithContext(ctx).WithError(err).WithFields(logx.Fields{
		"activity_type": entry.Type,
		"user_id":       entry.UserID,
		"entity_id":     entry.EntityID,
	}).Error("activity: failed to record entry")
}

type panicError struct {
	value any
}

func (p panicError) Error() string {
	return fmt.Sprintf("activity store panicked: %v", p.value)
}
