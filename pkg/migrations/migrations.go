// Package migrations applies the relay's schema with goose. The SQL files are
// embedded so the binary migrates without a checkout.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"

	"github.com/Abraxas-365/mailrelay/pkg/errx"
	"github.com/Abraxas-365/mailrelay/pkg/logx"
	"github.com/pressly/goose/v3"
)

//go:embed sql/*.sql
var embedded embed.FS

// Files returns the embedded migration files rooted at their directory.
func Files() fs.FS {
	sub, err := fs.Sub(embedded, "sql")
	if err != nil {
		panic(err)
	}
	return sub
}

func newProvider(db *sql.DB) (*goose.Provider, error) {
	p, err := goose.NewProvider(goose.DialectPostgres, db, Files())
	if err != nil {
		return nil, errx.Wrap(err, "failed to load migrations", errx.TypeInternal)
	}
	return p, nil
}

// Up applies every pending migration.
func Up(ctx context.Context, db *sql.DB) error {
	p, err := newProvider(db)
	if err != nil {
		return err
	}

	results, err := p.Up(ctx)
	if err != nil {
		return errx.Wrap(err, "failed to apply migrations", errx.TypeInternal)
	}
	for _, r := range results {
		logx.WithFields(logx.Fields{
			"version":  r.Source.Version,
			"file":     r.Source.Path,
			"duration": r.Duration.String(),
		}).Info("migration applied")
	}
	if len(results) == 0 {
		logx.Info("schema is up to date")
	}
	return nil
}

// Status logs the state of every known migration.
func Status(ctx context.Context, db *sql.DB) error {
	p, err := newProvider(db)
	if err != nil {
		return err
	}

	statuses, err := p.Status(ctx)
	if err != nil {
		return errx.Wrap(err, "failed to read migration status", errx.TypeInternal)
	}
	for _, s := range statuses {
		logx.WithFields(logx.Fields{
			"version": s.Source.Version,
			"file":    s.Source.Path,
			"state":   string(s.State),
		}).Info("migration")
	}
	return nil
}
