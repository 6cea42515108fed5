package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/IshaanNene/NewsGoat/internal/types"
)

const sourceColumns = `name, base_url, last_scraped, total_articles, articles_today, is_active`

// EnsureSources registers the configured sources. Existing rows keep their
// counters and only take the new base URL and active flag.
func (s *Store) EnsureSources(ctx context.Context, sources []types.Source) error {
	query := s.db.Rebind(`INSERT INTO sources (name, base_url, is_active) VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET base_url = excluded.base_url, is_active = excluded.is_active`)
	for _, src := range sources {
		if _, err := s.db.ExecContext(ctx, query, src.Name, src.BaseURL, src.IsActive); err != nil {
			return s.fail("ensure source", err)
		}
	}
	return nil
}

// RecordRun adds newArticles to a source's counters and stamps last_scraped.
// articles_today restarts when the previous run was on an earlier UTC day.
func (s *Store) RecordRun(ctx context.Context, name string, newArticles int, at time.Time) error {
	at = at.UTC()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return s.fail("record run", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		tx.Rebind(`INSERT INTO sources (name) VALUES (?) ON CONFLICT (name) DO NOTHING`), name); err != nil {
		return s.fail("record run", err)
	}

	var last *time.Time
	err = tx.GetContext(ctx, &last, tx.Rebind(`SELECT last_scraped FROM sources WHERE name = ?`), name)
	if err != nil {
		return s.fail("record run", err)
	}

	today := `articles_today + ?`
	if last == nil || !sameDay(last.UTC(), at) {
		today = `?`
	}
	_, err = tx.ExecContext(ctx, tx.Rebind(`UPDATE sources
		SET total_articles = total_articles + ?, articles_today = `+today+`, last_scraped = ?
		WHERE name = ?`), newArticles, newArticles, at, name)
	if err != nil {
		return s.fail("record run", err)
	}

	if err := tx.Commit(); err != nil {
		return s.fail("record run", err)
	}
	return nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Sources lists every registered source by name.
func (s *Store) Sources(ctx context.Context) ([]types.Source, error) {
	var out []types.Source
	if err := s.db.SelectContext(ctx, &out, `SELECT `+sourceColumns+` FROM sources ORDER BY name`); err != nil {
		return nil, s.fail("list sources", err)
	}
	return out, nil
}

// Source returns one registered source.
func (s *Store) Source(ctx context.Context, name string) (*types.Source, error) {
	var src types.Source
	err := s.db.GetContext(ctx, &src, s.db.Rebind(`SELECT `+sourceColumns+` FROM sources WHERE name = ?`), name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, s.fail("get source", err)
	}
	return &src, nil
}

// Categories lists the seeded display categories.
func (s *Store) Categories(ctx context.Context) ([]types.Category, error) {
	var out []types.Category
	err := s.db.SelectContext(ctx, &out, `SELECT name, display_name, description, color FROM categories ORDER BY name`)
	if err != nil {
		return nil, s.fail("list categories", err)
	}
	return out, nil
}
