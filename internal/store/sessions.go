package store

import (
	"context"

	"github.com/IshaanNene/NewsGoat/internal/types"
)

const sessionColumns = `id, source, start_time, end_time, articles_found, articles_saved, status, error_message`

// StartSession appends a running scrape session to the log.
func (s *Store) StartSession(ctx context.Context, sess *types.ScrapeSession) error {
	sess.StartTime = sess.StartTime.UTC()
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO scraping_logs (`+sessionColumns+`)
		VALUES (:id, :source, :start_time, :end_time, :articles_found, :articles_saved, :status, :error_message)`, sess)
	if err != nil {
		return s.fail("start session", err)
	}
	return nil
}

// FinishSession writes the outcome of a session. Calling it again with
// updated counts overwrites the previous outcome.
func (s *Store) FinishSession(ctx context.Context, sess *types.ScrapeSession) error {
	if sess.EndTime != nil {
		end := sess.EndTime.UTC()
		sess.EndTime = &end
	}
	_, err := s.db.NamedExecContext(ctx, `UPDATE scraping_logs SET
		end_time = :end_time, articles_found = :articles_found, articles_saved = :articles_saved,
		status = :status, error_message = :error_message
		WHERE id = :id`, sess)
	if err != nil {
		return s.fail("finish session", err)
	}
	return nil
}

// RecentSessions returns the latest sessions, newest first. An empty source
// matches every source.
func (s *Store) RecentSessions(ctx context.Context, source string, limit int) ([]types.ScrapeSession, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	query := `SELECT ` + sessionColumns + ` FROM scraping_logs`
	var args []any
	if source != "" {
		query += ` WHERE source = ?`
		args = append(args, source)
	}
	query += ` ORDER BY start_time DESC LIMIT ?`
	args = append(args, limit)

	var out []types.ScrapeSession
	if err := s.db.SelectContext(ctx, &out, s.db.Rebind(query), args...); err != nil {
		return nil, s.fail("list sessions", err)
	}
	return out, nil
}
