package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Statistics summarizes the active articles. BySource and ByCategory only
// count articles created in the last 24 hours. A zero LastUpdated means no
// article was ever stored.
type Statistics struct {
	Total       int            `json:"total_articles"      yaml:"total_articles"`
	Last24h     int            `json:"articles_last_24h"   yaml:"articles_last_24h"`
	BySource    map[string]int `json:"articles_by_source"   yaml:"articles_by_source"`
	ByCategory  map[string]int `json:"articles_by_category" yaml:"articles_by_category"`
	LastUpdated time.Time      `json:"last_updated"        yaml:"last_updated"`
}

type bucket struct {
	Key   string `db:"name"`
	Count int    `db:"n"`
}

// Statistics computes the article statistics as of now.
func (s *Store) Statistics(ctx context.Context) (*Statistics, error) {
	since := s.now().UTC().Add(-24 * time.Hour)
	st := &Statistics{
		BySource:   make(map[string]int),
		ByCategory: make(map[string]int),
	}

	if err := s.db.GetContext(ctx, &st.Total,
		s.db.Rebind(`SELECT COUNT(1) FROM articles WHERE is_active = ?`), true); err != nil {
		return nil, s.fail("statistics", err)
	}
	if err := s.db.GetContext(ctx, &st.Last24h,
		s.db.Rebind(`SELECT COUNT(1) FROM articles WHERE is_active = ? AND created_at >= ?`), true, since); err != nil {
		return nil, s.fail("statistics", err)
	}

	for column, into := range map[string]map[string]int{"source": st.BySource, "category": st.ByCategory} {
		var rows []bucket
		query := `SELECT ` + column + ` AS name, COUNT(1) AS n FROM articles
			WHERE is_active = ? AND created_at >= ? GROUP BY ` + column
		if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), true, since); err != nil {
			return nil, s.fail("statistics", err)
		}
		for _, r := range rows {
			into[r.Key] = r.Count
		}
	}

	// Selecting the column itself keeps its declared type, which the SQLite
	// driver needs to decode a timestamp. MAX() would return plain text.
	err := s.db.GetContext(ctx, &st.LastUpdated,
		s.db.Rebind(`SELECT created_at FROM articles WHERE is_active = ? ORDER BY created_at DESC LIMIT 1`), true)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, s.fail("statistics", err)
	}
	return st, nil
}
