package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/IshaanNene/NewsGoat/internal/types"
)

// DefaultLimit caps List when the filter sets no limit.
const DefaultLimit = 50

const articleColumns = `id, title, content, summary, author, published_date, url, source,
	category, image_url, word_count, sentiment_score, scraped_at, created_at, is_active`

const insertArticle = `INSERT INTO articles (` + articleColumns + `)
	VALUES (:id, :title, :content, :summary, :author, :published_date, :url, :source,
	:category, :image_url, :word_count, :sentiment_score, :scraped_at, :created_at, :is_active)
	ON CONFLICT DO NOTHING`

// Filter selects active articles. Empty fields do not filter.
type Filter struct {
	Sources    []string `json:"sources,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Keywords   []string `json:"keywords,omitempty"`
	Limit      int      `json:"limit,omitempty"`
	Offset     int      `json:"offset,omitempty"`
}

// SaveNew inserts the articles whose URL is not stored yet and returns
// exactly those. Later scrapes of a stored URL are no-ops, not updates.
func (s *Store) SaveNew(ctx context.Context, articles []*types.Article) ([]*types.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var inserted []*types.Article
	for _, a := range articles {
		if a == nil || a.URL == "" {
			continue
		}

		exists, err := s.urlExists(ctx, a.URL)
		if err != nil {
			return inserted, err
		}
		if exists {
			continue
		}

		a.CreatedAt = s.now().UTC()
		a.ScrapedAt = a.ScrapedAt.UTC()
		if a.ScrapedAt.IsZero() {
			a.ScrapedAt = a.CreatedAt
		}

		res, err := s.db.NamedExecContext(ctx, insertArticle, a)
		if err != nil {
			return inserted, s.fail("insert article", fmt.Errorf("%s: %w", a.URL, err))
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			continue
		}
		inserted = append(inserted, a)
	}

	s.logger.Debug("articles saved", "offered", len(articles), "inserted", len(inserted))
	return inserted, nil
}

func (s *Store) urlExists(ctx context.Context, url string) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n, s.db.Rebind(`SELECT COUNT(1) FROM articles WHERE url = ?`), url)
	if err != nil {
		return false, s.fail("lookup url", err)
	}
	return n > 0, nil
}

// List returns active articles matching f, newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]*types.Article, error) {
	where := []string{"is_active = ?"}
	args := []any{true}

	if len(f.Sources) > 0 {
		where = append(where, "source IN (?)")
		args = append(args, f.Sources)
	}
	if len(f.Categories) > 0 {
		cats := make([]string, len(f.Categories))
		for i, c := range f.Categories {
			cats[i] = strings.ToLower(c)
		}
		where = append(where, "LOWER(category) IN (?)")
		args = append(args, cats)
	}
	if len(f.Keywords) > 0 {
		var clauses []string
		for _, kw := range f.Keywords {
			kw = strings.TrimSpace(kw)
			if kw == "" {
				continue
			}
			pattern := "%" + escapeLike(strings.ToLower(kw)) + "%"
			clauses = append(clauses, `(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(content) LIKE ? ESCAPE '\')`)
			args = append(args, pattern, pattern)
		}
		if len(clauses) > 0 {
			where = append(where, "("+strings.Join(clauses, " OR ")+")")
		}
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	offset := max(f.Offset, 0)
	args = append(args, limit, offset)

	query := `SELECT ` + articleColumns + ` FROM articles WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	query, args, err := s.in(query, args...)
	if err != nil {
		return nil, s.fail("list articles", err)
	}

	var out []*types.Article
	if err := s.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, s.fail("list articles", err)
	}
	return out, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

// GetByURL returns the stored article with the given URL, active or not.
func (s *Store) GetByURL(ctx context.Context, url string) (*types.Article, error) {
	var a types.Article
	err := s.db.GetContext(ctx, &a, s.db.Rebind(`SELECT `+articleColumns+` FROM articles WHERE url = ?`), url)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, s.fail("get article", err)
	}
	return &a, nil
}

// Deactivate clears is_active on articles created before cutoff and returns
// how many were swept. Rows are never physically deleted.
func (s *Store) Deactivate(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		s.db.Rebind(`UPDATE articles SET is_active = ? WHERE is_active = ? AND created_at < ?`),
		false, true, cutoff.UTC())
	if err != nil {
		return 0, s.fail("deactivate", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, s.fail("deactivate", err)
	}
	s.logger.Info("articles deactivated", "count", n, "cutoff", cutoff.UTC().Format(time.RFC3339))
	return n, nil
}
