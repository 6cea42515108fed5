package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/IshaanNene/NewsGoat/internal/types"
)

// openAppend opens path for appending, creating its directory. It reports
// whether the file was empty.
func openAppend(path string) (*os.File, bool, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, false, fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, false, fmt.Errorf("open output file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, false, fmt.Errorf("stat output file: %w", err)
	}
	return f, info.Size() == 0, nil
}

// --- JSONL Export ---

// JSONL appends articles as newline-delimited JSON, one object per line.
// Successive runs extend the same file.
type JSONL struct {
	path   string
	file   *os.File
	enc    *json.Encoder
	mu     sync.Mutex
	count  int
	logger *slog.Logger
}

// NewJSONL opens (or creates) a JSONL file for appending.
func NewJSONL(path string, logger *slog.Logger) (*JSONL, error) {
	f, _, err := openAppend(path)
	if err != nil {
		return nil, &types.StorageError{Backend: "jsonl", Op: "open", Err: err}
	}
	return &JSONL{
		path:   path,
		file:   f,
		enc:    json.NewEncoder(f),
		logger: logger.With("component", "jsonl_export"),
	}, nil
}

func (e *JSONL) Name() string { return "jsonl" }

func (e *JSONL) Export(_ context.Context, articles []*types.Article) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, a := range articles {
		if err := e.enc.Encode(a); err != nil {
			return &types.StorageError{Backend: "jsonl", Op: "encode", Err: err}
		}
		e.count++
	}
	e.logger.Debug("articles exported", "count", len(articles), "total", e.count)
	return nil
}

func (e *JSONL) Close() error {
	e.logger.Info("JSONL written", "path", e.path, "articles", e.count)
	if e.file != nil {
		return e.file.Close()
	}
	return nil
}

// --- CSV Export ---

// CSVHeader is the column order of CSV exports.
var CSVHeader = []string{
	"id", "title", "summary", "author", "published_date", "url", "source",
	"category", "image_url", "word_count", "sentiment_score", "scraped_at", "created_at",
}

// CSV appends articles as rows with a fixed header. Content is omitted;
// summary carries the gist.
type CSV struct {
	path   string
	file   *os.File
	writer *csv.Writer
	mu     sync.Mutex
	count  int
	logger *slog.Logger
}

// NewCSV opens (or creates) a CSV file for appending and writes the header
// when the file is new.
func NewCSV(path string, logger *slog.Logger) (*CSV, error) {
	f, empty, err := openAppend(path)
	if err != nil {
		return nil, &types.StorageError{Backend: "csv", Op: "open", Err: err}
	}

	w := csv.NewWriter(f)
	if empty {
		if err := w.Write(CSVHeader); err != nil {
			f.Close()
			return nil, &types.StorageError{Backend: "csv", Op: "write header", Err: err}
		}
		w.Flush()
	}

	return &CSV{
		path:   path,
		file:   f,
		writer: w,
		logger: logger.With("component", "csv_export"),
	}, nil
}

func (e *CSV) Name() string { return "csv" }

func (e *CSV) Export(_ context.Context, articles []*types.Article) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, a := range articles {
		if err := e.writer.Write(csvRow(a)); err != nil {
			return &types.StorageError{Backend: "csv", Op: "write row", Err: err}
		}
		e.count++
	}

	e.writer.Flush()
	if err := e.writer.Error(); err != nil {
		return &types.StorageError{Backend: "csv", Op: "flush", Err: err}
	}
	return nil
}

func csvRow(a *types.Article) []string {
	return []string{
		a.ID,
		a.Title,
		a.Summary,
		a.Author,
		a.PublishedDate,
		a.URL,
		a.Source,
		a.Category,
		a.ImageURL,
		strconv.Itoa(a.WordCount),
		strconv.FormatFloat(a.SentimentScore, 'f', 3, 64),
		formatTime(a.ScrapedAt),
		formatTime(a.CreatedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func (e *CSV) Close() error {
	e.logger.Info("CSV written", "path", e.path, "articles", e.count)
	if e.writer != nil {
		e.writer.Flush()
	}
	if e.file != nil {
		return e.file.Close()
	}
	return nil
}
