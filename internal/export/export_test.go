package export

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/NewsGoat/internal/config"
	"github.com/IshaanNene/NewsGoat/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func sample() []*types.Article {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return []*types.Article{
		{ID: "a1", Title: "Summit opens", URL: "https://www.bbc.com/news/world-1", Source: "BBC News",
			Category: "World", WordCount: 120, SentimentScore: 0.5, ScrapedAt: at, CreatedAt: at, IsActive: true},
		{ID: "a2", Title: "Vote, then recount", URL: "https://www.cnn.com/2025/06/01/politics/vote", Source: "CNN",
			Category: "Politics", WordCount: 80, SentimentScore: -0.25, ScrapedAt: at, CreatedAt: at, IsActive: true},
	}
}

// --- File Tests ---

func TestJSONLAppendsAcrossRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "articles.jsonl")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		e, err := NewJSONL(path, testLogger)
		require.NoError(t, err)
		require.NoError(t, e.Export(ctx, sample()))
		require.NoError(t, e.Close())
	}

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []types.Article
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var a types.Article
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &a))
		lines = append(lines, a)
	}
	require.Len(t, lines, 4)
	assert.Equal(t, "Vote, then recount", lines[1].Title)
	assert.Equal(t, -0.25, lines[3].SentimentScore)
}

func TestCSVWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "articles.csv")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		e, err := NewCSV(path, testLogger)
		require.NoError(t, err)
		require.NoError(t, e.Export(ctx, sample()))
		require.NoError(t, e.Close())
	}

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, CSVHeader, rows[0])
	assert.Equal(t, "Vote, then recount", rows[2][1])
	assert.Equal(t, "-0.250", rows[2][10])
	assert.Equal(t, "2025-06-01T12:00:00Z", rows[4][12])
}

// --- Factory and Fan-Out Tests ---

func TestNewWithoutTypes(t *testing.T) {
	e, err := New(context.Background(), config.ExportConfig{}, testLogger)
	require.NoError(t, err)
	assert.Nil(t, e)
}

func TestNewBuildsMulti(t *testing.T) {
	dir := t.TempDir()
	e, err := New(context.Background(), config.ExportConfig{Types: []string{"jsonl", "csv"}, OutputDir: dir}, testLogger)
	require.NoError(t, err)
	require.IsType(t, &Multi{}, e)

	require.NoError(t, e.Export(context.Background(), sample()))
	require.NoError(t, e.Close())

	assert.FileExists(t, filepath.Join(dir, "articles.jsonl"))
	assert.FileExists(t, filepath.Join(dir, "articles.csv"))
}

func TestNewRejectsUnknownType(t *testing.T) {
	_, err := New(context.Background(), config.ExportConfig{Types: []string{"xml"}}, testLogger)
	var cfgErr *types.ConfigError
	require.True(t, errors.As(err, &cfgErr))
}

type failingSink struct{ closed bool }

func (f *failingSink) Name() string { return "failing" }
func (f *failingSink) Export(context.Context, []*types.Article) error {
	return errors.New("sink down")
}
func (f *failingSink) Close() error { f.closed = true; return nil }

func TestMultiContinuesPastFailingSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "articles.jsonl")
	jsonl, err := NewJSONL(path, testLogger)
	require.NoError(t, err)
	bad := &failingSink{}

	m := NewMulti([]Exporter{bad, jsonl}, testLogger)
	err = m.Export(context.Background(), sample())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sink down")
	require.NoError(t, m.Close())
	assert.True(t, bad.closed)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Summit opens")
}
