// Package export writes newly stored articles to optional sinks.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/IshaanNene/NewsGoat/internal/config"
	"github.com/IshaanNene/NewsGoat/internal/types"
)

// Exporter is the interface for all export sinks.
type Exporter interface {
	// Export writes a batch of articles.
	Export(ctx context.Context, articles []*types.Article) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the sink identifier.
	Name() string
}

// New builds the sinks named in cfg.Types. It returns nil when no sink is
// configured. Sinks opened before a failure are closed again.
func New(ctx context.Context, cfg config.ExportConfig, logger *slog.Logger) (Exporter, error) {
	var sinks []Exporter
	for _, kind := range cfg.Types {
		sink, err := open(ctx, kind, cfg, logger)
		if err != nil {
			for _, s := range sinks {
				s.Close()
			}
			return nil, err
		}
		sinks = append(sinks, sink)
	}

	switch len(sinks) {
	case 0:
		return nil, nil
	case 1:
		return sinks[0], nil
	default:
		return NewMulti(sinks, logger), nil
	}
}

func open(ctx context.Context, kind string, cfg config.ExportConfig, logger *slog.Logger) (Exporter, error) {
	switch kind {
	case "jsonl":
		return NewJSONL(filepath.Join(cfg.OutputDir, "articles.jsonl"), logger)
	case "csv":
		return NewCSV(filepath.Join(cfg.OutputDir, "articles.csv"), logger)
	case "mongodb":
		return NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection, logger)
	default:
		return nil, &types.ConfigError{Field: "export.types", Err: fmt.Errorf("unsupported export type %q", kind)}
	}
}

// --- Fan-Out ---

// Multi writes articles to several sinks. A failing sink does not stop the
// others.
type Multi struct {
	sinks  []Exporter
	logger *slog.Logger
}

// NewMulti creates an exporter that fans out to sinks.
func NewMulti(sinks []Exporter, logger *slog.Logger) *Multi {
	return &Multi{
		sinks:  sinks,
		logger: logger.With("component", "multi_export"),
	}
}

func (m *Multi) Name() string { return "multi" }

func (m *Multi) Export(ctx context.Context, articles []*types.Article) error {
	var errs []error
	for _, sink := range m.sinks {
		if err := sink.Export(ctx, articles); err != nil {
			m.logger.Error("sink export failed", "sink", sink.Name(), "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Multi) Close() error {
	var errs []error
	for _, sink := range m.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
