package file

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/surf-data-etl/internal/domain"
)

// Sink writes each record as an indented JSON document into a directory,
// replacing the previous document of the same name.
type Sink struct {
	dir     string
	perSpot bool
	logger  *slog.Logger
}

// NewSink creates a file sink rooted at dir. With perSpot set, files are
// named after the record's key (buoy_44097.json, forecast_block-island.json)
// so that several spots do not overwrite each other.
func NewSink(dir string, perSpot bool, logger *slog.Logger) *Sink {
	return &Sink{dir: dir, perSpot: perSpot, logger: logger}
}

func (s *Sink) Name() string { return "file" }

// Publish writes every record, stopping at the first failure.
func (s *Sink) Publish(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(s.dir, s.FileName(r))
		if err := WriteJSON(path, r); err != nil {
			return err
		}
		s.logger.Info("saved record", "path", path, "record_type", r.RecordType(), "key", r.Key())
	}
	return nil
}

// FileName is the name a record is written under.
func (s *Sink) FileName(r domain.Record) string {
	if !s.perSpot {
		return r.RecordType() + ".json"
	}
	return fmt.Sprintf("%s_%s.json", r.RecordType(), sanitize(r.Key()))
}

// WriteJSON writes v to a temporary file in the same directory and renames
// it over path, so readers never see a partial document.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize %s: %w", filepath.Base(path), err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}

func sanitize(key string) string {
	out := []rune(key)
	for i, r := range out {
		if r == '/' || r == '\\' || r == ' ' {
			out[i] = '_'
		}
	}
	return string(out)
}
