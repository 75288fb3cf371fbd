// Package download saves exported session logs to a local directory, playing
// the role a browser's download facility plays for the capture service.
package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"pkt.systems/pslog"
	"pkt.systems/tabcap/core"
	"pkt.systems/tabcap/schema"
)

// Store writes artifacts into a fixed directory. Without a browser chrome
// there is no save dialog, so PromptForPath is diagnosed and ignored.
type Store struct {
	dir    string
	logger pslog.Logger
}

// NewStore creates the directory if needed and returns a Store.
func NewStore(dir string, logger pslog.Logger) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("download directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("download directory: %w", err)
	}
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Dir returns the directory artifacts are written to.
func (s *Store) Dir() string {
	return s.dir
}

// Download writes the artifact and returns its download id.
func (s *Store) Download(ctx context.Context, req core.DownloadRequest) (schema.DownloadID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := filepath.Base(strings.TrimSpace(req.Filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("invalid artifact name %q", req.Filename)
	}
	if req.PromptForPath {
		s.logger.Debug("save-as prompt unavailable; writing to download directory", "dir", s.dir)
	}
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, req.Data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	id := schema.DownloadID(uuid.NewString())
	s.logger.Info("artifact written", "file", path, "bytes", len(req.Data), "download", id)
	return id, nil
}
