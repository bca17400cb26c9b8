package asset

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// UploadsPath is the URL prefix local assets are served under.
const UploadsPath = "/uploads/"

type fileStore struct {
	dir     string
	baseURL string
	logger  zerolog.Logger
}

// NewFileStore creates a store that writes into dir. The directory is
// created if missing.
func NewFileStore(dir, baseURL string, logger zerolog.Logger) (Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create asset directory %s: %w", dir, err)
	}
	return &fileStore{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.With().Str("component", "file-asset-store").Logger(),
	}, nil
}

func (s *fileStore) Put(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	file, err := objectName(name)
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, file)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create asset %s: %w", file, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write asset %s: %w", file, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write asset %s: %w", file, err)
	}

	s.logger.Info().Str("file", file).Msg("asset stored on local disk")
	return s.baseURL + UploadsPath + file, nil
}
