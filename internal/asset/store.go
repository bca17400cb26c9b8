// Package asset stores uploaded book cover images and hands back the URL
// they are served from.
package asset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"bookstore/internal/config"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Store persists a file and returns a stable URL for it.
type Store interface {
	Put(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}

// ErrUnsupportedType is returned for files that are not web images.
var ErrUnsupportedType = errors.New("unsupported asset type")

var allowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// objectName derives a collision-free file name that keeps the upload's
// extension.
func objectName(name string) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if _, ok := allowedExtensions[ext]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}
	return uuid.NewString() + ext, nil
}

func contentTypeFor(name, given string) string {
	if given != "" && given != "application/octet-stream" {
		return given
	}
	return allowedExtensions[strings.ToLower(filepath.Ext(name))]
}

// NewStore builds the store chain from configuration: S3 first when enabled,
// local disk otherwise or on S3 failure.
func NewStore(ctx context.Context, cfg config.AssetConfig, logger zerolog.Logger) (Store, error) {
	local, err := NewFileStore(cfg.LocalDir, cfg.LocalBaseURL, logger)
	if err != nil {
		return nil, err
	}
	if !cfg.S3Enabled {
		return local, nil
	}

	remote, err := NewS3Store(ctx, cfg, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("S3 asset store unavailable, using local disk only")
		return local, nil
	}
	return NewFallbackStore(remote, local, logger), nil
}
