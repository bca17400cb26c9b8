package asset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

type fallbackStore struct {
	primary   Store
	secondary Store
	logger    zerolog.Logger
}

// NewFallbackStore tries primary first and writes to secondary when it
// fails. Rejected file types are not retried.
func NewFallbackStore(primary, secondary Store, logger zerolog.Logger) Store {
	return &fallbackStore{
		primary:   primary,
		secondary: secondary,
		logger:    logger.With().Str("component", "fallback-asset-store").Logger(),
	}
}

func (s *fallbackStore) Put(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	// The body may be read twice.
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read asset %s: %w", name, err)
	}

	url, err := s.primary.Put(ctx, name, contentType, bytes.NewReader(data))
	if err == nil {
		return url, nil
	}
	if errors.Is(err, ErrUnsupportedType) {
		return "", err
	}

	s.logger.Warn().Err(err).Str("name", name).Msg("primary asset store failed, falling back")
	return s.secondary.Put(ctx, name, contentType, bytes.NewReader(data))
}
