package asset

import (
	"context"
	"fmt"
	"io"
	"strings"

	"bookstore/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// objectPutter is the subset of *s3.Client the store needs.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type s3Store struct {
	client        objectPutter
	bucket        string
	prefix        string
	publicBaseURL string
	logger        zerolog.Logger
}

// NewS3Store creates an S3-backed store using the default AWS credential
// chain.
func NewS3Store(ctx context.Context, cfg config.AssetConfig, logger zerolog.Logger) (Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	publicBase := cfg.S3PublicBaseURL
	if publicBase == "" {
		publicBase = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.S3Region)
	}

	logger.Info().
		Str("bucket", cfg.S3Bucket).
		Str("region", cfg.S3Region).
		Msg("S3 asset store initialised")

	return newS3Store(s3.NewFromConfig(awsCfg), cfg.S3Bucket, cfg.S3Prefix, publicBase, logger), nil
}

func newS3Store(client objectPutter, bucket, prefix, publicBaseURL string, logger zerolog.Logger) *s3Store {
	return &s3Store{
		client:        client,
		bucket:        bucket,
		prefix:        prefix,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:        logger.With().Str("component", "s3-asset-store").Logger(),
	}
}

func (s *s3Store) Put(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	file, err := objectName(name)
	if err != nil {
		return "", err
	}
	key := s.prefix + file

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentTypeFor(name, contentType)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object to S3 (bucket=%s, key=%s): %w", s.bucket, key, err)
	}

	s.logger.Info().Str("bucket", s.bucket).Str("key", key).Msg("asset stored in S3")
	return s.publicBaseURL + "/" + key, nil
}
