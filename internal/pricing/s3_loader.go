package pricing

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// s3Loader implements Loader for a rules document stored in AWS S3.
type s3Loader struct {
	client *s3.Client
	bucket string
	key    string
	logger zerolog.Logger
}

// NewS3Loader creates a new S3-based rules loader.
func NewS3Loader(ctx context.Context, bucket, region, key string, logger zerolog.Logger) (Loader, error) {
	logger = logger.With().Str("component", "s3-rules-loader").Logger()

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := s3.NewFromConfig(cfg)

	logger.Info().
		Str("bucket", bucket).
		Str("region", region).
		Str("key", key).
		Msg("S3 rules loader initialised")

	return &s3Loader{
		client: client,
		bucket: bucket,
		key:    key,
		logger: logger,
	}, nil
}

// Load reads the rules document from S3 and returns the parsed rules.
func (l *s3Loader) Load(ctx context.Context) (*Rules, error) {
	l.logger.Info().
		Str("bucket", l.bucket).
		Str("key", l.key).
		Msg("loading pricing rules from S3")

	result, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(l.key),
	})
	if err != nil {
		l.logger.Error().
			Err(err).
			Str("bucket", l.bucket).
			Str("key", l.key).
			Msg("failed to get rules object from S3")
		return nil, fmt.Errorf("failed to get rules object from S3 (bucket=%s, key=%s): %w", l.bucket, l.key, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		l.logger.Error().
			Err(err).
			Str("bucket", l.bucket).
			Str("key", l.key).
			Msg("failed to read rules object body")
		return nil, fmt.Errorf("failed to read rules object %s: %w", l.key, err)
	}

	rules, err := parseRules(data)
	if err != nil {
		l.logger.Error().
			Err(err).
			Str("bucket", l.bucket).
			Str("key", l.key).
			Msg("invalid rules document")
		return nil, fmt.Errorf("invalid rules document %s: %w", l.key, err)
	}

	l.logger.Info().
		Str("bucket", l.bucket).
		Str("key", l.key).
		Str("currency", rules.Currency).
		Msg("pricing rules loaded from S3 successfully")

	return rules, nil
}
