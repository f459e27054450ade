// Package storage uploads call recordings to S3.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/jsamuelsen/qc-audit-service/internal/platform/config"
	"github.com/jsamuelsen/qc-audit-service/internal/ports"
)

// defaultContentType is used for extensions missing from contentTypes.
const defaultContentType = "audio/mpeg"

var contentTypes = map[string]string{
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"ogg":  "audio/ogg",
	"flac": "audio/flac",
	"m4a":  "audio/mp4",
	"aac":  "audio/aac",
	"wma":  "audio/x-ms-wma",
}

// putObjectAPI is the part of the S3 client the uploader needs.
type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Storage implements ports.AudioStorage on an S3 bucket.
type S3Storage struct {
	client putObjectAPI
	bucket string
	region string
	logger *slog.Logger
}

var _ ports.AudioStorage = (*S3Storage)(nil)

// NewS3Storage builds the S3 client. Static credentials are used when both
// keys are configured; otherwise the default AWS credential chain applies.
func NewS3Storage(ctx context.Context, cfg *config.S3Config, logger *slog.Logger) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return newS3Storage(client, cfg.Bucket, cfg.Region, logger), nil
}

func newS3Storage(client putObjectAPI, bucket, region string, logger *slog.Logger) *S3Storage {
	return &S3Storage{client: client, bucket: bucket, region: region, logger: logger}
}

// Upload stores the file at localPath under key and returns its public URL.
func (s *S3Storage) Upload(ctx context.Context, localPath, key string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("opening recording: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("reading recording size: %w", err)
	}

	contentType := ContentType(key)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("uploading %s to bucket %s: %w", key, s.bucket, err)
	}

	s.logger.InfoContext(ctx, "recording uploaded",
		slog.String("key", key),
		slog.String("content_type", contentType),
		slog.Int64("size_bytes", info.Size()),
	)

	return s.ObjectURL(key), nil
}

// ObjectURL is the virtual-hosted URL of key in the bucket.
func (s *S3Storage) ObjectURL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

// ContentType picks the audio MIME type from the file extension.
func ContentType(name string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}

	return defaultContentType
}
