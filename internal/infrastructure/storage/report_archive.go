// Package storage archives fetched marketplace reports in object storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appsync "github.com/erp/amazon-connector/internal/application/sync"
	"github.com/erp/amazon-connector/internal/infrastructure/config"
)

var ErrBucketRequired = errors.New("storage: report bucket is required")

// objectPutter is the subset of the S3 API the archive uses.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3ReportArchive stores report payloads in an S3-compatible bucket so
// imports can be audited and replayed. Keys are laid out as
// reports/<backend>/<report type>/<timestamp>-<id>.tsv.
type S3ReportArchive struct {
	client objectPutter
	bucket string
	logger *zap.Logger
}

// NewS3ReportArchive builds an archive from the AWS configuration.
// Credentials come from the default provider chain; EndpointURL overrides
// the endpoint for MinIO or localstack in development.
func NewS3ReportArchive(ctx context.Context, cfg *config.AWSConfig, logger *zap.Logger) (*S3ReportArchive, error) {
	if cfg.ReportBucket == "" {
		return nil, ErrBucketRequired
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			o.UsePathStyle = true
		}
	})

	return &S3ReportArchive{
		client: client,
		bucket: cfg.ReportBucket,
		logger: logger,
	}, nil
}

// Store uploads a report payload and returns its object key.
func (a *S3ReportArchive) Store(ctx context.Context, backendID, reportType string, payload []byte) (string, error) {
	key := fmt.Sprintf("reports/%s/%s/%s-%s.tsv",
		backendID, reportType, time.Now().UTC().Format("20060102T150405"), uuid.NewString())

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("text/tab-separated-values"),
	})
	if err != nil {
		return "", fmt.Errorf("archive report: %w", err)
	}

	a.logger.Debug("report archived",
		zap.String("key", key),
		zap.Int("bytes", len(payload)))
	return key, nil
}

// NoopArchive discards payloads. Used when no report bucket is configured.
type NoopArchive struct{}

// Store implements the archive port without persisting anything.
func (NoopArchive) Store(ctx context.Context, backendID, reportType string, payload []byte) (string, error) {
	return "", nil
}

var (
	_ appsync.ReportArchive = (*S3ReportArchive)(nil)
	_ appsync.ReportArchive = NoopArchive{}
)
