package s3

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/docscan/docscan/pkg/errors"
	"github.com/docscan/docscan/pkg/types"
)

const component = "s3-service"

// Operation names used for metrics and error context
const (
	OpFetchWithVersion = "FetchWithVersion"
	OpDelete           = "Delete"
	OpMove             = "Move"
)

// ObjectAPI is the subset of *s3.Client used by Service
type ObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// Service fetches, deletes and moves documents in an S3-compatible store.
// It is safe for concurrent use.
type Service struct {
	client       ObjectAPI
	config       *Config
	nonVersioned bool
	logger       *slog.Logger
	metrics      types.MetricsCollector
}

var _ types.ObjectStore = (*Service)(nil)

// Option configures a Service
type Option func(*Service)

// WithMetrics records every operation on m
func WithMetrics(m types.MetricsCollector) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService creates a Service backed by a new S3 client built from cfg
func NewService(ctx context.Context, cfg *Config, logger *slog.Logger, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}

	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return NewServiceWithClient(cfg, client, logger, opts...), nil
}

// NewServiceWithClient creates a Service around an existing client
func NewServiceWithClient(cfg *Config, client ObjectAPI, logger *slog.Logger, opts ...Option) *Service {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		client:       client,
		config:       cfg,
		nonVersioned: cfg.IsNonVersioned(),
		logger:       logger.With("component", component),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.nonVersioned {
		s.logger.Debug("Endpoint does not support object versioning", "endpoint", cfg.Endpoint)
	}

	return s
}

// IsNonVersioned reports whether version ids are omitted from requests and
// tolerated as empty in responses.
func (s *Service) IsNonVersioned() bool {
	return s.nonVersioned
}

// FetchWithVersion returns the latest revision of a document and its
// version id. The caller must close the returned body.
func (s *Service) FetchWithVersion(ctx context.Context, bucketName, objectKey string) (*types.FetchResult, error) {
	start := time.Now()
	s.logger.InfoContext(ctx, "Getting document from s3",
		"bucketName", bucketName,
		"objectKey", objectKey)

	result, err := s.fetch(ctx, bucketName, objectKey)
	s.record(OpFetchWithVersion, start, err)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to get object from s3",
			"bucketName", bucketName,
			"objectKey", objectKey,
			"error", err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "Retrieved document from s3",
		"bucketName", bucketName,
		"objectKey", objectKey)

	return result, nil
}

func (s *Service) fetch(ctx context.Context, bucketName, objectKey string) (*types.FetchResult, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucketName),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return nil, err
	}

	if out.Body == nil || (out.ContentLength != nil && *out.ContentLength == 0) {
		closeBody(out.Body)
		return nil, newStoreError(errors.ErrCodeEmptyBody, "Body is empty", OpFetchWithVersion).
			WithContext("bucketName", bucketName).
			WithContext("objectKey", objectKey)
	}

	versionID := aws.ToString(out.VersionId)
	if versionID == "" && !s.nonVersioned {
		closeBody(out.Body)
		return nil, newStoreError(errors.ErrCodeEmptyVersionID, "VersionId is empty", OpFetchWithVersion).
			WithContext("bucketName", bucketName).
			WithContext("objectKey", objectKey)
	}

	return &types.FetchResult{Body: out.Body, VersionID: versionID}, nil
}

// Delete removes one revision of a document. On non-versioned endpoints the
// version id is left out of the request.
func (s *Service) Delete(ctx context.Context, bucketName, objectKey, versionID string) error {
	start := time.Now()
	s.logger.InfoContext(ctx, "Deleting document from s3",
		"bucketName", bucketName,
		"objectKey", objectKey,
		"versionId", versionID)

	input := &s3.DeleteObjectInput{
		Bucket: aws.String(bucketName),
		Key:    aws.String(objectKey),
	}
	if !s.nonVersioned {
		input.VersionId = aws.String(versionID)
	}

	_, err := s.client.DeleteObject(ctx, input)
	s.record(OpDelete, start, err)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete object from s3",
			"bucketName", bucketName,
			"objectKey", objectKey,
			"error", err)
		return err
	}

	s.logger.InfoContext(ctx, "Deleted document from s3",
		"bucketName", bucketName,
		"objectKey", objectKey)

	return nil
}

// moveState is threaded through the steps of a move
type moveState struct {
	req                  types.MoveRequest
	fields               []any
	destinationVersionID string
}

type moveStep func(ctx context.Context, st *moveState) error

// Move copies req.Source to req.Destination and then deletes the source
// revision. It returns the version id of the new destination object, which
// is empty on non-versioned endpoints. A copy that reports no version id on a
// versioned endpoint aborts the move before the source is touched.
func (s *Service) Move(ctx context.Context, req types.MoveRequest) (string, error) {
	start := time.Now()
	st := &moveState{
		req: req,
		fields: []any{
			"sourceBucketName", req.Source.BucketName,
			"sourceObjectKey", req.Source.ObjectKey,
			"sourceObjectVersionId", req.Source.VersionID,
			"destinationBucketName", req.Destination.BucketName,
			"destinationObjectKey", req.Destination.ObjectKey,
		},
	}

	s.logger.InfoContext(ctx, "Moving document in s3", st.fields...)

	err := s.runMove(ctx, st, s.copySource, s.verifyCopy, s.deleteSource)
	s.record(OpMove, start, err)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to move object in s3", withAttrs(st.fields, "error", err)...)
		return "", err
	}

	s.logger.InfoContext(ctx, "Moved document in s3",
		withAttrs(st.fields, "destinationVersionId", st.destinationVersionID)...)

	return st.destinationVersionID, nil
}

func (s *Service) runMove(ctx context.Context, st *moveState, steps ...moveStep) error {
	for _, step := range steps {
		if err := step(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) copySource(ctx context.Context, st *moveState) error {
	out, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(st.req.Destination.BucketName),
		Key:        aws.String(st.req.Destination.ObjectKey),
		CopySource: aws.String(s.CopySourceFor(st.req.Source)),
	})
	if err != nil {
		return err
	}

	st.destinationVersionID = aws.ToString(out.VersionId)
	return nil
}

func (s *Service) verifyCopy(ctx context.Context, st *moveState) error {
	if st.destinationVersionID != "" || s.nonVersioned {
		return nil
	}

	s.logger.ErrorContext(ctx, "VersionId is empty after copying object in s3", st.fields...)

	return newStoreError(errors.ErrCodeEmptyVersionID, "VersionId is empty", OpMove).
		WithContext("sourceBucketName", st.req.Source.BucketName).
		WithContext("sourceObjectKey", st.req.Source.ObjectKey).
		WithContext("destinationBucketName", st.req.Destination.BucketName).
		WithContext("destinationObjectKey", st.req.Destination.ObjectKey)
}

// deleteSource forwards the caller's source version id regardless of the
// endpoint kind, unlike Delete.
func (s *Service) deleteSource(ctx context.Context, st *moveState) error {
	input := &s3.DeleteObjectInput{
		Bucket: aws.String(st.req.Source.BucketName),
		Key:    aws.String(st.req.Source.ObjectKey),
	}
	if st.req.Source.VersionID != "" {
		input.VersionId = aws.String(st.req.Source.VersionID)
	}

	_, err := s.client.DeleteObject(ctx, input)
	return err
}

// CopySourceFor builds the CopySource value for src: "bucket/key", pinned to
// src.VersionID with "?versionId=" unless the endpoint is non-versioned.
// Key segments are URL-escaped; slashes are kept.
func (s *Service) CopySourceFor(src types.ObjectLocator) string {
	copySource := src.BucketName + "/" + escapeKey(src.ObjectKey)
	if s.nonVersioned {
		return copySource
	}
	return copySource + "?versionId=" + url.QueryEscape(src.VersionID)
}

// HealthCheck verifies the bucket is reachable
func (s *Service) HealthCheck(ctx context.Context, bucketName string) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(bucketName),
	})
	if err != nil {
		return fmt.Errorf("S3 health check failed: %w", err)
	}
	return nil
}

func (s *Service) record(operation string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordOperation(operation, time.Since(start), err == nil)
	if err != nil {
		s.metrics.RecordError(operation, err)
	}
}

func newStoreError(code errors.ErrorCode, message, operation string) *errors.StoreError {
	return errors.NewError(code, message).
		WithComponent(component).
		WithOperation(operation)
}

func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		// PathEscape keeps '+', which some stores decode as a space.
		segments[i] = strings.ReplaceAll(url.PathEscape(seg), "+", "%2B")
	}
	return strings.Join(segments, "/")
}

func withAttrs(fields []any, args ...any) []any {
	out := make([]any, 0, len(fields)+len(args))
	out = append(out, fields...)
	return append(out, args...)
}

func closeBody(body io.ReadCloser) {
	if body != nil {
		_ = body.Close()
	}
}
