package types

import (
	"context"
	"time"
)

// ObjectStore defines the document operations of the scanning pipeline
type ObjectStore interface {
	// FetchWithVersion returns the latest revision of a document and its version id
	FetchWithVersion(ctx context.Context, bucketName, objectKey string) (*FetchResult, error)

	// Delete removes one revision of a document
	Delete(ctx context.Context, bucketName, objectKey, versionID string) error

	// Move copies a document revision to a new location, then deletes the source.
	// It returns the version id assigned at the destination.
	Move(ctx context.Context, req MoveRequest) (string, error)

	// HealthCheck verifies the bucket is reachable
	HealthCheck(ctx context.Context, bucketName string) error
}

// MetricsCollector defines the metrics collection interface
type MetricsCollector interface {
	RecordOperation(operation string, duration time.Duration, success bool)
	RecordError(operation string, err error)
}
