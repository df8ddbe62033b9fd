package types

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

// TestInterfaces verifies that our interfaces are properly structured
func TestInterfaces(t *testing.T) {
	var (
		_ ObjectStore      = (*mockObjectStore)(nil)
		_ MetricsCollector = (*mockMetricsCollector)(nil)
	)
}

type mockObjectStore struct{}

func (m *mockObjectStore) FetchWithVersion(ctx context.Context, bucketName, objectKey string) (*FetchResult, error) {
	return nil, nil
}

func (m *mockObjectStore) Delete(ctx context.Context, bucketName, objectKey, versionID string) error {
	return nil
}

func (m *mockObjectStore) Move(ctx context.Context, req MoveRequest) (string, error) {
	return "", nil
}

func (m *mockObjectStore) HealthCheck(ctx context.Context, bucketName string) error {
	return nil
}

type mockMetricsCollector struct{}

func (m *mockMetricsCollector) RecordOperation(operation string, duration time.Duration, success bool) {
}

func (m *mockMetricsCollector) RecordError(operation string, err error) {}

type closeTracker struct {
	io.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func TestFetchResult_Close(t *testing.T) {
	t.Run("closes body", func(t *testing.T) {
		body := &closeTracker{Reader: strings.NewReader("data")}
		r := &FetchResult{Body: body, VersionID: "v1"}
		if err := r.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
		if !body.closed {
			t.Error("body was not closed")
		}
	})

	t.Run("nil result and nil body are safe", func(t *testing.T) {
		var r *FetchResult
		if err := r.Close(); err != nil {
			t.Errorf("nil Close() error = %v", err)
		}
		if err := (&FetchResult{}).Close(); err != nil {
			t.Errorf("empty Close() error = %v", err)
		}
	})

	t.Run("propagates close error", func(t *testing.T) {
		want := errors.New("close failed")
		r := &FetchResult{Body: errCloser{want}}
		if err := r.Close(); !errors.Is(err, want) {
			t.Errorf("Close() error = %v, want %v", err, want)
		}
	})
}

type errCloser struct{ err error }

func (e errCloser) Read(p []byte) (int, error) { return 0, io.EOF }
func (e errCloser) Close() error               { return e.err }
