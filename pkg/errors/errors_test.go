package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

func TestNewError(t *testing.T) {
	t.Parallel()

	t.Run("creates error with all defaults", func(t *testing.T) {
		err := NewError(ErrCodeConfigValidation, "configuration is invalid")
		if err == nil {
			t.Fatal("NewError returned nil")
		}
		if err.Code != ErrCodeConfigValidation {
			t.Errorf("Code = %v, want %v", err.Code, ErrCodeConfigValidation)
		}
		if err.Message != "configuration is invalid" {
			t.Errorf("Message = %q, want %q", err.Message, "configuration is invalid")
		}
		if err.Category != CategoryConfiguration {
			t.Errorf("Category = %v, want %v", err.Category, CategoryConfiguration)
		}
		if err.Context == nil {
			t.Error("Context map is nil")
		}
		if err.Timestamp.IsZero() {
			t.Error("Timestamp not set")
		}
	})

	t.Run("sets correct retryable defaults", func(t *testing.T) {
		if !NewError(ErrCodeOperationTimeout, "timed out").Retryable {
			t.Error("OperationTimeout should be retryable by default")
		}
		if !NewError(ErrCodeStorageRead, "read failed").Retryable {
			t.Error("StorageRead should be retryable by default")
		}
		if NewError(ErrCodeEmptyVersionID, "VersionId is empty").Retryable {
			t.Error("EmptyVersionID should not be retryable by default")
		}
	})

	t.Run("storage codes map to storage category", func(t *testing.T) {
		for _, code := range []ErrorCode{ErrCodeEmptyBody, ErrCodeEmptyVersionID, ErrCodeObjectNotFound, ErrCodeBucketNotFound} {
			if got := GetCategory(code); got != CategoryStorage {
				t.Errorf("GetCategory(%s) = %v, want %v", code, got, CategoryStorage)
			}
		}
	})
}

func TestStoreError_Error(t *testing.T) {
	t.Parallel()

	err := NewError(ErrCodeEmptyBody, "Body is empty").
		WithComponent("s3-service").
		WithOperation("FetchWithVersion")

	if err.Error() != "Body is empty" {
		t.Errorf("Error() = %q, want %q", err.Error(), "Body is empty")
	}
	if err.Component != "s3-service" || err.Operation != "FetchWithVersion" {
		t.Errorf("Component/Operation = %q/%q", err.Component, err.Operation)
	}
}

func TestStoreError_Is(t *testing.T) {
	t.Parallel()

	err := NewError(ErrCodeEmptyVersionID, "VersionId is empty").
		WithContext("bucketName", "quarantine")

	if !errors.Is(err, ErrEmptyVersionID) {
		t.Error("errors.Is(err, ErrEmptyVersionID) = false, want true")
	}
	if errors.Is(err, ErrEmptyBody) {
		t.Error("errors.Is(err, ErrEmptyBody) = true, want false")
	}

	wrapped := fmt.Errorf("move failed: %w", err)
	if !errors.Is(wrapped, ErrEmptyVersionID) {
		t.Error("wrapped error should still match ErrEmptyVersionID")
	}
}

func TestStoreError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	err := NewError(ErrCodeConfigLoad, "failed to read config file").WithCause(cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
	if errors.Unwrap(err) != cause {
		t.Error("Unwrap() did not return the cause")
	}
}

func TestGetRecommendation(t *testing.T) {
	t.Parallel()

	rec := NewError(ErrCodeEmptyVersionID, "VersionId is empty").GetRecommendation()
	if !strings.Contains(rec, "versioning") {
		t.Errorf("GetRecommendation() = %q, expected mention of versioning", rec)
	}

	fallback := NewError(ErrCodeUnknownError, "?").GetRecommendation()
	if fallback == "" {
		t.Error("GetRecommendation() returned empty fallback")
	}
}

func TestRecommendation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"store error", NewError(ErrCodeConfigValidation, "invalid log level: LOUD"), "Configuration validation failed"},
		{"wrapped store error", fmt.Errorf("move: %w", ErrEmptyVersionID), "Enable versioning"},
		{"sdk error", &types.NoSuchBucket{}, "Verify the bucket name"},
		{"unknown", errors.New("boom"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Recommendation(tt.err)
			if tt.want == "" && got != "" {
				t.Errorf("Recommendation() = %q, want empty", got)
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("Recommendation() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"timeout", context.DeadlineExceeded, true},
		{"network", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, true},
		{"stream read", NewError(ErrCodeStorageRead, "failed to read document"), true},
		{"empty version id", ErrEmptyVersionID, false},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, false},
		{"retryable flag cleared", func() error { e := NewError(ErrCodeNetworkError, "x"); e.Retryable = false; return e }(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"nil", nil, ""},
		{"store error", NewError(ErrCodeEmptyBody, "Body is empty"), ErrCodeEmptyBody},
		{"deadline", context.DeadlineExceeded, ErrCodeOperationTimeout},
		{"canceled", fmt.Errorf("op: %w", context.Canceled), ErrCodeOperationCanceled},
		{"no such key", &types.NoSuchKey{}, ErrCodeObjectNotFound},
		{"no such bucket", &types.NoSuchBucket{}, ErrCodeBucketNotFound},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, ErrCodeAccessDenied},
		{"bad signature", &smithy.GenericAPIError{Code: "SignatureDoesNotMatch"}, ErrCodeAuthenticationFailed},
		{"other api error", &smithy.GenericAPIError{Code: "SlowDown"}, ErrCodeOperationFailed},
		{"network", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, ErrCodeNetworkError},
		{"plain", errors.New("boom"), ErrCodeUnknownError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}
