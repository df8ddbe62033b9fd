// Package errors provides a structured error system for docscan with error codes, categories, and context.
package errors

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// ErrorCode represents a structured error code for docscan operations.
type ErrorCode string

// Error code constants organized by category.
const (
	// Configuration Errors
	ErrCodeConfigValidation ErrorCode = "CONFIG_VALIDATION"
	ErrCodeConfigLoad       ErrorCode = "CONFIG_LOAD"

	// Connection Errors
	ErrCodeNetworkError ErrorCode = "NETWORK_ERROR"

	// Storage Backend Errors
	ErrCodeObjectNotFound ErrorCode = "OBJECT_NOT_FOUND"
	ErrCodeBucketNotFound ErrorCode = "BUCKET_NOT_FOUND"
	ErrCodeEmptyBody      ErrorCode = "OBJECT_EMPTY_BODY"
	ErrCodeEmptyVersionID ErrorCode = "OBJECT_EMPTY_VERSION_ID"
	ErrCodeAccessDenied   ErrorCode = "ACCESS_DENIED"
	ErrCodeStorageRead    ErrorCode = "STORAGE_READ"

	// Operation Errors
	ErrCodeOperationTimeout  ErrorCode = "OPERATION_TIMEOUT"
	ErrCodeOperationCanceled ErrorCode = "OPERATION_CANCELED"
	ErrCodeOperationFailed   ErrorCode = "OPERATION_FAILED"

	// Authentication Errors
	ErrCodeAuthenticationFailed ErrorCode = "AUTHENTICATION_FAILED"
	ErrCodeCredentialsMissing   ErrorCode = "CREDENTIALS_MISSING"

	// Unclassified
	ErrCodeUnknownError ErrorCode = "UNKNOWN_ERROR"
)

// ErrorCategory represents the general category of an error.
type ErrorCategory string

const (
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryConnection    ErrorCategory = "connection"
	CategoryStorage       ErrorCategory = "storage"
	CategoryOperation     ErrorCategory = "operation"
	CategoryAuth          ErrorCategory = "auth"
	CategoryInternal      ErrorCategory = "internal"
)

// Sentinels for errors.Is. Matching is by code, so a StoreError carrying
// extra context still matches.
var (
	ErrEmptyBody      = NewError(ErrCodeEmptyBody, "Body is empty")
	ErrEmptyVersionID = NewError(ErrCodeEmptyVersionID, "VersionId is empty")
)

// StoreError represents a structured error with context and metadata.
type StoreError struct {
	Code     ErrorCode     `json:"code"`
	Category ErrorCategory `json:"category"`
	Message  string        `json:"message"`

	Context   map[string]string `json:"context,omitempty"`
	Cause     error             `json:"-"`
	Timestamp time.Time         `json:"timestamp"`

	Component string `json:"component"`
	Operation string `json:"operation,omitempty"`

	Retryable bool `json:"retryable"`
}

// Error implements the error interface. Only the message is returned so
// that callers matching on text see the same string the logs carry.
func (e *StoreError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause error for error wrapping compatibility.
func (e *StoreError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error (for errors.Is compatibility).
func (e *StoreError) Is(target error) bool {
	if storeErr, ok := target.(*StoreError); ok {
		return e.Code == storeErr.Code
	}
	return false
}

// NewError creates a new error with default values.
func NewError(code ErrorCode, message string) *StoreError {
	return &StoreError{
		Code:      code,
		Category:  GetCategory(code),
		Message:   message,
		Timestamp: time.Now(),
		Context:   make(map[string]string),
		Retryable: IsRetryableByDefault(code),
	}
}

// GetCategory determines the category based on the error code.
func GetCategory(code ErrorCode) ErrorCategory {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "CONFIG_"):
		return CategoryConfiguration
	case strings.HasPrefix(codeStr, "NETWORK_"):
		return CategoryConnection
	case strings.HasPrefix(codeStr, "OBJECT_") || strings.HasPrefix(codeStr, "BUCKET_") ||
		strings.HasPrefix(codeStr, "STORAGE_") || strings.HasPrefix(codeStr, "ACCESS_"):
		return CategoryStorage
	case strings.HasPrefix(codeStr, "OPERATION_"):
		return CategoryOperation
	case strings.HasPrefix(codeStr, "AUTHENTICATION_") || strings.HasPrefix(codeStr, "CREDENTIALS_"):
		return CategoryAuth
	default:
		return CategoryInternal
	}
}

// IsRetryableByDefault determines if an error is retryable by default.
func IsRetryableByDefault(code ErrorCode) bool {
	retryableCodes := map[ErrorCode]bool{
		ErrCodeNetworkError:     true,
		ErrCodeOperationTimeout: true,
		ErrCodeStorageRead:      true,
	}
	return retryableCodes[code]
}

// IsRetryable reports whether err is worth retrying as is
func IsRetryable(err error) bool {
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return storeErr.Retryable
	}
	return IsRetryableByDefault(Classify(err))
}

// WithContext adds contextual information to an error
func (e *StoreError) WithContext(key, value string) *StoreError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// WithComponent sets the component for an error
func (e *StoreError) WithComponent(component string) *StoreError {
	e.Component = component
	return e
}

// WithOperation sets the operation for an error
func (e *StoreError) WithOperation(operation string) *StoreError {
	e.Operation = operation
	return e
}

// WithCause sets the underlying cause
func (e *StoreError) WithCause(cause error) *StoreError {
	e.Cause = cause
	return e
}

var recommendations = map[ErrorCode]string{
	ErrCodeObjectNotFound: "The requested document does not exist in the bucket. " +
		"Verify the object key and bucket name.",
	ErrCodeBucketNotFound: "The specified bucket does not exist or is not accessible. " +
		"Verify the bucket name, region and endpoint.",
	ErrCodeEmptyBody: "The stored document has no content. " +
		"Check the upload that produced it.",
	ErrCodeEmptyVersionID: "The bucket did not return a version id. " +
		"Enable versioning on the bucket, or configure a non-versioned endpoint.",
	ErrCodeAccessDenied: "Credentials lack necessary permissions. " +
		"Check the policy grants s3:GetObject, s3:GetObjectVersion, s3:PutObject and s3:DeleteObjectVersion.",
	ErrCodeAuthenticationFailed: "The store rejected the credentials. " +
		"Check the access key, secret and session token.",
	ErrCodeCredentialsMissing: "Storage credentials are incomplete. " +
		"Set both access_key_id and secret_access_key, or neither to use the default credential chain.",
	ErrCodeNetworkError: "The storage endpoint could not be reached. " +
		"Check the endpoint address and network connectivity.",
	ErrCodeStorageRead: "The document stream was interrupted. " +
		"Retry the fetch.",
	ErrCodeOperationTimeout: "Operation took too long to complete. " +
		"Check endpoint reachability or extend the request deadline.",
	ErrCodeConfigValidation: "Configuration validation failed. " +
		"Check the configuration file and environment variables.",
	ErrCodeConfigLoad: "The configuration file could not be read. " +
		"Check the path and YAML syntax.",
}

// GetRecommendation returns a user-friendly recommendation for fixing the error
func (e *StoreError) GetRecommendation() string {
	if rec, exists := recommendations[e.Code]; exists {
		return rec
	}
	return "Please check the error message for details."
}

// Recommendation returns the fix suggested for err, or "" when its code
// has none.
func Recommendation(err error) string {
	return recommendations[Classify(err)]
}

// Classify maps an error returned by the storage client to an ErrorCode.
// It never alters err; it is meant for metric labels and log enrichment.
func Classify(err error) ErrorCode {
	if err == nil {
		return ""
	}

	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return storeErr.Code
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ErrCodeOperationTimeout
	case errors.Is(err, context.Canceled):
		return ErrCodeOperationCanceled
	case isErrorType[*types.NoSuchKey](err):
		return ErrCodeObjectNotFound
	case isErrorType[*types.NoSuchBucket](err):
		return ErrCodeBucketNotFound
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchVersion":
			return ErrCodeObjectNotFound
		case "NoSuchBucket":
			return ErrCodeBucketNotFound
		case "AccessDenied", "Forbidden":
			return ErrCodeAccessDenied
		case "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken":
			return ErrCodeAuthenticationFailed
		}
		return ErrCodeOperationFailed
	}

	var canceledErr *smithy.CanceledError
	if errors.As(err, &canceledErr) {
		return ErrCodeOperationCanceled
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrCodeOperationTimeout
		}
		return ErrCodeNetworkError
	}

	return ErrCodeUnknownError
}

func isErrorType[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}
