package types

import (
	"io"
)

// ObjectLocator identifies one revision of a stored document
type ObjectLocator struct {
	BucketName string `json:"bucketName" yaml:"bucket_name"`
	ObjectKey  string `json:"objectKey" yaml:"object_key"`
	VersionID  string `json:"versionId,omitempty" yaml:"version_id"`
}

// MoveRequest describes a copy-then-delete of a document revision.
// Source.VersionID is required on versioned endpoints; Destination.VersionID
// is ignored.
type MoveRequest struct {
	Source      ObjectLocator `json:"source"`
	Destination ObjectLocator `json:"destination"`
}

// FetchResult is the latest revision of a document. The caller owns Body
// and must close it.
type FetchResult struct {
	Body      io.ReadCloser
	VersionID string
}

// Close releases the underlying body
func (r *FetchResult) Close() error {
	if r == nil || r.Body == nil {
		return nil
	}
	return r.Body.Close()
}
