/*
Package s3 provides the document object store of the docscan pipeline on top of an
S3-compatible API.

# Operations

Service exposes three operations:

	FetchWithVersion(ctx, bucket, key)   latest revision plus its version id
	Delete(ctx, bucket, key, versionID)  remove one revision
	Move(ctx, MoveRequest)               copy to destination, then delete the source

Each operation logs its intent before the request, logs success after it, and on
failure logs the error and returns it unchanged. Errors raised by the service
itself are *errors.StoreError values matching errors.ErrEmptyBody or
errors.ErrEmptyVersionID; errors from the SDK are passed through as-is.

# Endpoint Kinds

Some S3-compatible providers (Cloudflare R2) have no object versioning. When the
configured endpoint host ends in NonVersionedHostSuffix the service:

  - accepts a fetch without a version id
  - sends Delete without VersionId
  - copies from "bucket/key" instead of "bucket/key?versionId=..."
  - accepts a copy that returns no version id

Move always forwards the source version id on its delete step.

# Addressing

Path-style addressing is forced when Config.IsTestOrDev is set or an endpoint
is configured. Without an endpoint the client then targets DefaultLocalEndpoint,
a LocalStack container. Otherwise virtual-hosted addressing against the regional
AWS endpoint is used.

# Usage

	svc, err := s3.NewService(ctx, cfg.StorageConfig(), logger,
		s3.WithMetrics(collector))
	if err != nil {
		return err
	}

	doc, err := svc.FetchWithVersion(ctx, "quarantine", "upload/123.pdf")
	if err != nil {
		return err
	}
	defer doc.Close()

	versionID, err := svc.Move(ctx, types.MoveRequest{
		Source:      types.ObjectLocator{BucketName: "quarantine", ObjectKey: "upload/123.pdf", VersionID: doc.VersionID},
		Destination: types.ObjectLocator{BucketName: "clean", ObjectKey: "upload/123.pdf"},
	})

Move is not transactional: a crash between copy and delete leaves the document
in both buckets.
*/
package s3
