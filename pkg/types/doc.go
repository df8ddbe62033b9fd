/*
Package types provides the core interfaces and data structures shared by docscan components.

ObjectLocator names a bucket, key and optional version id. MoveRequest pairs a
source locator (whose version id is pinned on versioned endpoints) with a
destination. FetchResult carries the body of the latest revision and the
version id reported by the store; on endpoints without object versioning the
version id may be empty.

ObjectStore is implemented by internal/storage/s3.Service. MetricsCollector
is implemented by internal/metrics.Collector.
*/
package types
