/*
Package metrics exports object store activity as Prometheus metrics.

Collector implements types.MetricsCollector, so it can be handed straight to
the storage service:

	collector, err := metrics.NewCollector(&metrics.Config{
		Enabled:   true,
		Port:      9090,
		Path:      "/metrics",
		Namespace: "docscan",
	}, logger)
	if err != nil {
		return err
	}
	svc, err := s3.NewService(ctx, cfg, logger, s3.WithMetrics(collector))

# Exported series

	<ns>_<sub>_operations_total{operation,status}
	<ns>_<sub>_operation_duration_seconds{operation}
	<ns>_<sub>_errors_total{operation,code}

The code label is the errors.Classify result for the failure, for example
OBJECT_NOT_FOUND, OBJECT_EMPTY_VERSION_ID or ACCESS_DENIED.

# HTTP endpoints

Start serves the registry on Config.Path together with /health and
/debug/operations, a JSON dump of the per-operation counters kept in
memory. Stop shuts the server down.

A collector built with Enabled false accepts every call and records
nothing.
*/
package metrics
