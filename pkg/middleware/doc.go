// Package middleware provides applier decorators for production hosts.
//
// This package includes:
//   - Prometheus metrics for every applier operation
//   - OpenTelemetry tracing with one span per operation
//
// Both decorators implement applier.Applier and forward to the wrapped
// applier, so they can be stacked:
//
//	a := middleware.Trace(ctx,
//	    middleware.Instrument(applier.New(root),
//	        middleware.WithNamespace("myapp"),
//	    ),
//	)
//
// # Prometheus Metrics
//
// Metrics collected (namespace "treepatch" by default):
//   - ops_total{op,status}: operations applied, status "ok" or "error"
//   - op_errors_total{op,code}: failed operations by error code
//   - op_duration_seconds{op}: operation latency
//   - nodes_moved_total: children relocated by move
//   - nodes_removed_total: children detached by remove and clear
//   - cursor_depth: outstanding Down calls after the last operation
//
// Expose them with promhttp:
//
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
//
// # OpenTelemetry
//
// Trace uses the global tracer provider unless WithTracerProvider is given.
// Configure the provider in main() before building appliers.
package middleware
