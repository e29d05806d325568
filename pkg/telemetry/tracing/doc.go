// Package tracing provides OpenTelemetry tracing for archival runs.
//
// New installs an OTLP gRPC exporter as the global tracer provider. Packages
// start spans through Start, which uses the global provider, so they record
// nothing until tracing is enabled:
//
//	tracer, err := tracing.New(ctx, tracing.Config{
//		Enabled:     true,
//		Endpoint:    "localhost:4317",
//		Insecure:    true,
//		ServiceName: "archivist",
//	})
//	if err != nil {
//		return err
//	}
//	defer tracer.Shutdown(context.Background())
//
// A run produces an "archive.run" span with one "archive.move" child per
// applied move. Runs triggered over HTTP continue the caller's trace when the
// request carries a traceparent header.
package tracing
