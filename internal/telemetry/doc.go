// Package telemetry wraps OpenTelemetry SDK initialization: OTLP gRPC
// exporters for traces and metrics behind one Init call. When telemetry
// is disabled the global providers stay noop and nothing connects to an
// external service, so a telemetry failure never blocks the request
// path.
package telemetry
