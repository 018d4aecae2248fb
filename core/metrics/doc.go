// Package metrics defines the recorder interfaces fed by the telemetry
// pipeline. Sinks like the Prometheus and InfluxDB implementations in
// infra/metrics record applied readings, message outcomes and display
// commands. NewMetricsSink returns a MultiSink automatically when several
// sinks are configured.
package metrics
