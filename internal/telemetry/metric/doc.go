// Package metric provides Prometheus metrics for rollcall.
//
//   - prometheus.go: the registry, operation counters and the /metrics handler
//   - collector.go: record-count gauges read from storage at scrape time
//
// Metrics are exposed at /metrics in Prometheus text format.
package metric
