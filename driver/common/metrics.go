package common

import (
	"fmt"
	"io"

	"github.com/VictoriaMetrics/metrics"
)

// --------------------------------------------------------------------------
// Driver metrics
// --------------------------------------------------------------------------

// Counter names. All counters carry a host="..." label.
const (
	metricRequests      = "velostream_requests_total"
	metricRequestErrors = "velostream_request_errors_total"
	metricConnects      = "velostream_connects_total"
	metricResets        = "velostream_connection_resets_total"
	metricBytesOut      = "velostream_bytes_written_total"
	metricBytesIn       = "velostream_bytes_read_total"
)

func hostCounter(name string, host HostDescription) *metrics.Counter {
	return metrics.GetOrCreateCounter(fmt.Sprintf("%s{host=%q}", name, host.String()))
}

// CountRequest increments the per-host request counter
func CountRequest(host HostDescription) {
	hostCounter(metricRequests, host).Inc()
}

// CountRequestError increments the per-host request error counter
func CountRequestError(host HostDescription) {
	hostCounter(metricRequestErrors, host).Inc()
}

// CountConnect increments the per-host connect counter
func CountConnect(host HostDescription) {
	hostCounter(metricConnects, host).Inc()
}

// CountReset increments the per-host connection reset counter
func CountReset(host HostDescription) {
	hostCounter(metricResets, host).Inc()
}

// CountBytesWritten adds n to the per-host outgoing byte counter
func CountBytesWritten(host HostDescription, n int) {
	hostCounter(metricBytesOut, host).Add(n)
}

// CountBytesRead adds n to the per-host incoming byte counter
func CountBytesRead(host HostDescription, n int) {
	hostCounter(metricBytesIn, host).Add(n)
}

// WriteMetrics writes all driver metrics in Prometheus text exposition
// format to w
func WriteMetrics(w io.Writer) {
	metrics.WritePrometheus(w, false)
}
