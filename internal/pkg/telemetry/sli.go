package telemetry

// SLI metric names used for instrumentation.
const (
	// Latency
	MetricAPILatencyP50 = "api.latency.p50"
	MetricAPILatencyP95 = "api.latency.p95"
	MetricAPILatencyP99 = "api.latency.p99"

	// Throughput
	MetricRequestsPerSec = "api.requests_per_second"

	// Upstream model
	MetricModelLatency   = "upstream.model_latency"
	MetricModelErrorRate = "upstream.model_error_rate"

	// Availability
	MetricUptime = "service.uptime_percentage"

	// Business
	MetricAssessments  = "business.assessments_completed"
	MetricWatchpoints  = "business.watchpoints_active"
	MetricReassessRuns = "business.reassess_runs"
)
