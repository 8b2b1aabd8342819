package telemetry

// SLI metric names used for instrumentation.
const (
	// Latency
	MetricAPILatencyP50 = "api.latency.p50"
	MetricAPILatencyP95 = "api.latency.p95"
	MetricAPILatencyP99 = "api.latency.p99"

	// Throughput
	MetricRequestsPerSec = "api.requests_per_second"

	// Collaborator health
	MetricRouteFetchLatency   = "routing.fetch_latency"
	MetricGeocodeLatency      = "geocode.lookup_latency"
	MetricHazardUploadLatency = "hazard.upload_latency"

	// Availability
	MetricUptime = "service.uptime_percentage"

	// Business
	MetricRoutesPlanned    = "business.routes_planned"
	MetricHazardsSubmitted = "business.hazards_submitted"
)
