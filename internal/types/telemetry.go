package types

// Telemetry metric names for Prometheus.
// All components MUST use these constants.
const (
	MetricNamespace = "pokewatch"

	MetricEventsProcessed   = "events_processed_total"
	MetricMalformedPayloads = "malformed_payloads_total"
	MetricEvaluationSeconds = "evaluation_duration_seconds"
	MetricGenerationInfo    = "rule_generation_info"
	MetricCacheGeneration   = "cache_generation"
	MetricBuildInfo         = "build_info"

	// Label keys
	LabelKind       = "kind"
	LabelResult     = "result"
	LabelGeneration = "generation"

	// KindLabelUnsupported replaces webhook types no event kind maps to.
	KindLabelUnsupported = "unsupported"

	// Result label values
	ResultMatched   = "matched"
	ResultRejected  = "rejected"
	ResultDisabled  = "disabled"
	ResultMalformed = "malformed"
)
