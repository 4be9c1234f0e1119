package observability

// Attribute keys shared by the client, the provider and the extraction loop.

// Provider call.
const (
	AttrLLMProvider        = "llm.provider"
	AttrLLMModel           = "llm.model"
	AttrLLMEndpoint        = "llm.endpoint"
	AttrLLMResponseID      = "llm.response.id"
	AttrLLMFinishReason    = "llm.finish_reason"
	AttrUseLegacyFunctions = "llm.use_legacy_functions"

	AttrLLMTokensPrompt     = "llm.tokens.prompt"     // #nosec G101 -- token counts, not credentials
	AttrLLMTokensCompletion = "llm.tokens.completion" // #nosec G101
	AttrLLMTokensTotal      = "llm.tokens.total"      // #nosec G101

	AttrRequestMessagesCount = "request.messages_count"
	AttrRequestToolsCount    = "request.tools_count"
	AttrResponseToolCalls    = "response.tool_calls"
)

// Extraction invocation. AttrExtractionAttempt is 1-based and
// AttrExtractionErrorKind is "parse" or "validation".
const (
	AttrExtractionID         = "extraction.id"
	AttrExtractionName       = "extraction.name"
	AttrExtractionAttempt    = "extraction.attempt"
	AttrExtractionAttempts   = "extraction.attempts"
	AttrExtractionMaxRetries = "extraction.max_retries"
	AttrExtractionErrorKind  = "extraction.error_kind"
)

const (
	AttrError    = "error"
	AttrDuration = "duration"
	AttrStatus   = "status"
)

// Span and event names.
const (
	SpanClientSendMessage = "client.send_message"
	SpanExtractionInvoke  = "extraction.invoke"

	// EventExtractionAttemptFailed is added once per retryable failure.
	EventExtractionAttemptFailed = "extraction.attempt.failed"
)

// Metric names. Durations are recorded in seconds.
const (
	MetricClientRequestCount     = "fncall.client.request.count"
	MetricClientRequestDuration  = "fncall.client.request.duration"
	MetricClientTokensTotal      = "fncall.client.tokens.total"
	MetricClientTokensPrompt     = "fncall.client.tokens.prompt"
	MetricClientTokensCompletion = "fncall.client.tokens.completion"

	// MetricExtractionAttempts counts model calls made by extractions,
	// MetricExtractionFailures the retryable failures among them.
	MetricExtractionAttempts = "extraction.attempts"
	MetricExtractionFailures = "extraction.failures"
	MetricExtractionDuration = "extraction.duration"
)
