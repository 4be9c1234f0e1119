// Package cost prices model token usage.
//
// [ModelCost] holds per-million-token rates for a model and [ModelCost.Summary]
// turns an [ai.Usage] total into a [Summary] broken down by token kind. A
// validated extraction can take several calls when the model needs
// correcting, so the summary is computed over the whole run rather than a
// single response.
package cost
