// Package ai defines the provider-agnostic chat types used by the extraction
// controller and by the provider implementations. Each provider's conversion
// layer maps these types to its own wire format.
//
// Requests flow through [ChatRequest]; a forced function call is expressed
// with [ChatRequest.Tools] plus a [ToolChoice] naming the tool. Responses are
// returned as [ChatResponse], whose [ChatResponse.Invocation] yields the call
// the model made, whether it came back as a tool call or a legacy function
// call.
package ai
