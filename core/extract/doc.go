// Package extract turns a chat-completion send function into one that
// returns validated, strongly typed values.
//
// [Patch] wraps a [client.SendFunc]. When a call carries a response model
// (see [WithResponseModel]) the wrapped function derives the callable spec of
// the target type, forces the model to invoke it, and decodes and validates
// the invocation arguments into the target. Malformed JSON and validation
// failures are fed back to the model as a corrective user turn and the call
// is retried, up to the budget set with [WithMaxRetries]:
//
//	create := extract.Patch(c.SendFunc(), extract.WithLogger(logger))
//
//	var user User
//	request := &ai.ChatRequest{Messages: []ai.Message{{Role: ai.RoleUser, Content: "Jason is 25"}}}
//	_, err := create(ctx, request, extract.WithResponseModel(&user), extract.WithMaxRetries(2))
//
// The conversation is extended in place: each failed attempt appends the
// model's reconstructed answer and the corrective turn to request.Messages.
// Calls without a response model pass straight through to the send function.
package extract
