// Package client composes a chat-completion provider with a chain of
// middleware into a single [SendFunc].
//
// A [SendFunc] is the unit everything else builds on: the extraction
// controller in core/extract wraps one, and the middleware in
// core/client/middleware decorate one. [New] builds a [Client] whose
// [Client.Send] applies the configured defaults (model, system prompt) and
// runs the chain; [Chain] composes middleware around any SendFunc.
package client
