// Package openai implements ai.Provider for OpenAI-compatible
// /chat/completions endpoints: OpenAI itself and self-hosted servers such as
// Ollama, vLLM or llama.cpp that speak the same protocol.
//
// Transport, authentication and transport-level retries are delegated to
// github.com/openai/openai-go; the request and response bodies are the
// package's own types so that both the tools format and the legacy
// functions format (enable with [WithLegacyFunctions]) can be sent, and so
// that tool calls emitted inside the message content by some open models
// can be recovered.
package openai
