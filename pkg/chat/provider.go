// Package chat defines the conversation data model and the Provider
// interface for remote chat-completion backends.
//
// A chat provider wraps one remote HTTP API (e.g., Zhipu GLM or Deepseek)
// and exposes a uniform interface for turning an ordered conversation into
// a single reply. Unlike a typical client library, providers here never
// surface transport or API failures as Go errors: every failure path
// produces a Reply whose Text is a human-readable message, so the caller
// can always append the result to the conversation and render it.
//
// Implementations must be safe for concurrent use.
package chat

import "context"

// Provider is the abstraction over a remote chat-completion backend.
type Provider interface {
	// GenerateReply sends the full ordered conversation to the backend and
	// returns its reply. The turns slice must be non-empty and every turn
	// must carry a non-empty Role.
	//
	// GenerateReply never returns an error: a missing API key, a non-2xx
	// response, and any transport or decode failure are all reported as the
	// Reply's Text. No retries are attempted and no explicit deadline is set
	// beyond what ctx carries.
	GenerateReply(ctx context.Context, turns []Turn) Reply

	// SetModel selects the model variant used for subsequent calls.
	SetModel(model string)

	// Model returns the currently selected model variant.
	Model() string
}
