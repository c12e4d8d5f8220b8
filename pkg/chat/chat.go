// Package chat implements the storefront-facing chat surface: a responder
// boundary for reply generation and HTTP handlers that drive the session
// manager around it.
package chat

import "context"

// FallbackReply is returned when the responder fails. The turn still
// succeeds so the shopper is never shown a transport error mid-conversation.
const FallbackReply = "Sorry, I could not process that right now. Please try again in a moment."

// Responder generates the assistant reply for one user message.
type Responder interface {
	Respond(ctx context.Context, sessionID, message string) (string, error)
}

// EchoResponder replies with the user's message echoed back. It is the
// baseline responder used in development and tests; real deployments swap in
// a model-backed implementation.
type EchoResponder struct{}

// Respond returns the echoed message.
func (EchoResponder) Respond(_ context.Context, _ string, message string) (string, error) {
	return "Echo: " + message, nil
}

// Verify interface compliance.
var _ Responder = EchoResponder{}
