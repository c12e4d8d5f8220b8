// Package chat exposes the assistant chat turn as a tool, so operator
// consoles drive the same session manager and responder as the storefront
// chat endpoints.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/opaline/shopassist/pkg/actor"
	chatsvc "github.com/opaline/shopassist/pkg/chat"
	"github.com/opaline/shopassist/pkg/conversation"
	"github.com/opaline/shopassist/pkg/registry"
)

const chatToolName = "aiChat"

// Toolkit serves the chat tool over the session manager and responder.
type Toolkit struct {
	sessions  *actor.Manager
	responder chatsvc.Responder
	log       *slog.Logger
}

// New creates a chat toolkit.
func New(sessions *actor.Manager, responder chatsvc.Responder, log *slog.Logger) *Toolkit {
	if log == nil {
		log = slog.Default()
	}
	return &Toolkit{sessions: sessions, responder: responder, log: log}
}

type chatInput struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// RegisterTools registers the chat tool.
func (t *Toolkit) RegisterTools(r *registry.Registry) {
	r.MustRegister(registry.Tool{
		Name:        chatToolName,
		Description: "Send one message to the assistant and get its reply. Omitting session_id starts a new session; pass the returned session_id to continue it.",
		InputSchema: aiChatSchema,
		Mutating:    true,
		Handler:     t.handleChat,
	})
}

// handleChat runs one chat turn: the user message and the assistant reply
// are appended to the session, in that order, exactly as the storefront
// chat endpoint does.
func (t *Toolkit) handleChat(ctx context.Context, args json.RawMessage) (any, error) {
	var in chatInput
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, registry.InvalidParam("arguments", "must be a JSON object")
	}
	if in.Message == "" {
		return nil, registry.InvalidParam("message", "must not be empty")
	}
	sessionID := in.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	if err := t.sessions.Append(ctx, sessionID, conversation.RoleUser, in.Message); err != nil {
		return nil, fmt.Errorf("recording message: %w", err)
	}

	reply, err := t.responder.Respond(ctx, sessionID, in.Message)
	if err != nil {
		t.log.Error("responder failed", "session_id", sessionID, "error", err)
		reply = chatsvc.FallbackReply
	}

	if err := t.sessions.Append(ctx, sessionID, conversation.RoleAssistant, reply); err != nil {
		return nil, fmt.Errorf("recording reply: %w", err)
	}

	return map[string]string{"reply": reply, "session_id": sessionID}, nil
}
