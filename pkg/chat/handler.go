package chat

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/opaline/shopassist/pkg/actor"
	"github.com/opaline/shopassist/pkg/conversation"
)

const maxBodyBytes = 1 << 20

// Handler serves the chat HTTP surface. Every accepted turn appends the user
// message and the assistant reply to the session, in that order.
type Handler struct {
	sessions  *actor.Manager
	responder Responder
	log       *slog.Logger
}

// NewHandler creates a chat handler.
func NewHandler(sessions *actor.Manager, responder Responder, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{sessions: sessions, responder: responder, log: log}
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

type chatResponse struct {
	Reply     string `json:"reply"`
	SessionID string `json:"session_id"`
}

type endRequest struct {
	SessionID string `json:"session_id"`
}

type endResponse struct {
	ConversationID string `json:"conversation_id"`
}

// HandleChat serves POST /chat.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeChatRequest(w, r)
	if !ok {
		return
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	ctx := r.Context()
	if err := h.sessions.Append(ctx, sessionID, conversation.RoleUser, req.Message); err != nil {
		h.log.Error("appending user message failed", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to record message")
		return
	}

	reply := h.respond(r, sessionID, req.Message)

	if err := h.sessions.Append(ctx, sessionID, conversation.RoleAssistant, reply); err != nil {
		h.log.Error("appending assistant reply failed", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to record reply")
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Reply: reply, SessionID: sessionID})
}

// HandleStream serves POST /chat/stream. The reply is delivered as
// server-sent events carrying incremental text deltas, terminated by a
// [DONE] sentinel that marks end-of-message and is never content.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeChatRequest(w, r)
	if !ok {
		return
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	ctx := r.Context()
	if err := h.sessions.Append(ctx, sessionID, conversation.RoleUser, req.Message); err != nil {
		h.log.Error("appending user message failed", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to record message")
		return
	}

	reply := h.respond(r, sessionID, req.Message)

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Session-Id", sessionID)
	w.WriteHeader(http.StatusOK)

	for _, delta := range splitDeltas(reply) {
		payload, _ := json.Marshal(map[string]string{"delta": delta})
		if _, err := w.Write([]byte("data: " + string(payload) + "\n\n")); err != nil {
			return
		}
		flusher.Flush()
	}
	_, _ = w.Write([]byte("data: [DONE]\n\n"))
	flusher.Flush()

	if err := h.sessions.Append(ctx, sessionID, conversation.RoleAssistant, reply); err != nil {
		h.log.Error("appending streamed reply failed", "session_id", sessionID, "error", err)
	}
}

// HandleEnd serves POST /chat/end.
func (h *Handler) HandleEnd(w http.ResponseWriter, r *http.Request) {
	var req endRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	convID, err := h.sessions.End(r.Context(), req.SessionID)
	if err != nil {
		h.log.Error("ending session failed", "session_id", req.SessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to persist conversation")
		return
	}
	writeJSON(w, http.StatusOK, endResponse{ConversationID: convID})
}

func (h *Handler) decodeChatRequest(w http.ResponseWriter, r *http.Request) (chatRequest, bool) {
	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return chatRequest{}, false
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return chatRequest{}, false
	}
	return req, true
}

// respond generates the assistant reply, falling back to a canned apology on
// responder failure so the shopper never sees a raw error.
func (h *Handler) respond(r *http.Request, sessionID, message string) string {
	reply, err := h.responder.Respond(r.Context(), sessionID, message)
	if err != nil {
		h.log.Error("responder failed", "session_id", sessionID, "error", err)
		return FallbackReply
	}
	return reply
}

// splitDeltas breaks a reply into word-level deltas whose concatenation, in
// order, reproduces the reply exactly.
func splitDeltas(reply string) []string {
	words := strings.SplitAfter(reply, " ")
	deltas := make([]string, 0, len(words))
	for _, w := range words {
		if w != "" {
			deltas = append(deltas, w)
		}
	}
	return deltas
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
