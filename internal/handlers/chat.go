package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/nivara-app/nivara-backend/internal/models"
	"github.com/nivara-app/nivara-backend/internal/services"
)

// AskRequest is the JSON body for POST /api/ai.
type AskRequest struct {
	Prompt         string `json:"prompt"`
	ConversationID string `json:"conversationId,omitempty"`
}

// AskResponse mirrors the original proxy's shape: the prompt echoed back plus
// the model's answer.
type AskResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	Prompt         string `json:"prompt"`
	Response       string `json:"res"`
	ConversationID string `json:"conversationId,omitempty"`
}

// ChatHandler exposes the assistant proxy and conversation history.
type ChatHandler struct {
	chat     *services.ChatService
	sessions *services.SessionService
}

func NewChatHandler(chat *services.ChatService, sessions *services.SessionService) *ChatHandler {
	return &ChatHandler{chat: chat, sessions: sessions}
}

func (h *ChatHandler) requireAuth(w http.ResponseWriter, r *http.Request) (string, bool) {
	token := extractBearerToken(r.Header.Get("Authorization"))
	userID, ok, err := h.sessions.Validate(r.Context(), token)
	if err != nil || !ok {
		writeUnauthorized(w)
		return "", false
	}
	return userID, true
}

// Ask forwards a prompt to the model and appends the exchange to the caller's
// conversation.
func (h *ChatHandler) Ask(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireAuth(w, r)
	if !ok {
		return
	}

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Invalid request body",
		})
		return
	}

	answer, conversationID, err := h.chat.Ask(r.Context(), userID, req.ConversationID, req.Prompt)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AskResponse{
		Success:        true,
		Message:        "Received!",
		Prompt:         req.Prompt,
		Response:       answer,
		ConversationID: conversationID,
	})
}

// Hello answers a canned prompt; kept for parity with the original GET route.
func (h *ChatHandler) Hello(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "World"
	}

	answer, _, err := h.chat.Ask(r.Context(), "", "", "Explain how AI works in a few words")
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Hello, " + name + "!",
		"data":    answer,
	})
}

// Conversations lists the caller's conversations for the sidebar.
func (h *ChatHandler) Conversations(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireAuth(w, r)
	if !ok {
		return
	}

	convs, err := h.chat.Conversations(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if convs == nil {
		convs = []models.Conversation{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"conversations": convs,
	})
}

// History loads paginated turns for a conversation.
// Query params:
//
//	conversation_id (required)
//	before          (optional RFC3339 timestamp for pagination)
//	limit           (optional, default 50)
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireAuth(w, r)
	if !ok {
		return
	}

	conversationID := r.URL.Query().Get("conversation_id")
	if conversationID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "conversation_id is required",
		})
		return
	}

	limit := int64(50)
	if lStr := r.URL.Query().Get("limit"); lStr != "" {
		if parsed, err := strconv.ParseInt(lStr, 10, 64); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	var before *time.Time
	if bStr := r.URL.Query().Get("before"); bStr != "" {
		if t, err := time.Parse(time.RFC3339, bStr); err == nil {
			before = &t
		}
	}

	turns, hasMore, err := h.chat.History(r.Context(), userID, conversationID, before, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if turns == nil {
		turns = []models.ChatTurn{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"messages": turns,
		"has_more": hasMore,
	})
}

// DeleteConversation removes a conversation the caller owns.
func (h *ChatHandler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireAuth(w, r)
	if !ok {
		return
	}

	conversationID := r.URL.Query().Get("conversation_id")
	if conversationID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "conversation_id is required",
		})
		return
	}

	if err := h.chat.DeleteConversation(r.Context(), userID, conversationID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
