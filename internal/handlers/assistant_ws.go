package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nivara-app/nivara-backend/internal/services"
)

var assistantUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS for WebSocket is handled at the HTTP layer already.
		return true
	},
}

// AssistantClientMessage is what the chat UI sends over the socket.
type AssistantClientMessage struct {
	Type           string `json:"type"` // "prompt" or "ping"
	Prompt         string `json:"prompt,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// AssistantServerMessage is what the server sends back.
type AssistantServerMessage struct {
	Type           string `json:"type"` // "response", "error", "pong"
	Response       string `json:"response,omitempty"`
	Message        string `json:"message,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// AssistantWS is the websocket gateway to the assistant: one connection per
// chat window, prompts in, responses out, turns persisted like the HTTP route.
type AssistantWS struct {
	chat     *services.ChatService
	sessions *services.SessionService
}

func NewAssistantWS(chat *services.ChatService, sessions *services.SessionService) *AssistantWS {
	return &AssistantWS{chat: chat, sessions: sessions}
}

// Serve upgrades the connection and runs the prompt/response loop.
// Authentication uses the session token (Authorization: Bearer <token>), with
// a ?token= fallback for browser WebSocket clients.
func (h *AssistantWS) Serve(w http.ResponseWriter, r *http.Request) {
	token := extractBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		token = r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing session token", http.StatusUnauthorized)
			return
		}
	}

	userID, ok, err := h.sessions.Validate(r.Context(), token)
	if err != nil || !ok {
		http.Error(w, "invalid session token", http.StatusUnauthorized)
		return
	}

	conn, err := assistantUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	conn.SetReadLimit(64 * 1024)
	_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	})

	for {
		var msg AssistantClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))

		switch msg.Type {
		case "ping":
			if err := conn.WriteJSON(AssistantServerMessage{Type: "pong"}); err != nil {
				return
			}
		case "prompt":
			answer, conversationID, err := h.chat.Ask(r.Context(), userID, msg.ConversationID, msg.Prompt)
			if err != nil {
				if writeErr := conn.WriteJSON(AssistantServerMessage{
					Type:    "error",
					Message: services.FallbackResponse,
				}); writeErr != nil {
					return
				}
				continue
			}
			if err := conn.WriteJSON(AssistantServerMessage{
				Type:           "response",
				Response:       answer,
				ConversationID: conversationID,
			}); err != nil {
				return
			}
		default:
			// Unknown message types are ignored so old clients don't break.
		}
	}
}
