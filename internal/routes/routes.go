package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/nivara-app/nivara-backend/internal/handlers"
)

// Handlers holds every route handler the server mounts.
type Handlers struct {
	Auth      *handlers.AuthHandler
	Health    *handlers.HealthHandler
	Chat      *handlers.ChatHandler
	Assistant *handlers.AssistantWS
}

func SetupRoutes(r *chi.Mux, h Handlers) {
	// Auth
	r.Post("/api/auth/signup", h.Auth.Signup)
	r.Post("/api/auth/signin", h.Auth.Signin)
	r.Post("/api/auth/signout", h.Auth.Signout)
	r.Get("/api/auth/me", h.Auth.Me)

	// Health records + submission gate
	r.Post("/api/health", h.Health.Save)
	r.Get("/api/health", h.Health.List)
	r.Get("/api/health/today", h.Health.Today)
	r.Get("/api/health/status", h.Health.Status)
	r.Get("/api/health/summary", h.Health.Summary)

	// Assistant proxy + conversation history
	r.Post("/api/ai", h.Chat.Ask)
	r.Get("/api/ai", h.Chat.Hello)
	r.Get("/api/chat/conversations", h.Chat.Conversations)
	r.Get("/api/chat/history", h.Chat.History)
	r.Delete("/api/chat/conversations", h.Chat.DeleteConversation)

	// WebSocket assistant gateway for the chat UI
	r.Get("/ws/assistant", h.Assistant.Serve)
}
