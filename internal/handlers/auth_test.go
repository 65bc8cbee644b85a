package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nivara-app/nivara-backend/internal/handlers"
	"github.com/nivara-app/nivara-backend/internal/routes"
	"github.com/nivara-app/nivara-backend/internal/services"
	"github.com/nivara-app/nivara-backend/internal/storage"
)

// newTestServer wires the full router against in-memory storage. The returned
// clock pointer moves the health service's and store's notion of now.
func newTestServer(t *testing.T) (*chi.Mux, *time.Time) {
	t.Helper()

	store := storage.NewMemoryStore()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	store.SetClock(func() time.Time { return now })

	sessions := services.NewSessionService(store)
	accounts := services.NewAccountService(store, sessions)
	health := services.NewHealthService(store)
	health.SetClock(func() time.Time { return now })
	gate := services.NewGate(health)
	chat := services.NewChatService(staticGenerator{}, nil, nil)

	r := chi.NewRouter()
	routes.SetupRoutes(r, routes.Handlers{
		Auth:      handlers.NewAuthHandler(accounts),
		Health:    handlers.NewHealthHandler(health, gate, sessions),
		Chat:      handlers.NewChatHandler(chat, sessions),
		Assistant: handlers.NewAssistantWS(chat, sessions),
	})
	return r, &now
}

type staticGenerator struct{}

func (staticGenerator) Generate(_ context.Context, _ string) (string, error) {
	return "canned answer", nil
}

func doJSON(t *testing.T, r http.Handler, method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var parsed map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed), "body: %s", rec.Body.String())
	}
	return rec, parsed
}

func signup(t *testing.T, r http.Handler) string {
	t.Helper()
	rec, body := doJSON(t, r, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"fullName": "Ada Lovelace",
		"email":    "ada@example.com",
		"password": "analytical",
	})
	require.Equal(t, http.StatusCreated, rec.Code, "body: %v", body)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestSignupEndpoint(t *testing.T) {
	r, _ := newTestServer(t)

	rec, body := doJSON(t, r, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"fullName": "Ada Lovelace",
		"email":    "ada@example.com",
		"password": "analytical",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "User created successfully", body["message"])
	assert.NotEmpty(t, body["token"])

	user, ok := body["user"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "ada@example.com", user["email"])
	assert.NotContains(t, user, "password")
	assert.NotContains(t, user, "passwordHash")
}

func TestSignupEndpointValidation(t *testing.T) {
	r, _ := newTestServer(t)

	rec, body := doJSON(t, r, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"fullName": "Ada",
		"email":    "not-an-email",
		"password": "analytical",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Please enter a valid email address", body["message"])
}

func TestSignupEndpointDuplicate(t *testing.T) {
	r, _ := newTestServer(t)
	signup(t, r)

	rec, body := doJSON(t, r, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"fullName": "Impostor",
		"email":    "ada@example.com",
		"password": "different",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "User with this email already exists", body["message"])
}

func TestSigninEndpoint(t *testing.T) {
	r, _ := newTestServer(t)
	signup(t, r)

	rec, body := doJSON(t, r, http.MethodPost, "/api/auth/signin", "", map[string]string{
		"email":    "ada@example.com",
		"password": "analytical",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Login successful", body["message"])
	assert.NotEmpty(t, body["token"])

	rec, body = doJSON(t, r, http.MethodPost, "/api/auth/signin", "", map[string]string{
		"email":    "ada@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid email or password", body["message"])
}

func TestMeEndpoint(t *testing.T) {
	r, _ := newTestServer(t)
	token := signup(t, r)

	rec, body := doJSON(t, r, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "Ada Lovelace", user["fullName"])

	rec, _ = doJSON(t, r, http.MethodGet, "/api/auth/me", "bogus-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = doJSON(t, r, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSignoutEndpoint(t *testing.T) {
	r, _ := newTestServer(t)
	token := signup(t, r)

	rec, _ := doJSON(t, r, http.MethodPost, "/api/auth/signout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doJSON(t, r, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "token must be dead after signout")
}
