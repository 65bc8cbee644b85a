package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAskEndpoint(t *testing.T) {
	r, _ := newTestServer(t)
	token := signup(t, r)

	rec, body := doJSON(t, r, http.MethodPost, "/api/ai", token, map[string]string{
		"prompt": "what should I eat?",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Received!", body["message"])
	assert.Equal(t, "what should I eat?", body["prompt"])
	assert.Equal(t, "canned answer", body["res"])
}

func TestAskEndpointRequiresAuth(t *testing.T) {
	r, _ := newTestServer(t)

	rec, _ := doJSON(t, r, http.MethodPost, "/api/ai", "", map[string]string{"prompt": "hi"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAskEndpointRejectsEmptyPrompt(t *testing.T) {
	r, _ := newTestServer(t)
	token := signup(t, r)

	rec, body := doJSON(t, r, http.MethodPost, "/api/ai", token, map[string]string{"prompt": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Prompt is required", body["message"])
}

func TestHelloEndpoint(t *testing.T) {
	r, _ := newTestServer(t)

	rec, body := doJSON(t, r, http.MethodGet, "/api/ai?name=Ada", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello, Ada!", body["message"])
	assert.Equal(t, "canned answer", body["data"])

	rec, body = doJSON(t, r, http.MethodGet, "/api/ai", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello, World!", body["message"])
}

func TestConversationsEndpointWithoutHistory(t *testing.T) {
	r, _ := newTestServer(t)
	token := signup(t, r)

	// Without a history store the list is empty, never an error.
	rec, body := doJSON(t, r, http.MethodGet, "/api/chat/conversations", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{}, body["conversations"])
}

func TestHistoryEndpointValidation(t *testing.T) {
	r, _ := newTestServer(t)
	token := signup(t, r)

	rec, body := doJSON(t, r, http.MethodGet, "/api/chat/history", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "conversation_id is required", body["message"])
}
