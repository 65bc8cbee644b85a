package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/nivara-app/nivara-backend/internal/storage"
)

// SessionDuration is how long a session token stays valid.
const SessionDuration = 7 * 24 * time.Hour

// SessionService issues and validates bearer session tokens. At most one live
// token exists per user: creating a session invalidates the previous one, so
// the expiry timer always restarts from the latest login.
type SessionService struct {
	store storage.Store
}

func NewSessionService(store storage.Store) *SessionService {
	return &SessionService{store: store}
}

// Create issues a token for the user and records the token<->user pair.
func (s *SessionService) Create(ctx context.Context, userID string) (string, error) {
	// Drop any existing session so only one is ever live.
	_ = s.InvalidateUser(ctx, userID)

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := base64.URLEncoding.EncodeToString(tokenBytes)

	if err := s.store.SetWithTTL(ctx, storage.SessionKeyPrefix+token, userID, SessionDuration); err != nil {
		return "", err
	}
	if err := s.store.SetWithTTL(ctx, storage.UserSessionKeyPrefix+userID, token, SessionDuration); err != nil {
		_ = s.store.Delete(ctx, storage.SessionKeyPrefix+token)
		return "", err
	}

	return token, nil
}

// Validate resolves a token to a user ID. An unknown or expired token is not
// an error; ok is simply false.
func (s *SessionService) Validate(ctx context.Context, token string) (string, bool, error) {
	if token == "" {
		return "", false, nil
	}
	userID, ok, err := s.store.Get(ctx, storage.SessionKeyPrefix+token)
	if err != nil {
		return "", false, err
	}
	return userID, ok, nil
}

// Invalidate removes a session. Idempotent.
func (s *SessionService) Invalidate(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if userID, ok, _ := s.store.Get(ctx, storage.SessionKeyPrefix+token); ok && userID != "" {
		_ = s.store.Delete(ctx, storage.UserSessionKeyPrefix+userID)
	}
	return s.store.Delete(ctx, storage.SessionKeyPrefix+token)
}

// InvalidateUser removes whatever session the user currently holds.
func (s *SessionService) InvalidateUser(ctx context.Context, userID string) error {
	userSessionKey := storage.UserSessionKeyPrefix + userID
	if token, ok, _ := s.store.Get(ctx, userSessionKey); ok && token != "" {
		_ = s.store.Delete(ctx, storage.SessionKeyPrefix+token)
	}
	return s.store.Delete(ctx, userSessionKey)
}
