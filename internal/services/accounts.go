package services

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nivara-app/nivara-backend/internal/apperror"
	"github.com/nivara-app/nivara-backend/internal/models"
	"github.com/nivara-app/nivara-backend/internal/storage"
	"github.com/nivara-app/nivara-backend/pkg/utils"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// AccountService is the credential store: registered users plus the currently
// authenticated one. Users are persisted as a single JSON list under the
// "users" key; sessions live next to them via SessionService.
type AccountService struct {
	store    storage.Store
	sessions *SessionService
	now      func() time.Time
}

func NewAccountService(store storage.Store, sessions *SessionService) *AccountService {
	return &AccountService{
		store:    store,
		sessions: sessions,
		now:      time.Now,
	}
}

// SetClock overrides the creation-timestamp clock. Tests only.
func (s *AccountService) SetClock(now func() time.Time) {
	s.now = now
}

// Signup registers a user, persists the derived credential, establishes a
// session, and returns the public view plus the session token.
func (s *AccountService) Signup(ctx context.Context, fullName, email, password string) (models.User, string, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.TrimSpace(email)

	if fullName == "" || email == "" || password == "" {
		return models.User{}, "", apperror.Validation("", "All fields are required")
	}
	if len(password) < 6 {
		return models.User{}, "", apperror.Validation("password", "Password must be at least 6 characters long")
	}
	if !emailPattern.MatchString(email) {
		return models.User{}, "", apperror.Validation("email", "Please enter a valid email address")
	}

	users, err := s.loadUsers(ctx)
	if err != nil {
		return models.User{}, "", err
	}

	for _, u := range users {
		if u.Email == email {
			return models.User{}, "", apperror.Conflict("User with this email already exists")
		}
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return models.User{}, "", apperror.Storage(err, "Failed to create account")
	}

	stored := models.StoredUser{
		User: models.User{
			ID:        uuid.New().String(),
			FullName:  fullName,
			Email:     email,
			CreatedAt: s.now(),
		},
		PasswordHash: hash,
	}

	users = append(users, stored)
	if err := s.saveUsers(ctx, users); err != nil {
		return models.User{}, "", err
	}

	token, err := s.sessions.Create(ctx, stored.ID)
	if err != nil {
		return models.User{}, "", apperror.Storage(err, "Failed to create session")
	}

	return stored.User, token, nil
}

// Login verifies the credential and establishes a session. The error never
// says whether the email or the password was wrong.
func (s *AccountService) Login(ctx context.Context, email, password string) (models.User, string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return models.User{}, "", apperror.Validation("", "Email and password are required")
	}

	users, err := s.loadUsers(ctx)
	if err != nil {
		return models.User{}, "", err
	}

	for _, u := range users {
		if u.Email != email {
			continue
		}
		valid, err := utils.VerifyPassword(password, u.PasswordHash)
		if err != nil || !valid {
			return models.User{}, "", apperror.Auth("Invalid email or password")
		}

		token, err := s.sessions.Create(ctx, u.ID)
		if err != nil {
			return models.User{}, "", apperror.Storage(err, "Failed to create session")
		}
		return u.User, token, nil
	}

	return models.User{}, "", apperror.Auth("Invalid email or password")
}

// Logout clears the session behind the token. Idempotent.
func (s *AccountService) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Invalidate(ctx, token); err != nil {
		return apperror.Storage(err, "Failed to sign out")
	}
	return nil
}

// CurrentUser resolves a session token to the public user view. Returns
// (nil, nil) when the token is missing, expired, or the user is gone.
func (s *AccountService) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	userID, ok, err := s.sessions.Validate(ctx, token)
	if err != nil {
		return nil, apperror.Storage(err, "Failed to read session")
	}
	if !ok {
		return nil, nil
	}

	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.ID == userID {
			user := u.User
			return &user, nil
		}
	}
	return nil, nil
}

// IsAuthenticated reports whether the token maps to a user.
func (s *AccountService) IsAuthenticated(ctx context.Context, token string) bool {
	user, err := s.CurrentUser(ctx, token)
	return err == nil && user != nil
}

// loadUsers reads the user list. A missing or unparseable blob degrades to an
// empty list; only a backend failure is an error.
func (s *AccountService) loadUsers(ctx context.Context) ([]models.StoredUser, error) {
	raw, ok, err := s.store.Get(ctx, storage.UsersKey)
	if err != nil {
		return nil, apperror.Storage(err, "Failed to read user records")
	}
	if !ok || raw == "" {
		return nil, nil
	}

	var users []models.StoredUser
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		return nil, nil
	}
	return users, nil
}

func (s *AccountService) saveUsers(ctx context.Context, users []models.StoredUser) error {
	data, err := json.Marshal(users)
	if err != nil {
		return apperror.Storage(err, "Failed to save user records")
	}
	if err := s.store.Set(ctx, storage.UsersKey, string(data)); err != nil {
		return apperror.Storage(err, "Failed to save user records")
	}
	return nil
}
