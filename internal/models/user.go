package models

import "time"

// User is the public view of an account. The credential never appears here;
// handlers and services hand out this struct by value.
type User struct {
	ID        string    `json:"id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// StoredUser is the persisted form, credential included. It only exists inside
// the account store; everything above it works with User.
type StoredUser struct {
	User
	PasswordHash string `json:"passwordHash"`
}
