// Package storage provides the key-value capability the stores are built on.
// Values are lossless text (JSON) serializations; data survives restarts on
// the same backend and is scoped to one deployment.
//
// Logical layout:
//
//	users                      JSON list of stored users
//	healthrecords:<userId>     JSON list of that user's records, insertion order
//	lastsubmission:<userId>    RFC3339 timestamp of the latest save
//	session:<token>            user ID, expiring
//	usersession:<userId>       active session token, expiring
package storage

import (
	"context"
	"time"
)

// Store is the injected persistence capability. Implementations must be safe
// for concurrent use; all operations are synchronous.
type Store interface {
	// Get returns the value and whether the key exists. A missing key is not
	// an error.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set writes the value with no expiry.
	Set(ctx context.Context, key, value string) error
	// SetWithTTL writes the value and expires it after ttl.
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error
	// Delete removes the key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

const (
	// UsersKey holds the full user list.
	UsersKey = "users"
	// HealthRecordsKeyPrefix namespaces per-user record lists.
	HealthRecordsKeyPrefix = "healthrecords:"
	// LastSubmissionKeyPrefix namespaces per-user submission markers.
	LastSubmissionKeyPrefix = "lastsubmission:"
	// SessionKeyPrefix maps session token -> user ID.
	SessionKeyPrefix = "session:"
	// UserSessionKeyPrefix maps user ID -> active session token.
	UserSessionKeyPrefix = "usersession:"
)

// HealthRecordsKey returns the record-list key for a user.
func HealthRecordsKey(userID string) string {
	return HealthRecordsKeyPrefix + userID
}

// LastSubmissionKey returns the submission-marker key for a user.
func LastSubmissionKey(userID string) string {
	return LastSubmissionKeyPrefix + userID
}
