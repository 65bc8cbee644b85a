package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nivara-app/nivara-backend/internal/apperror"
	"github.com/nivara-app/nivara-backend/internal/models"
	"github.com/nivara-app/nivara-backend/internal/storage"
)

// submissionCutoffHour is the local-time hour at which a new submission
// window opens every day.
const submissionCutoffHour = 6

const dateKeyLayout = "2006-01-02"

// HealthService stores one health record per (user, local calendar day) and
// answers the submission-window queries. Records live as a JSON list under
// healthrecords:<userId>; the submission marker is a separate timestamp key
// so gate checks never deserialize the record list.
type HealthService struct {
	store storage.Store
	now   func() time.Time
}

func NewHealthService(store storage.Store) *HealthService {
	return &HealthService{store: store, now: time.Now}
}

// SetClock overrides the wall clock. Tests only.
func (s *HealthService) SetClock(now func() time.Time) {
	s.now = now
}

// ListRecords returns the user's records in insertion order.
func (s *HealthService) ListRecords(ctx context.Context, userID string) ([]models.HealthRecord, error) {
	return s.loadRecords(ctx, userID)
}

// SaveRecord stamps the current timestamp, derives the local date key, and
// writes the record. A same-day record is replaced in place so the one-record-
// per-day invariant holds; the submission marker moves with every save.
// Record and marker go together or not at all: if the marker write fails, the
// previous record list is restored.
func (s *HealthService) SaveRecord(ctx context.Context, userID string, metrics models.Metrics) (models.HealthRecord, error) {
	now := s.now()
	record := models.HealthRecord{
		Metrics:   metrics,
		UserID:    userID,
		Timestamp: now,
		Date:      dateKey(now),
	}

	recordsKey := storage.HealthRecordsKey(userID)
	previous, _, err := s.store.Get(ctx, recordsKey)
	if err != nil {
		return models.HealthRecord{}, apperror.Storage(err, "Failed to read health records")
	}

	records, err := s.loadRecords(ctx, userID)
	if err != nil {
		return models.HealthRecord{}, err
	}

	replaced := false
	for i, r := range records {
		if r.Date == record.Date {
			records[i] = record
			replaced = true
			break
		}
	}
	if !replaced {
		records = append(records, record)
	}

	if err := s.saveRecords(ctx, userID, records); err != nil {
		return models.HealthRecord{}, err
	}

	markerKey := storage.LastSubmissionKey(userID)
	if err := s.store.Set(ctx, markerKey, now.Format(time.RFC3339Nano)); err != nil {
		// Restore the prior record list so record and marker stay consistent.
		if previous == "" {
			_ = s.store.Delete(ctx, recordsKey)
		} else {
			_ = s.store.Set(ctx, recordsKey, previous)
		}
		return models.HealthRecord{}, apperror.Storage(err, "Failed to save health record")
	}

	return record, nil
}

// TodayRecord returns the record whose date key is today's, or nil.
func (s *HealthService) TodayRecord(ctx context.Context, userID string) (*models.HealthRecord, error) {
	records, err := s.loadRecords(ctx, userID)
	if err != nil {
		return nil, err
	}

	today := dateKey(s.now())
	for i := range records {
		if records[i].Date == today {
			record := records[i]
			return &record, nil
		}
	}
	return nil, nil
}

// HasSubmittedToday reports whether the submission marker falls on today's
// local calendar date. This is the plain calendar check; the 6 AM window is
// NeedsSubmission.
func (s *HealthService) HasSubmittedToday(ctx context.Context, userID string) (bool, error) {
	last, err := s.LastSubmission(ctx, userID)
	if err != nil {
		return false, err
	}
	if last == nil {
		return false, nil
	}
	return dateKey(*last) == dateKey(s.now()), nil
}

// NeedsSubmission implements the rolling 6 AM window: the cutoff is today's
// 06:00 local if that instant has passed, yesterday's 06:00 otherwise. A user
// needs to submit when there is no marker or the marker predates the cutoff.
// The clock is re-read on every call; callers must not cache the result.
func (s *HealthService) NeedsSubmission(ctx context.Context, userID string) (bool, error) {
	last, err := s.LastSubmission(ctx, userID)
	if err != nil {
		return false, err
	}
	if last == nil {
		return true, nil
	}

	now := s.now()
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), submissionCutoffHour, 0, 0, 0, now.Location())
	if now.Before(cutoff) {
		cutoff = cutoff.AddDate(0, 0, -1)
	}

	return last.Before(cutoff), nil
}

// TimeUntilNextCutoff returns the non-negative time remaining until the next
// 6 AM local instant, split into whole hours and minutes.
func (s *HealthService) TimeUntilNextCutoff() (hours, minutes int) {
	now := s.now()
	next := time.Date(now.Year(), now.Month(), now.Day(), submissionCutoffHour, 0, 0, 0, now.Location())
	if !now.Before(next) {
		next = next.AddDate(0, 0, 1)
	}

	diff := next.Sub(now)
	hours = int(diff / time.Hour)
	minutes = int((diff % time.Hour) / time.Minute)
	return hours, minutes
}

// LastSubmission returns the marker timestamp, or nil when the user has never
// submitted. A corrupt marker degrades to nil.
func (s *HealthService) LastSubmission(ctx context.Context, userID string) (*time.Time, error) {
	raw, ok, err := s.store.Get(ctx, storage.LastSubmissionKey(userID))
	if err != nil {
		return nil, apperror.Storage(err, "Failed to read submission status")
	}
	if !ok || raw == "" {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, nil
	}
	return &t, nil
}

// IsFirstTime reports whether the user has never submitted any record.
func (s *HealthService) IsFirstTime(ctx context.Context, userID string) (bool, error) {
	records, err := s.loadRecords(ctx, userID)
	if err != nil {
		return false, err
	}
	return len(records) == 0, nil
}

func (s *HealthService) loadRecords(ctx context.Context, userID string) ([]models.HealthRecord, error) {
	raw, ok, err := s.store.Get(ctx, storage.HealthRecordsKey(userID))
	if err != nil {
		return nil, apperror.Storage(err, "Failed to read health records")
	}
	if !ok || raw == "" {
		return nil, nil
	}

	var records []models.HealthRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		// Read resilience: a corrupt blob degrades to an empty list.
		return nil, nil
	}
	return records, nil
}

func (s *HealthService) saveRecords(ctx context.Context, userID string, records []models.HealthRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return apperror.Storage(err, "Failed to save health records")
	}
	if err := s.store.Set(ctx, storage.HealthRecordsKey(userID), string(data)); err != nil {
		return apperror.Storage(err, "Failed to save health records")
	}
	return nil
}

func dateKey(t time.Time) string {
	return t.Format(dateKeyLayout)
}
