package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/nivara-app/nivara-backend/internal/models"
	"github.com/nivara-app/nivara-backend/internal/services"
)

// HealthHandler exposes the health record store, the submission gate, and the
// dashboard summary.
type HealthHandler struct {
	health   *services.HealthService
	gate     *services.Gate
	sessions *services.SessionService
}

func NewHealthHandler(health *services.HealthService, gate *services.Gate, sessions *services.SessionService) *HealthHandler {
	return &HealthHandler{health: health, gate: gate, sessions: sessions}
}

// requireAuth validates the session and returns the authenticated user's ID.
// Returns ("", false) after writing the 401 response.
func (h *HealthHandler) requireAuth(w http.ResponseWriter, r *http.Request) (string, bool) {
	token := extractBearerToken(r.Header.Get("Authorization"))
	userID, ok, err := h.sessions.Validate(r.Context(), token)
	if err != nil || !ok {
		writeUnauthorized(w)
		return "", false
	}
	return userID, true
}

// SaveRecordResponse is returned by POST /api/health.
type SaveRecordResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message,omitempty"`
	Record  models.HealthRecord `json:"record"`
}

// Save stores today's metrics for the authenticated user. A second save on
// the same calendar day replaces the earlier record.
func (h *HealthHandler) Save(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireAuth(w, r)
	if !ok {
		return
	}

	var metrics models.Metrics
	if err := json.NewDecoder(r.Body).Decode(&metrics); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Invalid request body",
		})
		return
	}

	record, err := h.health.SaveRecord(r.Context(), userID, metrics)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, SaveRecordResponse{
		Success: true,
		Message: "Health record saved",
		Record:  record,
	})
}

// List returns the user's records in insertion order.
func (h *HealthHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireAuth(w, r)
	if !ok {
		return
	}

	records, err := h.health.ListRecords(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []models.HealthRecord{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"records": records,
		"total":   len(records),
	})
}

// Today returns today's record, or record: null when none exists yet.
func (h *HealthHandler) Today(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireAuth(w, r)
	if !ok {
		return
	}

	record, err := h.health.TodayRecord(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"record":  record,
	})
}

// Status answers every gate query in one call. The frontend re-requests it on
// every page entry; nothing here may be cached because the cutoff moves with
// the clock.
func (h *HealthHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireAuth(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	submittedToday, err := h.health.HasSubmittedToday(ctx, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	needs, err := h.health.NeedsSubmission(ctx, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	destination, err := h.gate.NextDestination(ctx, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	firstTime, err := h.health.IsFirstTime(ctx, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	last, err := h.health.LastSubmission(ctx, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	hours, minutes := h.health.TimeUntilNextCutoff()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":             true,
		"hasSubmittedToday":   submittedToday,
		"needsSubmission":     needs,
		"nextDestination":     destination,
		"isFirstTime":         firstTime,
		"lastSubmission":      last,
		"timeUntilNextCutoff": map[string]int{"hours": hours, "minutes": minutes},
	})
}

// Summary returns the dashboard aggregates over the last seven records.
func (h *HealthHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireAuth(w, r)
	if !ok {
		return
	}

	records, err := h.health.ListRecords(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"summary": services.WeeklySummaryOf(records),
	})
}
