package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/nivara-app/nivara-backend/internal/apperror"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the apperror taxonomy onto HTTP statuses and renders the
// standard {success, message} envelope. Unknown errors become an opaque 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "Something went wrong"

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
		switch {
		case errors.Is(appErr, apperror.ErrValidation):
			status = http.StatusBadRequest
		case errors.Is(appErr, apperror.ErrConflict):
			status = http.StatusConflict
		case errors.Is(appErr, apperror.ErrAuth):
			status = http.StatusUnauthorized
		case errors.Is(appErr, apperror.ErrStorage):
			status = http.StatusInternalServerError
		}
	}

	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"message": message,
	})
}

func writeUnauthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
		"success": false,
		"message": "Authentication required",
	})
}

// extractBearerToken pulls the token out of "Authorization: Bearer <token>".
func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
