package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/dom/hydration-tracker/internal/domain"
)

const (
	MinDailyGoal     = 500
	MaxDailyGoal     = 5000
	MaxMessageLength = 100
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// persistWarning turns a failed write into a response warning. The change itself
// was applied in memory, so the request still succeeds.
func persistWarning(err error) string {
	if errors.Is(err, domain.ErrPersist) {
		return "Changes could not be saved and will be lost on restart"
	}
	return ""
}

// handleServiceError maps service errors to status codes. It reports false when err
// is nil or only a persist failure.
func handleServiceError(w http.ResponseWriter, op string, err error) bool {
	switch {
	case err == nil, errors.Is(err, domain.ErrPersist):
		return false
	case errors.Is(err, domain.ErrUserNotFound):
		http.Error(w, "User not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrLastUser):
		http.Error(w, "Cannot delete the last user", http.StatusConflict)
	case errors.Is(err, domain.ErrInactiveScope):
		log.Printf("ERROR [%s]: %v", op, err)
		http.Error(w, "User changed, please retry", http.StatusConflict)
	case errors.Is(err, domain.ErrInvalidUnit),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidGoal),
		errors.Is(err, domain.ErrInvalidInterval):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Printf("ERROR [%s]: %v", op, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
	return true
}

func validGoal(goal int) bool {
	return goal >= MinDailyGoal && goal <= MaxDailyGoal
}
