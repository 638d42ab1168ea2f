package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dom/hydration-tracker/internal/reminder"
	"github.com/dom/hydration-tracker/internal/service"
)

// permissionTimeout bounds how long a permission request waits for a browser tab.
const permissionTimeout = 10 * time.Second

type ReminderHandler struct {
	services *service.Services
}

func NewReminderHandler(services *service.Services) *ReminderHandler {
	return &ReminderHandler{services: services}
}

type UpdateRemindersRequest struct {
	Enabled         bool  `json:"enabled"`
	IntervalMinutes *int  `json:"intervalMinutes"`
	VisualAlerts    *bool `json:"visualAlerts"`
	Vibration       *bool `json:"vibration"`
}

type RemindersResponse struct {
	Settings reminder.Settings `json:"settings"`
	Warning  string            `json:"warning,omitempty"`
}

type PermissionResponse struct {
	Granted bool `json:"granted"`
}

func (h *ReminderHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, RemindersResponse{Settings: h.services.Reminders.Settings()})
}

func (h *ReminderHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateRemindersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.IntervalMinutes != nil && (*req.IntervalMinutes <= 0 || *req.IntervalMinutes > reminder.MaxIntervalMinutes) {
		http.Error(w, fmt.Sprintf("Interval must be a positive number of minutes, at most %d", reminder.MaxIntervalMinutes), http.StatusBadRequest)
		return
	}

	settings, err := h.services.UpdateReminders(r.Context(), reminder.Update{
		Enabled:         req.Enabled,
		IntervalMinutes: req.IntervalMinutes,
		VisualAlerts:    req.VisualAlerts,
		Vibration:       req.Vibration,
	})
	if handleServiceError(w, "reminder.Update", err) {
		return
	}

	writeJSON(w, http.StatusOK, RemindersResponse{Settings: settings, Warning: persistWarning(err)})
}

// RequestPermission asks the connected browser tabs for notification permission.
// It waits at most permissionTimeout for an answer and reports granted=false when
// no tab answers in time.
func (h *ReminderHandler) RequestPermission(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), permissionTimeout)
	defer cancel()

	granted := h.services.Reminders.RequestPermission(ctx)
	writeJSON(w, http.StatusOK, PermissionResponse{Granted: granted})
}

func (h *ReminderHandler) Test(w http.ResponseWriter, r *http.Request) {
	err := h.services.SendTestReminder()
	if handleServiceError(w, "reminder.Test", err) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
