package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dom/hydration-tracker/internal/api/middleware"
	"github.com/dom/hydration-tracker/internal/domain"
	"github.com/dom/hydration-tracker/internal/service"
)

type WaterHandler struct {
	services *service.Services
}

func NewWaterHandler(services *service.Services) *WaterHandler {
	return &WaterHandler{services: services}
}

type AddEntryRequest struct {
	Amount  float64 `json:"amount"`
	Unit    string  `json:"unit"`
	Message string  `json:"message"`
}

type TodayResponse struct {
	UserID     string              `json:"userId"`
	Date       string              `json:"date"`
	Total      int                 `json:"total"`
	Goal       int                 `json:"goal"`
	Remaining  int                 `json:"remaining"`
	Percentage float64             `json:"percentage"`
	GoalMet    bool                `json:"goalMet"`
	Formatted  string              `json:"formatted"`
	Entries    []domain.WaterEntry `json:"entries"`
}

type AddEntryResponse struct {
	Entry       domain.WaterEntry `json:"entry"`
	Milliliters int               `json:"milliliters"`
	Display     string            `json:"display"`
	Today       TodayResponse     `json:"today"`
	Warning     string            `json:"warning,omitempty"`
}

type RecentDaysResponse struct {
	Days []domain.DaySummary `json:"days"`
}

type StreakResponse struct {
	Streak int `json:"streak"`
}

type PresetsResponse struct {
	Presets []domain.QuickAddPreset `json:"presets"`
}

func (h *WaterHandler) Today(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	today, err := h.services.Today()
	if handleServiceError(w, "water.Today", err) {
		return
	}

	writeJSON(w, http.StatusOK, todayResponse(user.ID, today))
}

func (h *WaterHandler) AddEntry(w http.ResponseWriter, r *http.Request) {
	var req AddEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	unit, err := domain.ParseUnit(req.Unit)
	if err != nil {
		http.Error(w, "Invalid unit", http.StatusBadRequest)
		return
	}
	if req.Amount <= 0 {
		http.Error(w, "Amount must be greater than 0", http.StatusBadRequest)
		return
	}
	message := strings.TrimSpace(req.Message)
	if utf8.RuneCountInString(message) > MaxMessageLength {
		http.Error(w, "Message must be at most 100 characters", http.StatusBadRequest)
		return
	}

	result, err := h.services.AddEntry(r.Context(), req.Amount, unit, message)
	if handleServiceError(w, "water.AddEntry", err) {
		return
	}

	ml, _ := domain.ToMilliliters(req.Amount, unit)
	writeJSON(w, http.StatusCreated, AddEntryResponse{
		Entry:       result.Entry,
		Milliliters: ml,
		Display:     formatAmount(req.Amount, unit),
		Today:       todayResponse(result.User.ID, result.Today),
		Warning:     persistWarning(err),
	})
}

func (h *WaterHandler) Presets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, PresetsResponse{Presets: domain.QuickAddPresets})
}

func (h *WaterHandler) RecentDays(w http.ResponseWriter, r *http.Request) {
	days, err := h.services.RecentDays()
	if handleServiceError(w, "water.RecentDays", err) {
		return
	}
	writeJSON(w, http.StatusOK, RecentDaysResponse{Days: days})
}

func (h *WaterHandler) Streak(w http.ResponseWriter, r *http.Request) {
	streak, err := h.services.Streak()
	if handleServiceError(w, "water.Streak", err) {
		return
	}
	writeJSON(w, http.StatusOK, StreakResponse{Streak: streak})
}

func (h *WaterHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.services.Stats()
	if handleServiceError(w, "water.Stats", err) {
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Export downloads the current user's log as indented JSON.
func (h *WaterHandler) Export(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	days, err := h.services.Export()
	if handleServiceError(w, "water.Export", err) {
		return
	}

	data, err := json.MarshalIndent(days, "", "  ")
	if err != nil {
		handleServiceError(w, "water.Export", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="water-log-`+user.ID+`.json"`)
	w.Write(data)
}

func todayResponse(userID string, today domain.DayData) TodayResponse {
	entries := today.Entries
	if entries == nil {
		entries = []domain.WaterEntry{}
	}
	return TodayResponse{
		UserID:     userID,
		Date:       today.Date,
		Total:      today.Total,
		Goal:       today.Goal,
		Remaining:  today.Remaining(),
		Percentage: domain.Percentage(today.Total, today.Goal),
		GoalMet:    today.GoalMet(),
		Formatted:  domain.FormatMilliliters(today.Total),
		Entries:    entries,
	}
}

// formatAmount renders an amount the way the user entered it, e.g. "1.5 L".
func formatAmount(amount float64, unit domain.Unit) string {
	return strconv.FormatFloat(amount, 'f', -1, 64) + " " + unit.DisplayName()
}
