package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dom/hydration-tracker/internal/domain"
	"github.com/dom/hydration-tracker/internal/service"
	"github.com/go-chi/chi/v5"
)

type UserHandler struct {
	services    *service.Services
	defaultGoal int
}

func NewUserHandler(services *service.Services, defaultGoal int) *UserHandler {
	return &UserHandler{services: services, defaultGoal: defaultGoal}
}

type CreateUserRequest struct {
	Name      string `json:"name"`
	DailyGoal int    `json:"dailyGoal"`
}

type UpdateUserRequest struct {
	Name      *string `json:"name"`
	DailyGoal *int    `json:"dailyGoal"`
}

type UsersResponse struct {
	Users         []domain.User `json:"users"`
	CurrentUserID string        `json:"currentUserId"`
}

type CreateUserResponse struct {
	ID      string `json:"id"`
	Warning string `json:"warning,omitempty"`
}

type UserResponse struct {
	User    domain.User `json:"user"`
	Warning string      `json:"warning,omitempty"`
}

type CurrentUserResponse struct {
	CurrentUserID string `json:"currentUserId"`
	Warning       string `json:"warning,omitempty"`
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	roster := h.services.Users.Roster()
	writeJSON(w, http.StatusOK, UsersResponse{
		Users:         roster.Users,
		CurrentUserID: roster.CurrentUserID,
	})
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		http.Error(w, "Name is required", http.StatusBadRequest)
		return
	}
	goal := req.DailyGoal
	if goal == 0 {
		goal = h.defaultGoal
	}
	if !validGoal(goal) {
		http.Error(w, "Daily goal must be between 500 and 5000 ml", http.StatusBadRequest)
		return
	}

	id, err := h.services.AddUser(r.Context(), name, goal)
	if handleServiceError(w, "user.Create", err) {
		return
	}

	writeJSON(w, http.StatusCreated, CreateUserResponse{ID: id, Warning: persistWarning(err)})
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	update := domain.UserUpdate{DailyGoal: req.DailyGoal}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			http.Error(w, "Name is required", http.StatusBadRequest)
			return
		}
		update.Name = &name
	}
	if req.DailyGoal != nil && !validGoal(*req.DailyGoal) {
		http.Error(w, "Daily goal must be between 500 and 5000 ml", http.StatusBadRequest)
		return
	}

	user, err := h.services.UpdateUser(r.Context(), userID, update)
	if handleServiceError(w, "user.Update", err) {
		return
	}

	writeJSON(w, http.StatusOK, UserResponse{User: user, Warning: persistWarning(err)})
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	err := h.services.DeleteUser(r.Context(), userID)
	if handleServiceError(w, "user.Delete", err) {
		return
	}

	writeJSON(w, http.StatusOK, CurrentUserResponse{
		CurrentUserID: h.services.Users.Roster().CurrentUserID,
		Warning:       persistWarning(err),
	})
}

func (h *UserHandler) Switch(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	err := h.services.SwitchUser(r.Context(), userID)
	if handleServiceError(w, "user.Switch", err) {
		return
	}

	writeJSON(w, http.StatusOK, CurrentUserResponse{
		CurrentUserID: h.services.Users.Roster().CurrentUserID,
		Warning:       persistWarning(err),
	})
}
