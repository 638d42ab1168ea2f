package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dom/hydration-tracker/internal/api/middleware"
	"github.com/dom/hydration-tracker/internal/domain"
	"github.com/stretchr/testify/assert"
)

type fixedSource struct {
	user domain.User
	err  error
}

func (s fixedSource) CurrentUser() (domain.User, error) {
	return s.user, s.err
}

func TestCurrentUser(t *testing.T) {
	tests := []struct {
		name           string
		source         fixedSource
		expectedStatus int
		expectedUser   string
	}{
		{
			name:           "bound user is stored in context",
			source:         fixedSource{user: domain.User{ID: "u1", Name: "Me", DailyGoal: 2000}},
			expectedStatus: http.StatusOK,
			expectedUser:   "u1",
		},
		{
			name:           "no current user",
			source:         fixedSource{err: domain.ErrUserNotFound},
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				user, ok := middleware.GetUser(r.Context())
				assert.True(t, ok)
				seen = user.ID
			})

			rec := httptest.NewRecorder()
			middleware.CurrentUser(tt.source)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/today", nil))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, tt.expectedUser, seen)
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	rec := httptest.NewRecorder()
	middleware.CORS(next).ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/v1/entries", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.False(t, called)
}
