package middleware

import (
	"context"
	"log"
	"net/http"

	"github.com/dom/hydration-tracker/internal/domain"
)

type contextKey string

const (
	UserKey contextKey = "currentUser"
)

// CurrentUserSource resolves the tracker's current user.
type CurrentUserSource interface {
	CurrentUser() (domain.User, error)
}

// CurrentUser rejects requests made before a current user is bound and stores the
// user in the request context otherwise.
func CurrentUser(source CurrentUserSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := source.CurrentUser()
			if err != nil {
				log.Printf("ERROR [middleware.CurrentUser] no current user: %v", err)
				http.Error(w, "No current user", http.StatusServiceUnavailable)
				return
			}

			ctx := context.WithValue(r.Context(), UserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetUser(ctx context.Context) (domain.User, bool) {
	user, ok := ctx.Value(UserKey).(domain.User)
	return user, ok
}
