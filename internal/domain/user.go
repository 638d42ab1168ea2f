package domain

import "time"

const (
	DefaultUserName  = "Me"
	DefaultDailyGoal = 2000
)

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	DailyGoal int       `json:"dailyGoal"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserUpdate holds the fields of a partial user update. Nil fields are left unchanged.
type UserUpdate struct {
	Name      *string `json:"name"`
	DailyGoal *int    `json:"dailyGoal"`
}

// Roster is the loaded user collection together with the current selection.
type Roster struct {
	Users         []User `json:"users"`
	CurrentUserID string `json:"currentUserId"`
}
