package domain

import (
	"math"
	"time"
)

// DayKeyLayout is the calendar-day key format used to group entries
const DayKeyLayout = "2006-01-02"

// DayKey returns the day key of t in t's own location.
func DayKey(t time.Time) string {
	return t.Format(DayKeyLayout)
}

type WaterEntry struct {
	ID        string    `json:"id"`
	Amount    float64   `json:"amount"`
	Unit      Unit      `json:"unit"`
	Timestamp time.Time `json:"timestamp"`
	Date      string    `json:"date"`
	Message   string    `json:"message,omitempty"`
}

// DayData is one user's intake for one calendar day. Total is a cached sum of the
// entries' ml-equivalents and Goal is the goal in effect at the last write.
type DayData struct {
	Date    string       `json:"date"`
	Total   int          `json:"total"`
	Goal    int          `json:"goal"`
	Entries []WaterEntry `json:"entries"`
}

// GoalMet reports whether the day's total reached its own stored goal.
func (d DayData) GoalMet() bool {
	return d.Total >= d.Goal
}

// Remaining returns how many ml are still missing to reach the goal, never negative.
func (d DayData) Remaining() int {
	if d.Total >= d.Goal {
		return 0
	}
	return d.Goal - d.Total
}

// Percentage returns progress towards goal clamped to [0, 100].
func Percentage(total, goal int) float64 {
	if goal <= 0 || total <= 0 {
		return 0
	}
	return math.Min(float64(total)/float64(goal)*100, 100)
}

// DaySummary is one day of the rolling history window
type DaySummary struct {
	Date       string  `json:"date"`
	DayName    string  `json:"dayName"`
	Total      int     `json:"total"`
	Goal       int     `json:"goal"`
	Percentage float64 `json:"percentage"`
}

// Stats aggregates a user's whole log
type Stats struct {
	DaysTracked   int `json:"daysTracked"`
	GoalsMet      int `json:"goalsMet"`
	DailyAverage  int `json:"dailyAverage"`
	TotalLogged   int `json:"totalLogged"`
	CurrentStreak int `json:"currentStreak"`
}
