package notify

import (
	"fmt"
	"time"

	"github.com/dom/hydration-tracker/internal/domain"
)

const (
	TagReminder = "water-reminder"
	TagTest     = "water-test"
)

// VibrationPattern is played alongside a reminder when vibration is enabled.
var VibrationPattern = []time.Duration{200 * time.Millisecond, 100 * time.Millisecond, 200 * time.Millisecond}

// Message is a composed notification
type Message struct {
	Title string
	Body  string
	Tag   string
}

// ReminderMessage composes the periodic reminder for today's progress. It returns
// false when the goal is already met and nothing should be shown.
func ReminderMessage(today domain.DayData) (Message, bool) {
	remaining := today.Goal - today.Total
	if remaining <= 0 {
		return Message{}, false
	}
	return Message{
		Title: "💧 Hydration Reminder",
		Body:  fmt.Sprintf("Time to drink some water! You still need %s to reach your daily goal.", domain.FormatMilliliters(remaining)),
		Tag:   TagReminder,
	}, true
}

// TestMessage composes the user-triggered test notification. It is always shown.
func TestMessage(today domain.DayData) Message {
	msg := Message{
		Title: "💧 Test Notification",
		Tag:   TagTest,
	}
	if remaining := today.Goal - today.Total; remaining > 0 {
		msg.Body = fmt.Sprintf("This is a test! You need %s more water today.", domain.FormatMilliliters(remaining))
	} else {
		msg.Body = "Great job! You've reached your daily goal! 🎉"
	}
	return msg
}

// AlertFor builds the in-page alert matching msg.
func AlertFor(userID string, msg Message, today domain.DayData) Alert {
	return Alert{
		UserID:    userID,
		Title:     msg.Title,
		Body:      msg.Body,
		Total:     today.Total,
		Goal:      today.Goal,
		Remaining: today.Remaining(),
		GoalMet:   today.GoalMet(),
	}
}
