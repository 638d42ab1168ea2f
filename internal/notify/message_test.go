package notify_test

import (
	"testing"

	"github.com/dom/hydration-tracker/internal/domain"
	"github.com/dom/hydration-tracker/internal/notify"
	"github.com/stretchr/testify/assert"
)

func TestReminderMessage(t *testing.T) {
	tests := []struct {
		name     string
		today    domain.DayData
		wantShow bool
		wantBody string
	}{
		{
			name:     "remaining below a liter",
			today:    domain.DayData{Total: 1250, Goal: 2000},
			wantShow: true,
			wantBody: "Time to drink some water! You still need 750ml to reach your daily goal.",
		},
		{
			name:     "remaining above a liter",
			today:    domain.DayData{Total: 500, Goal: 2000},
			wantShow: true,
			wantBody: "Time to drink some water! You still need 1.5L to reach your daily goal.",
		},
		{
			name:     "goal met suppresses reminder",
			today:    domain.DayData{Total: 2000, Goal: 2000},
			wantShow: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, show := notify.ReminderMessage(tt.today)
			assert.Equal(t, tt.wantShow, show)
			if tt.wantShow {
				assert.Equal(t, tt.wantBody, msg.Body)
				assert.Equal(t, notify.TagReminder, msg.Tag)
			}
		})
	}
}

func TestTestMessage(t *testing.T) {
	msg := notify.TestMessage(domain.DayData{Total: 100, Goal: 2000})
	assert.Equal(t, "This is a test! You need 1.9L more water today.", msg.Body)
	assert.Equal(t, notify.TagTest, msg.Tag)

	msg = notify.TestMessage(domain.DayData{Total: 2500, Goal: 2000})
	assert.Equal(t, "Great job! You've reached your daily goal! 🎉", msg.Body)
}

func TestAlertFor(t *testing.T) {
	today := domain.DayData{Total: 1500, Goal: 2000}
	msg, _ := notify.ReminderMessage(today)

	alert := notify.AlertFor("u1", msg, today)
	assert.Equal(t, "u1", alert.UserID)
	assert.Equal(t, 500, alert.Remaining)
	assert.False(t, alert.GoalMet)
}
