package notify

import (
	"context"
	"time"
)

// Notifier shows a system notification. It may silently do nothing when the
// platform has no permission.
type Notifier interface {
	Show(title, body, tag string)
}

// Vibrator plays a vibration pattern and reports whether the platform supports it.
type Vibrator interface {
	Vibrate(pattern []time.Duration) bool
}

// PermissionRequester asks the platform for notification permission. It blocks
// until the platform answers or ctx is done.
type PermissionRequester interface {
	RequestPermission(ctx context.Context) (bool, error)
}

// AlertPresenter shows an in-page alert over the tracker UI.
type AlertPresenter interface {
	ShowAlert(alert Alert)
}

// Platform is everything the tracker needs from the host it runs on.
type Platform interface {
	Notifier
	Vibrator
	PermissionRequester
	AlertPresenter
}

// Alert is the in-page reminder card
type Alert struct {
	UserID    string `json:"userId"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Total     int    `json:"total"`
	Goal      int    `json:"goal"`
	Remaining int    `json:"remaining"`
	GoalMet   bool   `json:"goalMet"`
}

// Nop is a Platform with no notification support.
type Nop struct{}

func (Nop) Show(string, string, string) {}

func (Nop) Vibrate([]time.Duration) bool { return false }

func (Nop) RequestPermission(context.Context) (bool, error) { return false, nil }

func (Nop) ShowAlert(Alert) {}
