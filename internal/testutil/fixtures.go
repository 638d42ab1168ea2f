package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/dom/hydration-tracker/internal/domain"
	"github.com/dom/hydration-tracker/internal/notify"
	"github.com/dom/hydration-tracker/internal/repository"
	"github.com/google/uuid"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	name      string
	dailyGoal int
}

// NewUserBuilder creates a new UserBuilder with default values
func NewUserBuilder() *UserBuilder {
	return &UserBuilder{
		name:      fmt.Sprintf("user_%s", uuid.New().String()[:8]),
		dailyGoal: domain.DefaultDailyGoal,
	}
}

// WithName sets the display name
func (b *UserBuilder) WithName(name string) *UserBuilder {
	b.name = name
	return b
}

// WithDailyGoal sets the daily goal in ml
func (b *UserBuilder) WithDailyGoal(goal int) *UserBuilder {
	b.dailyGoal = goal
	return b
}

// Build returns the user without storing it
func (b *UserBuilder) Build() domain.User {
	return domain.User{
		ID:        uuid.NewString(),
		Name:      b.name,
		DailyGoal: b.dailyGoal,
		CreatedAt: TestNow,
	}
}

// DayBuilder creates day records for seeding logs
type DayBuilder struct {
	date    time.Time
	goal    int
	amounts []int
}

// NewDayBuilder creates a day on date with the default goal and no entries
func NewDayBuilder(date time.Time) *DayBuilder {
	return &DayBuilder{date: date, goal: domain.DefaultDailyGoal}
}

// WithGoal sets the goal recorded on the day
func (b *DayBuilder) WithGoal(goal int) *DayBuilder {
	b.goal = goal
	return b
}

// WithEntries adds one ml entry per amount
func (b *DayBuilder) WithEntries(amounts ...int) *DayBuilder {
	b.amounts = append(b.amounts, amounts...)
	return b
}

// Build returns the day with its total summed from the entries
func (b *DayBuilder) Build() domain.DayData {
	key := domain.DayKey(b.date)
	day := domain.DayData{
		Date:    key,
		Goal:    b.goal,
		Entries: []domain.WaterEntry{},
	}
	for i, ml := range b.amounts {
		day.Total += ml
		day.Entries = append(day.Entries, domain.WaterEntry{
			ID:        fmt.Sprintf("seed_%s_%d", key, i),
			Amount:    float64(ml),
			Unit:      domain.UnitMilliliter,
			Timestamp: b.date,
			Date:      key,
		})
	}
	return day
}

// SeedUsers stores users and the current selection
func SeedUsers(t *testing.T, store repository.KVStore, keys repository.Keys, currentUserID string, users ...domain.User) {
	t.Helper()

	ctx := context.Background()
	if err := repository.SetJSON(ctx, store, keys.Users(), users); err != nil {
		t.Fatalf("failed to seed users: %v", err)
	}
	if err := repository.SetJSON(ctx, store, keys.CurrentUserID(), currentUserID); err != nil {
		t.Fatalf("failed to seed current user: %v", err)
	}
}

// SeedLog stores a user's day collection
func SeedLog(t *testing.T, store repository.KVStore, keys repository.Keys, userID string, days ...domain.DayData) {
	t.Helper()

	if days == nil {
		days = []domain.DayData{}
	}
	if err := repository.SetJSON(context.Background(), store, keys.Log(userID), days); err != nil {
		t.Fatalf("failed to seed log: %v", err)
	}
}

// RecordingPlatform is a notify.Platform that records every call
type RecordingPlatform struct {
	mu         sync.Mutex
	Shown      []notify.Message
	Alerts     []notify.Alert
	Vibrations int

	CanVibrate bool
	Granted    bool

	events chan string
}

var _ notify.Platform = (*RecordingPlatform)(nil)

func NewRecordingPlatform() *RecordingPlatform {
	return &RecordingPlatform{
		CanVibrate: true,
		Granted:    true,
		events:     make(chan string, 64),
	}
}

func (p *RecordingPlatform) Show(title, body, tag string) {
	p.mu.Lock()
	p.Shown = append(p.Shown, notify.Message{Title: title, Body: body, Tag: tag})
	p.mu.Unlock()
	p.emit("show")
}

func (p *RecordingPlatform) ShowAlert(alert notify.Alert) {
	p.mu.Lock()
	p.Alerts = append(p.Alerts, alert)
	p.mu.Unlock()
	p.emit("alert")
}

func (p *RecordingPlatform) Vibrate([]time.Duration) bool {
	p.mu.Lock()
	p.Vibrations++
	ok := p.CanVibrate
	p.mu.Unlock()
	p.emit("vibrate")
	return ok
}

func (p *RecordingPlatform) RequestPermission(context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Granted, nil
}

// Messages returns a snapshot of the shown notifications
func (p *RecordingPlatform) Messages() []notify.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]notify.Message(nil), p.Shown...)
}

// AlertCount returns how many in-page alerts were shown
func (p *RecordingPlatform) AlertCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Alerts)
}

// VibrationCount returns how many vibrations were requested
func (p *RecordingPlatform) VibrationCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Vibrations
}

// WaitForShow blocks until a notification is shown
func (p *RecordingPlatform) WaitForShow(t *testing.T, timeout time.Duration) {
	t.Helper()

	deadline := time.After(timeout)
	for {
		select {
		case ev := <-p.events:
			if ev == "show" {
				return
			}
		case <-deadline:
			t.Fatal("timeout waiting for notification")
		}
	}
}

func (p *RecordingPlatform) emit(ev string) {
	select {
	case p.events <- ev:
	default:
	}
}

// CreateJSONRequest creates an HTTP request with a JSON body
func CreateJSONRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	t.Helper()

	var bodyReader *bytes.Buffer
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		bodyReader = bytes.NewBuffer(jsonBody)
	} else {
		bodyReader = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, bodyReader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return req
}

// Do sends a JSON request and returns the response
func Do(t *testing.T, method, url string, body interface{}) *http.Response {
	t.Helper()

	resp, err := http.DefaultClient.Do(CreateJSONRequest(t, method, url, body))
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}
