package reminder

import (
	"context"
	"errors"
	"log"
	"math"
	"sync"
	"time"

	"github.com/dom/hydration-tracker/internal/domain"
	"github.com/dom/hydration-tracker/internal/notify"
	"github.com/dom/hydration-tracker/internal/repository"
)

const (
	DefaultIntervalMinutes = 60
	// MaxIntervalMinutes is one week.
	MaxIntervalMinutes = 7 * 24 * 60
)

// Settings is one user's reminder configuration plus the live timer state.
type Settings struct {
	Enabled         bool       `json:"enabled"`
	IntervalMinutes int        `json:"intervalMinutes"`
	VisualAlerts    bool       `json:"visualAlerts"`
	Vibration       bool       `json:"vibration"`
	LastFired       *time.Time `json:"lastFired,omitempty"`
	NextFireAt      *time.Time `json:"nextFireAt,omitempty"`
}

// DefaultSettings returns the settings of a user who never configured reminders.
func DefaultSettings() Settings {
	return Settings{
		IntervalMinutes: DefaultIntervalMinutes,
		VisualAlerts:    true,
		Vibration:       true,
	}
}

// Update is a partial settings change. Nil fields are left unchanged.
type Update struct {
	Enabled         bool  `json:"enabled"`
	IntervalMinutes *int  `json:"intervalMinutes"`
	VisualAlerts    *bool `json:"visualAlerts"`
	Vibration       *bool `json:"vibration"`
}

// Due is delivered each time a reminder fires.
type Due struct {
	UserID   string
	At       time.Time
	Test     bool
	Settings Settings
}

// DueFunc receives reminder firings. It runs on the scheduler's goroutine and must
// not call Attach, Detach or UpdateSettings.
type DueFunc func(Due)

// task is one running repeating timer.
type task struct {
	stop chan struct{}
	done chan struct{}
}

// cancel stops the task and waits until an in-flight firing has returned.
func (t *task) cancel() {
	close(t.stop)
	<-t.done
}

// Scheduler runs at most one repeating reminder timer, for the attached user.
type Scheduler struct {
	store       repository.KVStore
	keys        repository.Keys
	permissions notify.PermissionRequester
	onDue       DueFunc
	now         func() time.Time
	unit        time.Duration

	// ctl serialises Attach, Detach and UpdateSettings
	ctl sync.Mutex

	mu       sync.Mutex
	userID   string
	settings Settings
	task     *task
}

// NewScheduler creates a detached scheduler. unit is the length of one interval
// "minute"; production passes time.Minute.
func NewScheduler(store repository.KVStore, keys repository.Keys, permissions notify.PermissionRequester, onDue DueFunc, now func() time.Time, unit time.Duration) *Scheduler {
	if unit <= 0 {
		unit = time.Minute
	}
	return &Scheduler{
		store:       store,
		keys:        keys,
		permissions: permissions,
		onDue:       onDue,
		now:         now,
		unit:        unit,
		settings:    DefaultSettings(),
	}
}

// Attach cancels any running timer, loads userID's settings and starts the timer
// when reminders are enabled for that user.
func (s *Scheduler) Attach(ctx context.Context, userID string) {
	s.ctl.Lock()
	defer s.ctl.Unlock()

	s.cancelTask()

	settings := s.loadSettings(ctx, userID)

	s.mu.Lock()
	s.userID = userID
	s.settings = settings
	if settings.Enabled {
		s.startLocked()
	}
	s.mu.Unlock()

	log.Printf("Reminders attached to %s (enabled=%v interval=%dm)", userID, settings.Enabled, settings.IntervalMinutes)
}

// Detach cancels the timer and forgets the attached user.
func (s *Scheduler) Detach() {
	s.ctl.Lock()
	defer s.ctl.Unlock()

	s.cancelTask()

	s.mu.Lock()
	s.userID = ""
	s.settings = DefaultSettings()
	s.mu.Unlock()
}

// UserID returns the attached user id, or "" when detached.
func (s *Scheduler) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// Settings returns a snapshot of the attached user's settings and timer state.
func (s *Scheduler) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// UpdateSettings applies a partial update for userID. The enabled flag and every
// provided field are persisted under their own keys. Changing enabled or the
// interval restarts the timer.
func (s *Scheduler) UpdateSettings(ctx context.Context, userID string, update Update) (Settings, error) {
	if update.IntervalMinutes != nil && !s.validInterval(*update.IntervalMinutes) {
		return Settings{}, domain.ErrInvalidInterval
	}

	s.ctl.Lock()
	defer s.ctl.Unlock()

	s.mu.Lock()
	if s.userID == "" || s.userID != userID {
		active := s.userID
		s.mu.Unlock()
		log.Printf("Dropped reminder update for %s: active=%q", userID, active)
		return Settings{}, domain.ErrInactiveScope
	}
	restart := update.Enabled != s.settings.Enabled ||
		(update.IntervalMinutes != nil && *update.IntervalMinutes != s.settings.IntervalMinutes)
	s.mu.Unlock()

	if restart {
		s.cancelTask()
	}

	s.mu.Lock()
	s.settings.Enabled = update.Enabled
	if update.IntervalMinutes != nil {
		s.settings.IntervalMinutes = *update.IntervalMinutes
	}
	if update.VisualAlerts != nil {
		s.settings.VisualAlerts = *update.VisualAlerts
	}
	if update.Vibration != nil {
		s.settings.Vibration = *update.Vibration
	}
	if restart {
		s.settings.NextFireAt = nil
		if s.settings.Enabled {
			s.startLocked()
		}
	}
	settings := s.settings
	s.mu.Unlock()

	err := s.set(ctx, userID, repository.FieldNotifyEnabled, update.Enabled)
	if update.IntervalMinutes != nil {
		err = errors.Join(err, s.set(ctx, userID, repository.FieldNotifyInterval, *update.IntervalMinutes))
	}
	if update.VisualAlerts != nil {
		err = errors.Join(err, s.set(ctx, userID, repository.FieldNotifyVisual, *update.VisualAlerts))
	}
	if update.Vibration != nil {
		err = errors.Join(err, s.set(ctx, userID, repository.FieldNotifyVibration, *update.Vibration))
	}
	if err != nil {
		log.Printf("Warning: persist reminder settings for %s: %v", userID, err)
		return settings, errors.Join(domain.ErrPersist, err)
	}
	return settings, nil
}

// RequestPermission asks the platform for notification permission. Denial, lack of
// support and errors all report false.
func (s *Scheduler) RequestPermission(ctx context.Context) bool {
	if s.permissions == nil {
		return false
	}
	granted, err := s.permissions.RequestPermission(ctx)
	if err != nil {
		log.Printf("Notification permission request failed: %v", err)
		return false
	}
	return granted
}

// SendTestFire delivers a test firing for userID on the caller's goroutine.
func (s *Scheduler) SendTestFire(userID string) error {
	s.mu.Lock()
	if s.userID == "" || s.userID != userID {
		s.mu.Unlock()
		return domain.ErrInactiveScope
	}
	due := Due{UserID: userID, At: s.now(), Test: true, Settings: s.settings}
	onDue := s.onDue
	s.mu.Unlock()

	if onDue != nil {
		onDue(due)
	}
	return nil
}

// validInterval reports whether minutes is within range and its period fits in a
// time.Duration.
func (s *Scheduler) validInterval(minutes int) bool {
	if minutes <= 0 || minutes > MaxIntervalMinutes {
		return false
	}
	return int64(minutes) <= math.MaxInt64/int64(s.unit)
}

// startLocked starts a new timer task. Must be called with mu held and no live task.
func (s *Scheduler) startLocked() {
	period := time.Duration(s.settings.IntervalMinutes) * s.unit
	next := s.now().Add(period)
	s.settings.NextFireAt = &next

	t := &task{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	s.task = t
	go s.run(t, s.userID, period)
}

// cancelTask stops the live task, if any, and waits for it to exit. Must be called
// with ctl held and mu not held.
func (s *Scheduler) cancelTask() {
	s.mu.Lock()
	t := s.task
	s.task = nil
	s.settings.NextFireAt = nil
	s.mu.Unlock()

	if t != nil {
		t.cancel()
	}
}

func (s *Scheduler) run(t *task, userID string, period time.Duration) {
	defer close(t.done)

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			s.fire(t, userID, period)
		}
	}
}

func (s *Scheduler) fire(t *task, userID string, period time.Duration) {
	s.mu.Lock()
	if s.task != t || s.userID != userID {
		s.mu.Unlock()
		return
	}
	now := s.now()
	next := now.Add(period)
	s.settings.LastFired = &now
	s.settings.NextFireAt = &next
	due := Due{UserID: userID, At: now, Settings: s.settings}
	onDue := s.onDue
	s.mu.Unlock()

	if err := s.set(context.Background(), userID, repository.FieldNotifyLastFired, now); err != nil {
		log.Printf("Warning: persist last reminder for %s: %v", userID, err)
	}

	if onDue != nil {
		onDue(due)
	}
}

func (s *Scheduler) loadSettings(ctx context.Context, userID string) Settings {
	settings := DefaultSettings()

	s.get(ctx, userID, repository.FieldNotifyEnabled, &settings.Enabled)
	s.get(ctx, userID, repository.FieldNotifyVisual, &settings.VisualAlerts)
	s.get(ctx, userID, repository.FieldNotifyVibration, &settings.Vibration)

	interval := settings.IntervalMinutes
	if s.get(ctx, userID, repository.FieldNotifyInterval, &interval) {
		if s.validInterval(interval) {
			settings.IntervalMinutes = interval
		} else {
			log.Printf("Warning: ignoring out of range reminder interval %d for %s", interval, userID)
		}
	}

	var last time.Time
	if s.get(ctx, userID, repository.FieldNotifyLastFired, &last) {
		settings.LastFired = &last
	}
	return settings
}

// get decodes one setting into v. Absent or invalid values report false.
func (s *Scheduler) get(ctx context.Context, userID, field string, v interface{}) bool {
	found, err := repository.GetJSON(ctx, s.store, s.keys.User(userID, field), v)
	if err != nil {
		log.Printf("Warning: could not read %s for %s: %v", field, userID, err)
		return false
	}
	return found
}

func (s *Scheduler) set(ctx context.Context, userID, field string, v interface{}) error {
	return repository.SetJSON(ctx, s.store, s.keys.User(userID, field), v)
}
