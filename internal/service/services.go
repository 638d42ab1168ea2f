package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/dom/hydration-tracker/internal/config"
	"github.com/dom/hydration-tracker/internal/domain"
	"github.com/dom/hydration-tracker/internal/notify"
	"github.com/dom/hydration-tracker/internal/reminder"
	"github.com/dom/hydration-tracker/internal/repository"
)

// Services wires the user store, the water log and the reminder scheduler to one
// current user. Switching users goes through Services so that the log and the
// scheduler are always torn down before the next user's data is loaded.
type Services struct {
	Users     *UserService
	Water     *WaterLogService
	Reminders *reminder.Scheduler

	platform notify.Platform
	onSwitch func(userID string)

	// switchMu serialises everything that changes the current user, and AddEntry
	// against those changes
	switchMu sync.Mutex
}

// NewServices builds the services. now may be nil to use the wall clock.
func NewServices(store repository.KVStore, platform notify.Platform, cfg *config.Config, now func() time.Time) *Services {
	if platform == nil {
		platform = notify.Nop{}
	}
	keys := repository.Keys{Namespace: cfg.StorageNamespace}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	clock := func() time.Time { return now().In(loc) }

	s := &Services{
		Users:    NewUserService(store, keys, cfg.DefaultDailyGoal, clock),
		Water:    NewWaterLogService(store, keys, clock),
		platform: platform,
	}
	s.Reminders = reminder.NewScheduler(store, keys, platform, s.handleDue, clock, cfg.ReminderIntervalUnit)
	return s
}

// OnSwitch registers a callback run after the current user changed and the new
// user's data is loaded.
func (s *Services) OnSwitch(fn func(userID string)) {
	s.onSwitch = fn
}

// Start loads the users and binds the current one.
func (s *Services) Start(ctx context.Context) (domain.Roster, error) {
	s.switchMu.Lock()
	defer s.switchMu.Unlock()

	roster, err := s.Users.Load(ctx)
	if err != nil && !errors.Is(err, domain.ErrPersist) {
		return roster, err
	}
	if bindErr := s.bind(ctx, roster.CurrentUserID); bindErr != nil {
		return roster, bindErr
	}
	return roster, err
}

// Stop cancels the reminder timer and unbinds the log.
func (s *Services) Stop() {
	s.switchMu.Lock()
	defer s.switchMu.Unlock()

	s.Reminders.Detach()
	s.Water.Unbind()
}

// CurrentUser returns the current user.
func (s *Services) CurrentUser() (domain.User, error) {
	user, ok := s.Users.Current()
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

// SwitchUser makes userID current and rebinds the log and the scheduler to it.
func (s *Services) SwitchUser(ctx context.Context, userID string) error {
	s.switchMu.Lock()
	defer s.switchMu.Unlock()

	changed, err := s.Users.SwitchUser(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrPersist) {
		return err
	}
	if !changed {
		return err
	}
	if bindErr := s.bind(ctx, userID); bindErr != nil {
		return bindErr
	}
	return err
}

// AddUser creates a user without switching to it.
func (s *Services) AddUser(ctx context.Context, name string, dailyGoal int) (string, error) {
	return s.Users.AddUser(ctx, name, dailyGoal)
}

// UpdateUser changes a user's name or goal.
func (s *Services) UpdateUser(ctx context.Context, userID string, update domain.UserUpdate) (domain.User, error) {
	return s.Users.UpdateUser(ctx, userID, update)
}

// DeleteUser removes a user. Deleting the current user switches to another one.
func (s *Services) DeleteUser(ctx context.Context, userID string) error {
	s.switchMu.Lock()
	defer s.switchMu.Unlock()

	current, _ := s.Users.Current()
	if current.ID == userID {
		// Tear down before the user's keys disappear
		s.Reminders.Detach()
		s.Water.Unbind()
	}

	switchedTo, err := s.Users.DeleteUser(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrPersist) {
		if current.ID == userID {
			if bindErr := s.bind(ctx, userID); bindErr != nil {
				log.Printf("ERROR [services.DeleteUser] rebind %s: %v", userID, bindErr)
			}
		}
		return err
	}
	if switchedTo != "" {
		if bindErr := s.bind(ctx, switchedTo); bindErr != nil {
			return bindErr
		}
	}
	return err
}

// EntryResult is a logged entry together with the user it was logged for and that
// user's day after the entry.
type EntryResult struct {
	User  domain.User
	Entry domain.WaterEntry
	Today domain.DayData
}

// AddEntry logs intake for the current user. The current user cannot change
// between logging the entry and taking the snapshot.
func (s *Services) AddEntry(ctx context.Context, amount float64, unit domain.Unit, message string) (EntryResult, error) {
	s.switchMu.Lock()
	defer s.switchMu.Unlock()

	user, err := s.CurrentUser()
	if err != nil {
		return EntryResult{}, err
	}
	entry, err := s.Water.AddEntry(ctx, user.ID, amount, unit, user.DailyGoal, message)
	if err != nil && !errors.Is(err, domain.ErrPersist) {
		return EntryResult{}, err
	}
	return EntryResult{
		User:  user,
		Entry: entry,
		Today: s.Water.Today(user.ID, user.DailyGoal),
	}, err
}

// Today returns the current user's progress for today.
func (s *Services) Today() (domain.DayData, error) {
	user, err := s.CurrentUser()
	if err != nil {
		return domain.DayData{}, err
	}
	return s.Water.Today(user.ID, user.DailyGoal), nil
}

// RecentDays returns the current user's last 7 days.
func (s *Services) RecentDays() ([]domain.DaySummary, error) {
	user, err := s.CurrentUser()
	if err != nil {
		return nil, err
	}
	return s.Water.RecentDays(user.ID, user.DailyGoal), nil
}

// Streak returns the current user's goal streak.
func (s *Services) Streak() (int, error) {
	user, err := s.CurrentUser()
	if err != nil {
		return 0, err
	}
	return s.Water.Streak(user.ID), nil
}

// Stats returns aggregates over the current user's whole log.
func (s *Services) Stats() (domain.Stats, error) {
	user, err := s.CurrentUser()
	if err != nil {
		return domain.Stats{}, err
	}
	return s.Water.Stats(user.ID), nil
}

// Export returns the current user's full log.
func (s *Services) Export() ([]domain.DayData, error) {
	user, err := s.CurrentUser()
	if err != nil {
		return nil, err
	}
	return s.Water.Export(user.ID)
}

// UpdateReminders changes the current user's reminder settings.
func (s *Services) UpdateReminders(ctx context.Context, update reminder.Update) (reminder.Settings, error) {
	user, err := s.CurrentUser()
	if err != nil {
		return reminder.Settings{}, err
	}
	return s.Reminders.UpdateSettings(ctx, user.ID, update)
}

// SendTestReminder fires a test reminder for the current user.
func (s *Services) SendTestReminder() error {
	user, err := s.CurrentUser()
	if err != nil {
		return err
	}
	return s.Reminders.SendTestFire(user.ID)
}

// bind tears down whatever is bound and loads userID. Must hold switchMu.
func (s *Services) bind(ctx context.Context, userID string) error {
	s.Reminders.Detach()
	s.Water.Unbind()

	if err := s.Water.Load(ctx, userID); err != nil {
		return err
	}
	s.Reminders.Attach(ctx, userID)

	if s.onSwitch != nil {
		s.onSwitch(userID)
	}
	return nil
}

// handleDue turns a reminder firing into platform notifications. Regular reminders
// are suppressed once today's goal is met.
func (s *Services) handleDue(due reminder.Due) {
	user, ok := s.Users.Get(due.UserID)
	if !ok {
		log.Printf("Reminder for unknown user %s dropped", due.UserID)
		return
	}
	today := s.Water.Today(user.ID, user.DailyGoal)

	var msg notify.Message
	if due.Test {
		msg = notify.TestMessage(today)
	} else {
		var show bool
		msg, show = notify.ReminderMessage(today)
		if !show {
			log.Printf("Reminder for %s suppressed: goal met", user.ID)
			return
		}
	}

	s.platform.Show(msg.Title, msg.Body, msg.Tag)
	if due.Settings.VisualAlerts {
		s.platform.ShowAlert(notify.AlertFor(user.ID, msg, today))
	}
	if due.Settings.Vibration && !due.Test {
		if !s.platform.Vibrate(notify.VibrationPattern) {
			log.Printf("Vibration not supported for %s", user.ID)
		}
	}
}
