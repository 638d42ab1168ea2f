package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/dom/hydration-tracker/internal/domain"
	"github.com/dom/hydration-tracker/internal/repository"
	"github.com/google/uuid"
)

// UserService owns the user collection and the current-user selection. Every
// mutation is written through to the store before it returns.
type UserService struct {
	store       repository.KVStore
	keys        repository.Keys
	defaultGoal int
	now         func() time.Time

	mu            sync.RWMutex
	users         []domain.User
	currentUserID string
}

func NewUserService(store repository.KVStore, keys repository.Keys, defaultGoal int, now func() time.Time) *UserService {
	if defaultGoal <= 0 {
		defaultGoal = domain.DefaultDailyGoal
	}
	return &UserService{
		store:       store,
		keys:        keys,
		defaultGoal: defaultGoal,
		now:         now,
	}
}

// Load reads the persisted users. Missing or corrupt data yields a single default user.
func (s *UserService) Load(ctx context.Context) (domain.Roster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var users []domain.User
	found, err := repository.GetJSON(ctx, s.store, s.keys.Users(), &users)
	if err != nil {
		if !found {
			return domain.Roster{}, err
		}
		log.Printf("Warning: invalid users JSON, recreating default user: %v", err)
		users = nil
	}

	if len(users) == 0 {
		user := s.newUser(domain.DefaultUserName, s.defaultGoal)
		s.users = []domain.User{user}
		s.currentUserID = user.ID
		log.Printf("Created default user: %s", user.ID)

		var persistErr error
		if err := repository.SetJSON(ctx, s.store, s.keys.Log(user.ID), []domain.DayData{}); err != nil {
			persistErr = errors.Join(persistErr, err)
		}
		persistErr = errors.Join(persistErr, s.persistUsers(ctx), s.persistCurrent(ctx))
		return s.rosterLocked(), wrapPersist(persistErr)
	}

	s.users = users

	var current string
	if _, err := repository.GetJSON(ctx, s.store, s.keys.CurrentUserID(), &current); err != nil {
		log.Printf("Warning: invalid current user id: %v", err)
		current = ""
	}
	if s.indexLocked(current) < 0 {
		current = users[0].ID
		s.currentUserID = current
		return s.rosterLocked(), wrapPersist(s.persistCurrent(ctx))
	}
	s.currentUserID = current

	return s.rosterLocked(), nil
}

// Roster returns a snapshot of the users and the current selection.
func (s *UserService) Roster() domain.Roster {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rosterLocked()
}

// Get returns the user with the given id.
func (s *UserService) Get(userID string) (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexLocked(userID)
	if i < 0 {
		return domain.User{}, false
	}
	return s.users[i], true
}

// Current returns the currently selected user.
func (s *UserService) Current() (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexLocked(s.currentUserID)
	if i < 0 {
		return domain.User{}, false
	}
	return s.users[i], true
}

// AddUser creates a user with an empty log. The current selection is left unchanged.
func (s *UserService) AddUser(ctx context.Context, name string, dailyGoal int) (string, error) {
	if dailyGoal <= 0 {
		return "", domain.ErrInvalidGoal
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user := s.newUser(name, dailyGoal)
	s.users = append(s.users, user)
	log.Printf("Created user: %s (%s)", name, user.ID)

	err := errors.Join(
		repository.SetJSON(ctx, s.store, s.keys.Log(user.ID), []domain.DayData{}),
		s.persistUsers(ctx),
	)
	return user.ID, wrapPersist(err)
}

// UpdateUser merges the non-nil fields of update into the user.
func (s *UserService) UpdateUser(ctx context.Context, userID string, update domain.UserUpdate) (domain.User, error) {
	if update.DailyGoal != nil && *update.DailyGoal <= 0 {
		return domain.User{}, domain.ErrInvalidGoal
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(userID)
	if i < 0 {
		return domain.User{}, domain.ErrUserNotFound
	}

	if update.Name != nil {
		s.users[i].Name = *update.Name
	}
	if update.DailyGoal != nil {
		s.users[i].DailyGoal = *update.DailyGoal
	}

	return s.users[i], wrapPersist(s.persistUsers(ctx))
}

// DeleteUser removes a user and its persisted data. The last remaining user can't be
// deleted. If the deleted user was current, the first remaining user becomes current
// and its id is returned.
func (s *UserService) DeleteUser(ctx context.Context, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(userID)
	if i < 0 {
		return "", domain.ErrUserNotFound
	}
	if len(s.users) <= 1 {
		return "", domain.ErrLastUser
	}

	s.users = append(s.users[:i:i], s.users[i+1:]...)
	log.Printf("Deleted user: %s", userID)

	var persistErr error
	for _, key := range s.keys.UserScoped(userID) {
		persistErr = errors.Join(persistErr, s.store.Remove(ctx, key))
	}
	persistErr = errors.Join(persistErr, s.persistUsers(ctx))

	var switchedTo string
	if s.currentUserID == userID {
		switchedTo = s.users[0].ID
		s.currentUserID = switchedTo
		log.Printf("Auto-switching to: %s", switchedTo)
		persistErr = errors.Join(persistErr, s.persistCurrent(ctx))
	}

	return switchedTo, wrapPersist(persistErr)
}

// SwitchUser selects userID as current. It reports false when userID already is.
func (s *UserService) SwitchUser(ctx context.Context, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexLocked(userID) < 0 {
		return false, domain.ErrUserNotFound
	}
	if s.currentUserID == userID {
		return false, nil
	}

	log.Printf("Switch user: %s -> %s", s.currentUserID, userID)
	s.currentUserID = userID
	return true, wrapPersist(s.persistCurrent(ctx))
}

func (s *UserService) newUser(name string, dailyGoal int) domain.User {
	return domain.User{
		ID:        uuid.NewString(),
		Name:      name,
		DailyGoal: dailyGoal,
		CreatedAt: s.now(),
	}
}

func (s *UserService) indexLocked(userID string) int {
	if userID == "" {
		return -1
	}
	for i, u := range s.users {
		if u.ID == userID {
			return i
		}
	}
	return -1
}

func (s *UserService) rosterLocked() domain.Roster {
	return domain.Roster{
		Users:         append([]domain.User(nil), s.users...),
		CurrentUserID: s.currentUserID,
	}
}

func (s *UserService) persistUsers(ctx context.Context) error {
	return repository.SetJSON(ctx, s.store, s.keys.Users(), s.users)
}

func (s *UserService) persistCurrent(ctx context.Context) error {
	return repository.SetJSON(ctx, s.store, s.keys.CurrentUserID(), s.currentUserID)
}

// wrapPersist logs a failed write and marks it with ErrPersist. In-memory state is
// kept either way.
func wrapPersist(err error) error {
	if err == nil {
		return nil
	}
	log.Printf("Warning: persist failed: %v", err)
	return fmt.Errorf("%w: %w", domain.ErrPersist, err)
}
