package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/dom/hydration-tracker/internal/domain"
	"github.com/dom/hydration-tracker/internal/repository"
	"github.com/google/uuid"
)

const (
	recentDaysWindow = 7
	streakLookback   = 30
)

// WaterLogService holds the day log of exactly one user, the active scope.
// Operations for any other user id, or issued before the scope finished
// loading, are dropped.
type WaterLogService struct {
	store repository.KVStore
	keys  repository.Keys
	now   func() time.Time

	mu     sync.RWMutex
	scope  string
	ready  bool
	loadID uint64
	days   []domain.DayData
}

func NewWaterLogService(store repository.KVStore, keys repository.Keys, now func() time.Time) *WaterLogService {
	return &WaterLogService{
		store: store,
		keys:  keys,
		now:   now,
	}
}

// Load rebinds the service to userID. Previously loaded days are discarded before
// the new user's log is read; corrupt data loads as an empty log.
func (s *WaterLogService) Load(ctx context.Context, userID string) error {
	s.mu.Lock()
	if s.scope != userID {
		log.Printf("Water log scope: %q -> %q", s.scope, userID)
	}
	s.scope = userID
	s.ready = false
	s.days = nil
	s.loadID++
	loadID := s.loadID
	s.mu.Unlock()

	var days []domain.DayData
	found, err := repository.GetJSON(ctx, s.store, s.keys.Log(userID), &days)
	if err != nil {
		if !found {
			// Store unreachable: stay not ready rather than overwrite the log later
			return fmt.Errorf("load log for %s: %w", userID, err)
		}
		log.Printf("Warning: invalid log JSON for %s, starting empty: %v", userID, err)
		days = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// A newer Load or Unbind won the race
	if s.loadID != loadID {
		return nil
	}
	s.days = days
	s.ready = true
	log.Printf("Loaded %d days for %s", len(days), userID)
	return nil
}

// Unbind drops the active scope and its days.
func (s *WaterLogService) Unbind() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scope = ""
	s.ready = false
	s.days = nil
	s.loadID++
}

// Scope returns the active user id and whether its log is loaded.
func (s *WaterLogService) Scope() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scope, s.ready
}

// Today returns today's record with its goal replaced by dailyGoal, or an empty
// record for today when there is none.
func (s *WaterLogService) Today(userID string, dailyGoal int) domain.DayData {
	today := domain.DayKey(s.now())
	empty := domain.DayData{
		Date:    today,
		Total:   0,
		Goal:    dailyGoal,
		Entries: []domain.WaterEntry{},
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.activeLocked(userID) {
		return empty
	}

	i := s.dayIndexLocked(today)
	if i < 0 {
		return empty
	}

	day := cloneDay(s.days[i])
	day.Goal = dailyGoal
	return day
}

// AddEntry logs amount of unit for today and persists the user's whole log.
// A persist failure leaves the entry in memory and is returned wrapping ErrPersist.
func (s *WaterLogService) AddEntry(ctx context.Context, userID string, amount float64, unit domain.Unit, dailyGoal int, message string) (domain.WaterEntry, error) {
	if amount <= 0 {
		return domain.WaterEntry{}, domain.ErrInvalidAmount
	}
	ml, err := domain.ToMilliliters(amount, unit)
	if err != nil {
		return domain.WaterEntry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.activeLocked(userID) {
		log.Printf("Dropped add entry for %s: active=%q ready=%v", userID, s.scope, s.ready)
		return domain.WaterEntry{}, domain.ErrInactiveScope
	}

	now := s.now()
	entry := domain.WaterEntry{
		ID:        userID + "_" + uuid.NewString(),
		Amount:    amount,
		Unit:      unit,
		Timestamp: now,
		Date:      domain.DayKey(now),
		Message:   message,
	}

	if i := s.dayIndexLocked(entry.Date); i >= 0 {
		day := &s.days[i]
		day.Total += ml
		day.Goal = dailyGoal
		day.Entries = append(day.Entries, entry)
	} else {
		s.days = append(s.days, domain.DayData{
			Date:    entry.Date,
			Total:   ml,
			Goal:    dailyGoal,
			Entries: []domain.WaterEntry{entry},
		})
	}
	log.Printf("Added %v%s (%dml) for %s", amount, unit, ml, userID)

	days := s.days
	if days == nil {
		days = []domain.DayData{}
	}
	return entry, wrapPersist(repository.SetJSON(ctx, s.store, s.keys.Log(userID), days))
}

// RecentDays summarises the 7 days ending today, oldest first.
func (s *WaterLogService) RecentDays(userID string, dailyGoal int) []domain.DaySummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.activeLocked(userID) {
		return nil
	}

	now := s.now()
	summaries := make([]domain.DaySummary, 0, recentDaysWindow)
	for i := recentDaysWindow - 1; i >= 0; i-- {
		date := now.AddDate(0, 0, -i)
		key := domain.DayKey(date)

		summary := domain.DaySummary{
			Date:    key,
			DayName: date.Format("Mon"),
			Goal:    dailyGoal,
		}
		if j := s.dayIndexLocked(key); j >= 0 {
			summary.Total = s.days[j].Total
			summary.Percentage = domain.Percentage(summary.Total, dailyGoal)
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

// Streak counts consecutive days, ending today, whose total met that day's own goal.
// If today has not met its goal the streak is 0.
func (s *WaterLogService) Streak(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.activeLocked(userID) {
		return 0
	}
	return s.streakLocked()
}

// Stats aggregates the whole log of the active user.
func (s *WaterLogService) Stats(userID string) domain.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats domain.Stats
	if !s.activeLocked(userID) {
		return stats
	}

	for _, day := range s.days {
		stats.TotalLogged += day.Total
		if day.GoalMet() {
			stats.GoalsMet++
		}
	}
	stats.DaysTracked = len(s.days)
	if stats.DaysTracked > 0 {
		stats.DailyAverage = int(float64(stats.TotalLogged)/float64(stats.DaysTracked) + 0.5)
	}
	stats.CurrentStreak = s.streakLocked()
	return stats
}

// Export returns a copy of the active user's full log.
func (s *WaterLogService) Export(userID string) ([]domain.DayData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.activeLocked(userID) {
		return nil, domain.ErrInactiveScope
	}

	days := make([]domain.DayData, 0, len(s.days))
	for _, d := range s.days {
		days = append(days, cloneDay(d))
	}
	return days, nil
}

func (s *WaterLogService) streakLocked() int {
	now := s.now()
	streak := 0
	for i := 0; i < streakLookback; i++ {
		j := s.dayIndexLocked(domain.DayKey(now.AddDate(0, 0, -i)))
		if j < 0 || !s.days[j].GoalMet() {
			break
		}
		streak++
	}
	return streak
}

func (s *WaterLogService) activeLocked(userID string) bool {
	return s.ready && userID != "" && s.scope == userID
}

func (s *WaterLogService) dayIndexLocked(date string) int {
	for i, d := range s.days {
		if d.Date == date {
			return i
		}
	}
	return -1
}

func cloneDay(d domain.DayData) domain.DayData {
	d.Entries = append([]domain.WaterEntry{}, d.Entries...)
	return d
}
