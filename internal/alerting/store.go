package alerting

import (
	"sync"
	"time"

	"github.com/boddenberg/finance-insights-bfa-go/internal/domain"
)

// MergeCandidates folds candidates into existing. A candidate whose id is
// unknown is appended as a new ACTIVE alert. A known id keeps the existing
// alert, RESOLVED ones included, unless cooldown is positive and the alert
// was resolved at least cooldown before now; then the candidate replaces it.
// It returns the merged list and the alerts that became ACTIVE.
func MergeCandidates(existing, candidates []domain.Alert, now time.Time, cooldown time.Duration) (merged, added []domain.Alert) {
	merged = make([]domain.Alert, len(existing), len(existing)+len(candidates))
	copy(merged, existing)

	index := make(map[string]int, len(merged))
	for i, a := range merged {
		index[a.AlertID] = i
	}

	for _, c := range candidates {
		fresh := c
		fresh.Status = domain.AlertActive
		fresh.ResolvedAt = nil
		fresh.Notified = false
		if fresh.TriggeredAt.IsZero() {
			fresh.TriggeredAt = now
		}

		i, ok := index[c.AlertID]
		if !ok {
			index[c.AlertID] = len(merged)
			merged = append(merged, fresh)
			added = append(added, fresh)
			continue
		}
		if refireable(merged[i], now, cooldown) {
			merged[i] = fresh
			added = append(added, fresh)
		}
	}
	return merged, added
}

func refireable(a domain.Alert, now time.Time, cooldown time.Duration) bool {
	if cooldown <= 0 || a.IsActive() || a.ResolvedAt == nil {
		return false
	}
	return now.Sub(*a.ResolvedAt) >= cooldown
}

// Store is the in-process alert registry. All methods are safe for
// concurrent use and return copies.
type Store struct {
	mu       sync.Mutex
	byUser   map[string][]domain.Alert
	owner    map[string]string // alertID -> userID
	cooldown time.Duration
	now      func() time.Time
}

// StoreOption customizes a Store.
type StoreOption func(*Store)

// WithRefireCooldown lets a RESOLVED alert fire again once d has elapsed
// since it was resolved. Zero keeps resolved alerts resolved.
func WithRefireCooldown(d time.Duration) StoreOption {
	return func(s *Store) { s.cooldown = d }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// NewStore creates an empty store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		byUser: make(map[string][]domain.Alert),
		owner:  make(map[string]string),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Merge adds candidates to userID's alerts and returns the newly active ones.
// A candidate whose id already belongs to another user is refused.
func (s *Store) Merge(userID string, candidates []domain.Alert) []domain.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	owned := make([]domain.Alert, 0, len(candidates))
	for _, c := range candidates {
		if owner, ok := s.owner[c.AlertID]; ok && owner != userID {
			continue
		}
		c.UserID = userID
		owned = append(owned, c)
	}
	merged, added := MergeCandidates(s.byUser[userID], owned, s.now(), s.cooldown)
	s.byUser[userID] = merged
	for _, a := range added {
		s.owner[a.AlertID] = userID
	}
	return added
}

// Resolve moves an ACTIVE alert to RESOLVED. It reports whether a transition
// happened; unknown or already resolved ids are a no-op.
func (s *Store) Resolve(alertID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.lookup(alertID)
	if a == nil || !a.IsActive() {
		return false
	}
	resolvedAt := s.now()
	a.Status = domain.AlertResolved
	a.ResolvedAt = &resolvedAt
	return true
}

// MarkNotified flags an alert as delivered to the notifier.
func (s *Store) MarkNotified(alertID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a := s.lookup(alertID); a != nil {
		a.Notified = true
	}
}

// Active returns userID's ACTIVE alerts in trigger order.
func (s *Store) Active(userID string) []domain.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := make([]domain.Alert, 0, len(s.byUser[userID]))
	for _, a := range s.byUser[userID] {
		if a.IsActive() {
			active = append(active, a)
		}
	}
	return active
}

// History returns every alert of userID, resolved ones included.
func (s *Store) History(userID string) []domain.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := make([]domain.Alert, len(s.byUser[userID]))
	copy(history, s.byUser[userID])
	return history
}

// lookup must be called with mu held.
func (s *Store) lookup(alertID string) *domain.Alert {
	userID, ok := s.owner[alertID]
	if !ok {
		return nil
	}
	alerts := s.byUser[userID]
	for i := range alerts {
		if alerts[i].AlertID == alertID {
			return &alerts[i]
		}
	}
	return nil
}
