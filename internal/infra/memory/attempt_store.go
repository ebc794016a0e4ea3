package memory

import (
	"context"
	"sync"
	"time"

	"toeic-quiz-service/internal/domain"
)

// AttemptStore keeps completed attempts in memory. It backs the server when
// no Postgres is configured and doubles as the attempt fake in tests.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts []domain.Attempt
	nextID   int64
	clock    func() time.Time
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{nextID: 1, clock: time.Now}
}

// NewAttemptStoreWithClock is test-only for deterministic "today" boundaries.
func NewAttemptStoreWithClock(clock func() time.Time) *AttemptStore {
	return &AttemptStore{nextID: 1, clock: clock}
}

func (s *AttemptStore) SaveAttempt(_ context.Context, attempt domain.Attempt) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempt.ID = s.nextID
	s.nextID++
	if attempt.Date.IsZero() {
		attempt.Date = s.clock()
	}
	s.attempts = append(s.attempts, attempt)
	return attempt.ID, nil
}

// CountToday counts the user's attempts since UTC midnight.
func (s *AttemptStore) CountToday(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dayStart := s.clock().UTC().Truncate(24 * time.Hour)
	count := 0
	for _, a := range s.attempts {
		if a.UserID == userID && !a.Date.UTC().Before(dayStart) {
			count++
		}
	}
	return count, nil
}

// Ranking aggregates total score and attempt count per user, ordered by
// total score descending.
func (s *AttemptStore) Ranking(_ context.Context, limit int) ([]domain.RankingRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := make(map[string]*domain.RankingRow)
	order := make([]string, 0)
	for _, a := range s.attempts {
		row, ok := totals[a.UserID]
		if !ok {
			row = &domain.RankingRow{UserID: a.UserID, Nickname: a.UserID}
			totals[a.UserID] = row
			order = append(order, a.UserID)
		}
		row.TotalScore += a.Score
		row.MissionCount++
	}

	rows := make([]domain.RankingRow, 0, len(order))
	for _, id := range order {
		rows = append(rows, *totals[id])
	}
	for i := 0; i < len(rows); i++ {
		for j := i + 1; j < len(rows); j++ {
			if rows[j].TotalScore > rows[i].TotalScore {
				rows[i], rows[j] = rows[j], rows[i]
			}
		}
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// Attempts returns a copy of everything stored so far.
func (s *AttemptStore) Attempts() []domain.Attempt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Attempt, len(s.attempts))
	copy(out, s.attempts)
	return out
}
