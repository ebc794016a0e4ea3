package app

import (
	"context"

	"toeic-quiz-service/internal/domain"
)

// UserDirectory resolves the privilege level of a user for gating purposes.
type UserDirectory interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
	HasActiveSubscription(ctx context.Context, userID string) (bool, error)
}

// AttemptCounter counts the attempts a user recorded during the current
// calendar day (UTC; the store's clock is authoritative).
type AttemptCounter interface {
	CountToday(ctx context.Context, userID string) (int, error)
}

// Gate applies the free-tier daily quiz limit: admins and active subscribers
// are never gated, everyone else gets Limit starts per UTC day.
type Gate struct {
	users    UserDirectory
	attempts AttemptCounter
	limit    int
}

const DefaultDailyLimit = 3

func NewGate(users UserDirectory, attempts AttemptCounter, limit int) *Gate {
	if limit <= 0 {
		limit = DefaultDailyLimit
	}
	return &Gate{users: users, attempts: attempts, limit: limit}
}

// Check returns domain.ErrDailyLimitReached when the user has exhausted the
// free daily starts. A missing user is treated as non-privileged, not as an
// error, matching the permissive lookup of the original gate.
func (g *Gate) Check(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	admin, err := g.users.IsAdmin(ctx, userID)
	if err != nil {
		return err
	}
	if admin {
		return nil
	}
	subscribed, err := g.users.HasActiveSubscription(ctx, userID)
	if err != nil {
		return err
	}
	if subscribed {
		return nil
	}
	count, err := g.attempts.CountToday(ctx, userID)
	if err != nil {
		return err
	}
	if count >= g.limit {
		return domain.ErrDailyLimitReached
	}
	return nil
}
