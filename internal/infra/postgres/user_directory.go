package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// UserDirectory resolves roles and subscription status for gating. A user
// missing from either table is simply non-privileged.
type UserDirectory struct {
	pool *pgxpool.Pool
}

func NewUserDirectory(pool *pgxpool.Pool) *UserDirectory {
	return &UserDirectory{pool: pool}
}

func (d *UserDirectory) IsAdmin(ctx context.Context, userID string) (bool, error) {
	var role string
	err := d.pool.QueryRow(ctx, `SELECT role FROM toeic_users WHERE user_id=$1`, userID).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup role: %w", err)
	}
	return role == "admin", nil
}

func (d *UserDirectory) HasActiveSubscription(ctx context.Context, userID string) (bool, error) {
	var count int
	err := d.pool.QueryRow(ctx, `
		SELECT count(*) FROM toeic_subscriptions
		WHERE user_id=$1 AND project_scope IN ('toeic', 'all') AND status='active'`,
		userID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("lookup subscription: %w", err)
	}
	return count > 0, nil
}
