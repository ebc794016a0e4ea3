package memory

import (
	"context"
	"sync"
)

// UserDirectory is a static role/subscription lookup for tests and for the
// Postgres-less demo wiring. Unknown users are plain free-tier users.
type UserDirectory struct {
	mu          sync.RWMutex
	admins      map[string]struct{}
	subscribers map[string]struct{}
}

func NewUserDirectory() *UserDirectory {
	return &UserDirectory{
		admins:      make(map[string]struct{}),
		subscribers: make(map[string]struct{}),
	}
}

func (d *UserDirectory) GrantAdmin(userID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.admins[userID] = struct{}{}
}

func (d *UserDirectory) GrantSubscription(userID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subscribers[userID] = struct{}{}
}

func (d *UserDirectory) IsAdmin(_ context.Context, userID string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.admins[userID]
	return ok, nil
}

func (d *UserDirectory) HasActiveSubscription(_ context.Context, userID string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.subscribers[userID]
	return ok, nil
}
