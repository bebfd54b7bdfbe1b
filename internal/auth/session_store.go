package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/HK9750/LMS-BACKEND/internal/cache"
	"github.com/HK9750/LMS-BACKEND/internal/model"
)

const sessionKeyPrefix = "session:"

// SessionStoreInterface defines the session snapshot operations. The session
// cache is the live-session source of truth: a token that still verifies but
// has no snapshot behind it is treated as logged out.
type SessionStoreInterface interface {
	Save(ctx context.Context, user *model.User, ttl time.Duration) error
	Get(ctx context.Context, userID uuid.UUID) (*model.User, error)
	Delete(ctx context.Context, userID uuid.UUID) error
}

// SessionStore keeps one serialized user snapshot per user id in Redis.
// Because the key is the user id, logging out from one device ends the
// session on every device sharing it.
type SessionStore struct {
	cache *cache.Client
}

// Ensure SessionStore implements SessionStoreInterface
var _ SessionStoreInterface = (*SessionStore)(nil)

// NewSessionStore creates a new session store.
func NewSessionStore(cache *cache.Client) *SessionStore {
	return &SessionStore{cache: cache}
}

func sessionKey(userID uuid.UUID) string {
	return sessionKeyPrefix + userID.String()
}

// Save writes the user snapshot under the user's id with the given TTL.
func (s *SessionStore) Save(ctx context.Context, user *model.User, ttl time.Duration) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal session snapshot: %w", err)
	}
	return s.cache.Set(ctx, sessionKey(user.ID), payload, ttl)
}

// Get returns the cached snapshot, or (nil, nil) when no session exists.
func (s *SessionStore) Get(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	data, err := s.cache.Get(ctx, sessionKey(userID))
	if err != nil || data == nil {
		return nil, nil
	}
	var user model.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("unmarshal session snapshot: %w", err)
	}
	return &user, nil
}

// Delete evicts the user's session snapshot.
func (s *SessionStore) Delete(ctx context.Context, userID uuid.UUID) error {
	return s.cache.Delete(ctx, sessionKey(userID))
}
