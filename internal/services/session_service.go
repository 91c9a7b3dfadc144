package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

// ErrSessionNotFound is returned when a session ID is unknown or expired
var ErrSessionNotFound = errors.New("session not found")

// Session is the server-side record behind a session cookie
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionService stores sessions in Redis when available, with an in-memory
// TTL store as the development fallback. Earlier backends (in-process map,
// filesystem) are gone; Redis is the production store.
type SessionService struct {
	redis *RedisService
	local *cache.Cache
	ttl   time.Duration
}

// NewSessionService creates a session store. redisService may be nil.
func NewSessionService(redisService *RedisService, ttl time.Duration) *SessionService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	s := &SessionService{
		redis: redisService,
		ttl:   ttl,
	}
	if redisService == nil {
		s.local = cache.New(ttl, 2*ttl)
		slog.Warn("sessions: Redis not configured, using in-memory store")
	}
	return s
}

// Create stores a new session and returns it
func (s *SessionService) Create(ctx context.Context, userID, email string) (*Session, error) {
	session := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Email:     email,
		CreatedAt: time.Now(),
	}

	if s.redis == nil {
		s.local.Set(session.ID, *session, cache.DefaultExpiration)
		return session, nil
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.redis.Set(ctx, sessionKeyPrefix+session.ID, payload, s.ttl); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	return session, nil
}

// Get looks up a session by ID
func (s *SessionService) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}

	if s.redis == nil {
		if v, ok := s.local.Get(id); ok {
			session := v.(Session)
			return &session, nil
		}
		return nil, ErrSessionNotFound
	}

	raw, err := s.redis.Get(ctx, sessionKeyPrefix+id)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &session, nil
}

// Delete removes a session, ignoring unknown IDs
func (s *SessionService) Delete(ctx context.Context, id string) error {
	if s.redis == nil {
		s.local.Delete(id)
		return nil
	}
	return s.redis.Delete(ctx, sessionKeyPrefix+id)
}
