package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/common/models"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/llm"
)

// Session is the per-conversation state threaded between turns. One entry
// per session key; the store serializes access so concurrent handlers for
// the same session cannot interleave partial updates.
type Session struct {
	History []llm.Message `json:"history"`

	// LastRaw is the most recent raw field map extracted by the model;
	// River follow-up answers are merged into it before re-normalizing.
	LastRaw     map[string]interface{}     `json:"last_raw,omitempty"`
	LastProfile *models.ParticipantProfile `json:"last_profile,omitempty"`

	// Selection stage: matches offered to the participant and the titles
	// they picked.
	Matches        []models.MatchResult `json:"matches,omitempty"`
	SelectedTitles []string             `json:"selected_titles,omitempty"`

	// RiverPending marks that a River Program confirmation or its follow-up
	// answers are expected next.
	RiverPending bool `json:"river_pending,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// SessionStore persists per-session chat state keyed by session id.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (*Session, error)
	Put(ctx context.Context, sessionID string, session *Session) error
	Delete(ctx context.Context, sessionID string) error
}

// RedisSessionStore keeps sessions in Redis with a TTL so abandoned
// conversations expire on their own.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

func sessionKey(sessionID string) string {
	return "chat:session:" + sessionID
}

func (s *RedisSessionStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	raw, err := s.client.Get(ctx, sessionKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *RedisSessionStore) Put(ctx context.Context, sessionID string, session *Session) error {
	session.UpdatedAt = time.Now().UTC()
	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKey(sessionID), raw, s.ttl).Err()
}

func (s *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, sessionKey(sessionID)).Err()
}

// MemorySessionStore is the in-process implementation used in tests.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: map[string]*Session{}}
}

func (s *MemorySessionStore) Get(_ context.Context, sessionID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	// Copy through JSON so callers cannot mutate stored state in place.
	raw, err := json.Marshal(session)
	if err != nil {
		return nil, err
	}
	var copied Session
	if err := json.Unmarshal(raw, &copied); err != nil {
		return nil, err
	}
	return &copied, nil
}

func (s *MemorySessionStore) Put(_ context.Context, sessionID string, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session.UpdatedAt = time.Now().UTC()
	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	var copied Session
	if err := json.Unmarshal(raw, &copied); err != nil {
		return err
	}
	s.sessions[sessionID] = &copied
	return nil
}

func (s *MemorySessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}
