package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

// RedisStore keeps sessions as JSON blobs with a rolling TTL. Sample cache
// entries share the session's lifetime.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisStore constructs the store with the given session lifetime.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func sessionKey(id string) string { return sessionKeyPrefix + id }

func sampleKey(sessionID, category, region, style string) string {
	return sessionKeyPrefix + sessionID + ":sample:" + strings.Join([]string{category, region, style}, "|")
}

// Create assigns a fresh id and writes the session.
func (s *RedisStore) Create(ctx context.Context, sess *Session) error {
	sess.ID = uuid.NewString()
	sess.CreatedAt = time.Now().UTC()
	return s.Save(ctx, sess)
}

// Get loads a session by id.
func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	raw, err := s.client.Get(ctx, sessionKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

// Save writes the session back and refreshes its TTL.
func (s *RedisStore) Save(ctx context.Context, sess *Session) error {
	if sess.ID == "" {
		return errors.New("session id is empty")
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(sess.ID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Delete removes the session. Sample cache entries are left to expire with
// their own TTLs.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// GetSample returns the cached demo text for a (category, region, style)
// pick, or ErrNotFound on a miss.
func (s *RedisStore) GetSample(ctx context.Context, sessionID, category, region, style string) (string, error) {
	raw, err := s.client.Get(ctx, sampleKey(sessionID, category, region, style)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load sample: %w", err)
	}
	return raw, nil
}

// PutSample caches demo text for the session's lifetime.
func (s *RedisStore) PutSample(ctx context.Context, sessionID, category, region, style, text string) error {
	if err := s.client.Set(ctx, sampleKey(sessionID, category, region, style), text, s.ttl).Err(); err != nil {
		return fmt.Errorf("store sample: %w", err)
	}
	return nil
}
