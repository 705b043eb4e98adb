package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jafarshop/storefront/internal/domain"
)

// ErrSessionNotFound is returned for unknown or expired tokens
var ErrSessionNotFound = errors.New("session not found")

// Store keeps bearer tokens in Redis, each mapped to the requester it
// authenticates
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{
		client: client,
		ttl:    ttl,
	}
}

// Create issues a new token for requester
func (s *Store) Create(ctx context.Context, requester domain.Requester) (string, error) {
	token := uuid.NewString()
	data, err := json.Marshal(requester)
	if err != nil {
		return "", fmt.Errorf("marshal session failed: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(token), data, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("redis set failed: %w", err)
	}
	return token, nil
}

func (s *Store) Get(ctx context.Context, token string) (*domain.Requester, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}

	data, err := s.client.Get(ctx, sessionKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var requester domain.Requester
	if err := json.Unmarshal(data, &requester); err != nil {
		return nil, fmt.Errorf("unmarshal session failed: %w", err)
	}
	return &requester, nil
}

// Delete revokes token. Unknown tokens are ignored.
func (s *Store) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func sessionKey(token string) string {
	return fmt.Sprintf("session:%s", token)
}
