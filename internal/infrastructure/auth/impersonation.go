package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ImpersonationMarker records that an admin entered company mode. The
// marker is UI and audit context only: authorization re-checks the
// admin's role and the target company in the database on every
// request, so a forged or stale marker grants nothing by itself.
type ImpersonationMarker struct {
	AdminID   uuid.UUID `json:"admin_id"`
	CompanyID uuid.UUID `json:"company_id"`
	IssuedAt  time.Time `json:"issued_at"`
}

// ImpersonationStore keeps the short-lived company-mode markers
type ImpersonationStore interface {
	// Set stores the marker for its admin, replacing any existing one
	Set(ctx context.Context, marker ImpersonationMarker, ttl time.Duration) error

	// Get returns the marker of an admin, or nil when none is active
	Get(ctx context.Context, adminID uuid.UUID) (*ImpersonationMarker, error)

	// Clear removes the marker of an admin
	Clear(ctx context.Context, adminID uuid.UUID) error
}

// RedisImpersonationStore implements ImpersonationStore using Redis
type RedisImpersonationStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisImpersonationStore creates a store with an existing Redis client
func NewRedisImpersonationStore(client *redis.Client) *RedisImpersonationStore {
	return &RedisImpersonationStore{
		client:    client,
		keyPrefix: "admin:company_mode:",
	}
}

func (s *RedisImpersonationStore) key(adminID uuid.UUID) string {
	return s.keyPrefix + adminID.String()
}

// Set stores the marker for its admin
func (s *RedisImpersonationStore) Set(ctx context.Context, marker ImpersonationMarker, ttl time.Duration) error {
	payload, err := json.Marshal(marker)
	if err != nil {
		return fmt.Errorf("failed to encode impersonation marker: %w", err)
	}

	if err := s.client.Set(ctx, s.key(marker.AdminID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store impersonation marker: %w", err)
	}
	return nil
}

// Get returns the marker of an admin, or nil when none is active
func (s *RedisImpersonationStore) Get(ctx context.Context, adminID uuid.UUID) (*ImpersonationMarker, error) {
	payload, err := s.client.Get(ctx, s.key(adminID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read impersonation marker: %w", err)
	}

	var marker ImpersonationMarker
	if err := json.Unmarshal(payload, &marker); err != nil {
		return nil, fmt.Errorf("failed to decode impersonation marker: %w", err)
	}
	return &marker, nil
}

// Clear removes the marker of an admin
func (s *RedisImpersonationStore) Clear(ctx context.Context, adminID uuid.UUID) error {
	if err := s.client.Del(ctx, s.key(adminID)).Err(); err != nil {
		return fmt.Errorf("failed to clear impersonation marker: %w", err)
	}
	return nil
}

var _ ImpersonationStore = (*RedisImpersonationStore)(nil)

// InMemoryImpersonationStore provides an in-memory implementation for
// tests and single-instance deployments.
type InMemoryImpersonationStore struct {
	mu      sync.RWMutex
	markers map[uuid.UUID]inMemoryMarker
}

type inMemoryMarker struct {
	marker    ImpersonationMarker
	expiresAt time.Time
}

// NewInMemoryImpersonationStore creates a new in-memory store
func NewInMemoryImpersonationStore() *InMemoryImpersonationStore {
	return &InMemoryImpersonationStore{
		markers: make(map[uuid.UUID]inMemoryMarker),
	}
}

// Set stores the marker for its admin
func (s *InMemoryImpersonationStore) Set(_ context.Context, marker ImpersonationMarker, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers[marker.AdminID] = inMemoryMarker{
		marker:    marker,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// Get returns the marker of an admin, or nil when none is active
func (s *InMemoryImpersonationStore) Get(_ context.Context, adminID uuid.UUID) (*ImpersonationMarker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.markers[adminID]
	if !exists {
		return nil, nil
	}

	if time.Now().After(entry.expiresAt) {
		delete(s.markers, adminID)
		return nil, nil
	}

	marker := entry.marker
	return &marker, nil
}

// Clear removes the marker of an admin
func (s *InMemoryImpersonationStore) Clear(_ context.Context, adminID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.markers, adminID)
	return nil
}

var _ ImpersonationStore = (*InMemoryImpersonationStore)(nil)
