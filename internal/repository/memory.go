package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"barberbook/internal/models"
)

// MemoryStateRepository is the in-process fallback. Snapshots are stored as
// encoded copies so callers never share state with the store.
type MemoryStateRepository struct {
	sessions   sync.Map
	rateLimits sync.Map
	ttl        time.Duration
	now        func() time.Time
}

type sessionEntry struct {
	data      []byte
	expiresAt time.Time
}

func NewMemoryStateRepository(ttl time.Duration) *MemoryStateRepository {
	return &MemoryStateRepository{
		ttl: ttl,
		now: time.Now,
	}
}

func (r *MemoryStateRepository) GetSession(ctx context.Context, userID int64) (*models.SessionSnapshot, error) {
	val, ok := r.sessions.Load(userID)
	if !ok {
		return nil, nil
	}
	entry := val.(sessionEntry)
	if r.ttl > 0 && r.now().After(entry.expiresAt) {
		r.sessions.Delete(userID)
		return nil, nil
	}

	var snap models.SessionSnapshot
	if err := json.Unmarshal(entry.data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &snap, nil
}

func (r *MemoryStateRepository) SetSession(ctx context.Context, snap *models.SessionSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	r.sessions.Store(snap.UserID, sessionEntry{data: data, expiresAt: r.now().Add(r.ttl)})
	return nil
}

func (r *MemoryStateRepository) ClearSession(ctx context.Context, userID int64) error {
	r.sessions.Delete(userID)
	return nil
}

type rateLimitEntry struct {
	mu        sync.Mutex
	count     int
	expiresAt time.Time
}

func (r *MemoryStateRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	now := r.now()
	val, _ := r.rateLimits.LoadOrStore(userID, &rateLimitEntry{expiresAt: now.Add(window)})
	entry := val.(*rateLimitEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if now.After(entry.expiresAt) {
		entry.count = 0
		entry.expiresAt = now.Add(window)
	}
	entry.count++
	return entry.count <= limit, nil
}
