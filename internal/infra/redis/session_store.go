package redis

import (
	"context"
	"sync"
	"time"

	"photosynthesis-lab/internal/app"

	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Workspaces hold live timers and subscriber channels, so they stay in a
//     local map; only this instance can serve them.
//   - Redis carries a liveness marker per workspace (with TTL, refreshed on
//     access) so operators and load balancers can see which instance owns it.
type SessionStore struct {
	client     *redis.Client
	ttl        time.Duration
	owner      string
	mu         sync.RWMutex
	workspaces map[string]*app.Workspace
}

// NewSessionStore marks workspaces with owner as the liveness value,
// typically the instance hostname.
func NewSessionStore(client *redis.Client, ttl time.Duration, owner string) *SessionStore {
	if owner == "" {
		owner = "1"
	}
	return &SessionStore{
		client:     client,
		ttl:        ttl,
		owner:      owner,
		workspaces: make(map[string]*app.Workspace),
	}
}

func (s *SessionStore) Put(ws *app.Workspace) {
	s.mu.Lock()
	s.workspaces[ws.ID()] = ws
	s.mu.Unlock()
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(ws.ID()), s.owner, s.ttl).Err()
}

func (s *SessionStore) Get(id string) (*app.Workspace, bool) {
	s.mu.RLock()
	ws, ok := s.workspaces[id]
	s.mu.RUnlock()
	if ok && s.ttl > 0 {
		_ = s.client.Expire(context.Background(), s.key(id), s.ttl).Err()
	}
	return ws, ok
}

func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	delete(s.workspaces, id)
	s.mu.Unlock()
	_ = s.client.Del(context.Background(), s.key(id)).Err()
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.workspaces)
}

func (s *SessionStore) key(id string) string {
	return "lab:workspace:" + id
}
