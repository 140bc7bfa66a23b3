package memory

import (
	"sync"

	"photosynthesis-lab/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu         sync.RWMutex
	workspaces map[string]*app.Workspace
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		workspaces: make(map[string]*app.Workspace),
	}
}

func (s *SessionStore) Put(ws *app.Workspace) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workspaces[ws.ID()] = ws
}

func (s *SessionStore) Get(id string) (*app.Workspace, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ws, ok := s.workspaces[id]
	return ws, ok
}

func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.workspaces, id)
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.workspaces)
}
