package review

import (
	"sync"
	"time"

	"greenintellect-backend/internal/uploads"
)

// Registry holds one Session per admin.
type Registry struct {
	svc   *uploads.Service
	delay time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(svc *uploads.Service, delay time.Duration) *Registry {
	return &Registry{svc: svc, delay: delay, sessions: make(map[string]*Session)}
}

// Session returns the admin's session, creating it on first use.
func (r *Registry) Session(adminID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[adminID]; ok {
		return s
	}
	s := NewSession(adminID, r.svc, r.delay)
	r.sessions[adminID] = s
	return s
}

// Close closes and forgets one admin's session.
func (r *Registry) Close(adminID string) {
	r.mu.Lock()
	s, ok := r.sessions[adminID]
	delete(r.sessions, adminID)
	r.mu.Unlock()
	if ok {
		s.Close()
	}
}

// CloseAll closes every session. Used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}
