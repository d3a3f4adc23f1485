package ui

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"example.com/userdesk/internal/form"
)

type session struct {
	ctrl    *form.Controller
	expires time.Time
}

// Sessions keeps the form controllers of rendered forms so that every post
// of a page reaches the controller that rendered it.
type Sessions struct {
	ttl time.Duration
	now func() time.Time

	mu sync.Mutex
	m  map[string]*session
}

func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{ttl: ttl, now: time.Now, m: make(map[string]*session)}
}

// Add registers c and returns its form id.
func (s *Sessions) Add(c *form.Controller) string {
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[id] = &session{ctrl: c, expires: s.now().Add(s.ttl)}
	return id
}

// Get returns the controller for id unless it is unknown or expired.
func (s *Sessions) Get(id string) (*form.Controller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.m[id]
	if !ok || !s.now().Before(sess.expires) {
		return nil, false
	}
	return sess.ctrl, true
}

// Close closes and forgets the session id.
func (s *Sessions) Close(id string) {
	s.mu.Lock()
	sess, ok := s.m[id]
	delete(s.m, id)
	s.mu.Unlock()
	if ok {
		sess.ctrl.Close()
	}
}

// Sweep closes and removes expired sessions and reports how many went.
func (s *Sessions) Sweep() int {
	now := s.now()
	var expired []*form.Controller

	s.mu.Lock()
	for id, sess := range s.m {
		if !now.Before(sess.expires) {
			expired = append(expired, sess.ctrl)
			delete(s.m, id)
		}
	}
	s.mu.Unlock()

	for _, c := range expired {
		c.Close()
	}
	return len(expired)
}

// Run sweeps every interval until ctx is done.
func (s *Sessions) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}
