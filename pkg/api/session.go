package api

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrSuperseded is returned by a session run that was replaced by a newer
	// run before it finished
	ErrSuperseded = errors.New("pagination run superseded")
	// ErrClosed is returned by runs started on a closed session
	ErrClosed = errors.New("session closed")
)

// Session serves a stream of pagination requests for one document, for
// example one per edit. Starting a run cancels the run in flight; only the
// latest run may return pages.
type Session struct {
	p *Paginator

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	closed     bool
}

// NewSession creates a session on top of the paginator
func (p *Paginator) NewSession() *Session {
	return &Session{p: p}
}

// Paginate starts a new run and supersedes the previous one. A run that is
// no longer the latest when it finishes returns ErrSuperseded.
func (s *Session) Paginate(ctx context.Context, markup string) (*Result, error) {
	ctx, gen, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer s.end(gen)

	result, err := s.p.Paginate(ctx, markup)
	if !s.current(gen) {
		return nil, ErrSuperseded
	}
	return result, err
}

// Generation returns the number of runs started so far
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Close cancels the run in flight. Further runs fail with ErrClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.generation++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	return nil
}

func (s *Session) begin(parent context.Context) (context.Context, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, 0, ErrClosed
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.generation++
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	return ctx, s.generation, nil
}

func (s *Session) end(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen == s.generation && s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Session) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen == s.generation && !s.closed
}
