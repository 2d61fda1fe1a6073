package detector

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/IshaanNene/EcoCheck/internal/types"
)

// DefaultObserveBudget bounds how long a session watches for changes.
const DefaultObserveBudget = 30 * time.Second

// Session owns one page's detection lifecycle: an immediate check, then a
// bounded watch of structural changes. The watch ends on the first
// positive match, when the budget runs out, or on Close, whichever
// happens first.
type Session struct {
	det    *Detector
	src    DocumentSource
	budget time.Duration
	logger *slog.Logger

	mu        sync.Mutex
	started   bool
	finished  bool
	watching  bool
	isProduct bool
	selector  string
	checks    int
	cancel    context.CancelFunc
	done      chan struct{}
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithBudget sets the observation budget.
func WithBudget(d time.Duration) SessionOption {
	return func(s *Session) {
		if d > 0 {
			s.budget = d
		}
	}
}

// NewSession creates an idle session over src.
func NewSession(det *Detector, src DocumentSource, logger *slog.Logger, opts ...SessionOption) *Session {
	s := &Session{
		det:    det,
		src:    src,
		budget: DefaultObserveBudget,
		logger: logger.With("component", "detector_session"),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start runs the first check and, when it is negative and the source can
// change, begins watching. A session starts at most once until Reset.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return types.ErrAlreadyStarted
	}
	s.started = true
	s.mu.Unlock()

	if s.check(ctx) {
		s.finish("matched")
		return nil
	}

	changes := s.src.Changes()
	if changes == nil {
		s.finish("static")
		return nil
	}

	watchCtx, cancel := context.WithTimeout(ctx, s.budget)
	s.mu.Lock()
	if s.finished {
		// Closed while the first check ran.
		s.mu.Unlock()
		cancel()
		return nil
	}
	s.cancel = cancel
	s.watching = true
	s.mu.Unlock()

	s.logger.Debug("watching for changes", "budget", s.budget)
	go s.watch(watchCtx, changes)
	return nil
}

func (s *Session) watch(ctx context.Context, changes <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			reason := "closed"
			if ctx.Err() == context.DeadlineExceeded {
				reason = "budget"
			}
			s.finish(reason)
			return
		case _, ok := <-changes:
			if !ok {
				s.finish("source closed")
				return
			}
			if s.check(ctx) {
				s.finish("matched")
				return
			}
		}
	}
}

// check runs the detector once and records a positive result.
func (s *Session) check(ctx context.Context) bool {
	doc, err := s.src.Document(ctx)
	if err != nil {
		s.logger.Debug("document unavailable", "error", err)
		return false
	}

	ok, selector := s.det.Evaluate(doc)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks++
	if ok {
		s.isProduct = true
		s.selector = selector
	}
	return ok
}

// finish disposes the watcher. It is safe to call more than once.
func (s *Session) finish(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return
	}
	s.finished = true
	s.watching = false
	if s.cancel != nil {
		s.cancel()
	}
	close(s.done)
	s.logger.Debug("session finished", "reason", reason, "product", s.isProduct, "matched", s.selector, "checks", s.checks)
}

// Close stops watching and waits for the watcher to exit.
func (s *Session) Close() {
	s.mu.Lock()
	started := s.started
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	if !started {
		s.finish("closed")
		return
	}
	if cancel != nil {
		cancel()
		<-done
		return
	}
	s.finish("closed")
}

// Reset closes the session and returns it to a fresh, unstarted state.
func (s *Session) Reset() {
	s.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = false
	s.finished = false
	s.watching = false
	s.isProduct = false
	s.selector = ""
	s.checks = 0
	s.cancel = nil
	s.done = make(chan struct{})
}

// IsProductPage reports whether any check so far was positive.
func (s *Session) IsProductPage() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isProduct
}

// Matched returns the selector that matched, if any.
func (s *Session) Matched() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selector
}

// Watching reports whether a watcher is currently registered.
func (s *Session) Watching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watching
}

// Checks returns how many times the detector ran.
func (s *Session) Checks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checks
}

// Done is closed once the session stops watching.
func (s *Session) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Wait blocks until the session finishes or ctx ends, then reports the
// detection result.
func (s *Session) Wait(ctx context.Context) (bool, error) {
	select {
	case <-s.Done():
		return s.IsProductPage(), nil
	case <-ctx.Done():
		return s.IsProductPage(), ctx.Err()
	}
}
