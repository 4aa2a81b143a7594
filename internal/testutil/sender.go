package testutil

import (
	"context"
	"sync"
	"time"
)

// RecordingSender captures every line it is asked to send. It can be told to
// fail after a number of successful sends.
type RecordingSender struct {
	mu        sync.Mutex
	lines     []string
	times     []time.Time
	failAfter int
	err       error
}

// NewRecordingSender returns a sender that never fails.
func NewRecordingSender() *RecordingSender {
	return &RecordingSender{failAfter: -1}
}

// FailAfter makes every send after the first n return err (chainable).
func (s *RecordingSender) FailAfter(n int, err error) *RecordingSender {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAfter = n
	s.err = err
	return s
}

// Send implements core.Sender.
func (s *RecordingSender) Send(_ context.Context, line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAfter >= 0 && len(s.lines) >= s.failAfter {
		return s.err
	}
	s.lines = append(s.lines, line)
	s.times = append(s.times, time.Now())
	return nil
}

// Lines returns a copy of the recorded lines.
func (s *RecordingSender) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.lines))
	copy(out, s.lines)
	return out
}

// Gaps returns the time elapsed between consecutive sends.
func (s *RecordingSender) Gaps() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.times) < 2 {
		return nil
	}
	out := make([]time.Duration, 0, len(s.times)-1)
	for i := 1; i < len(s.times); i++ {
		out = append(out, s.times[i].Sub(s.times[i-1]))
	}
	return out
}
