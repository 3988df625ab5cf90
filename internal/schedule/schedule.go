package schedule

import (
	"sync"
	"time"
)

// Scheduler runs delayed tasks under string keys. Scheduling a key again
// supersedes the pending task for that key; a superseded or cancelled task
// never runs, even if its timer already fired.
type Scheduler struct {
	mu     sync.Mutex
	tasks  map[string]task
	gen    uint64
	closed bool
}

type task struct {
	timer *time.Timer
	gen   uint64
}

func New() *Scheduler {
	return &Scheduler{tasks: make(map[string]task)}
}

func (s *Scheduler) After(key string, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if prev, ok := s.tasks[key]; ok {
		prev.timer.Stop()
	}

	s.gen++
	gen := s.gen
	timer := time.AfterFunc(delay, func() {
		s.mu.Lock()
		current, ok := s.tasks[key]
		if s.closed || !ok || current.gen != gen {
			s.mu.Unlock()
			return
		}
		delete(s.tasks, key)
		s.mu.Unlock()

		fn()
	})
	s.tasks[key] = task{timer: timer, gen: gen}
}

func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[key]
	if !ok {
		return false
	}
	t.timer.Stop()
	delete(s.tasks, key)
	return true
}

func (s *Scheduler) pending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[key]
	return ok
}

// Close cancels everything pending and rejects new tasks.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for key, t := range s.tasks {
		t.timer.Stop()
		delete(s.tasks, key)
	}
}
