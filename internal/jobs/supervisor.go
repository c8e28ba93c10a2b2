// Package jobs tracks the assistant's long-lived background workers
// under unique keys and guarantees at most one running worker per key.
// Cancellation is cooperative: workers check a flag before every unit of
// work and before every sleep, so a stop is observed within one polling
// interval plus at most one in-flight collaborator call.
package jobs

import (
	log "log/slog"
	"sync"
	"time"
)

type worker struct {
	cancel chan struct{}
	done   chan struct{}
}

// Supervisor owns the key→worker map. The single mutex linearizes all
// insert/remove/lookup operations; it is never held across a wait.
type Supervisor struct {
	mu      sync.Mutex
	workers map[string]*worker
}

func NewSupervisor() *Supervisor {
	return &Supervisor{workers: make(map[string]*worker)}
}

// Start launches a periodic worker under key. Returns false without
// starting anything when a worker for key is already running.
//
// The worker repeatedly runs unit and then sleeps for interval. A
// failing unit is logged and the loop continues: one failed mail check
// must not kill the polling job.
func (s *Supervisor) Start(key string, interval time.Duration, unit func() error) bool {
	s.mu.Lock()
	if _, ok := s.workers[key]; ok {
		s.mu.Unlock()
		return false
	}
	w := &worker{
		cancel: make(chan struct{}),
		done:   make(chan struct{}),
	}
	s.workers[key] = w
	s.mu.Unlock()

	go func() {
		defer close(w.done)
		for {
			select {
			case <-w.cancel:
				return
			default:
			}

			if err := unit(); err != nil {
				log.Error("Background unit failed", "job", key, "err", err)
			}

			select {
			case <-w.cancel:
				return
			case <-time.After(interval):
			}
		}
	}()

	return true
}

// Stop signals the worker under key and waits for it to exit at its
// next cooperative check point. Returns false when no worker is
// running under key. The key is freed before the wait so a new Start
// can be issued immediately; the outgoing worker performs no further
// units of work.
func (s *Supervisor) Stop(key string) bool {
	s.mu.Lock()
	w, ok := s.workers[key]
	if !ok {
		s.mu.Unlock()
		return false
	}
	delete(s.workers, key)
	s.mu.Unlock()

	close(w.cancel)
	<-w.done
	return true
}

// Running reports whether a worker is tracked under key.
func (s *Supervisor) Running(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.workers[key]
	return ok
}

// Keys returns the keys of all tracked workers.
func (s *Supervisor) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.workers))
	for k := range s.workers {
		keys = append(keys, k)
	}
	return keys
}

// Watch launches a detached watch-and-trigger loop: step observes once
// and reports whether it matched and triggered. On a match the loop
// terminates itself; otherwise it sleeps for interval and retries
// indefinitely.
//
// Watch loops are intentionally not tracked under a key and not
// deduplicated: each call spawns an independent watcher with its own
// capture and pointer handles, and the only way out is a match or
// process exit.
func (s *Supervisor) Watch(interval time.Duration, step func() (bool, error)) {
	go func() {
		for {
			matched, err := step()
			if err != nil {
				log.Error("Watch step failed", "err", err)
			}
			if matched {
				return
			}
			time.Sleep(interval)
		}
	}()
}
