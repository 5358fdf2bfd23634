package devices

import (
	"errors"
	"fmt"
	"sync"

	"github.com/groundupworks/yksp/utils"
)

// ShutdownHook stops background processes (logcat, backup) when the harness
// is interrupted. Whoever starts a process registers its Stop and removes it
// again once the process was stopped the regular way.
type ShutdownHook struct {
	mu     sync.Mutex
	nextID int
	hooks  []namedHook
}

type namedHook struct {
	id   int
	name string
	fn   func() error
}

func NewShutdownHook() *ShutdownHook {
	return &ShutdownHook{}
}

// Register adds a cleanup function and returns a func that removes it.
// Removing is idempotent.
func (s *ShutdownHook) Register(name string, cleanupFn func() error) (unregister func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.hooks = append(s.hooks, namedHook{id: id, name: name, fn: cleanupFn})
	utils.Verbose("Registered shutdown hook: %s", name)

	return func() { s.remove(id) }
}

func (s *ShutdownHook) remove(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, h := range s.hooks {
		if h.id == id {
			s.hooks = append(s.hooks[:i], s.hooks[i+1:]...)
			return
		}
	}
}

// Shutdown runs every registered hook, newest first, and clears them. A
// failing hook does not stop the others.
func (s *ShutdownHook) Shutdown() error {
	s.mu.Lock()
	hooks := s.hooks
	s.hooks = nil
	s.mu.Unlock()

	if len(hooks) == 0 {
		return nil
	}

	utils.Verbose("Executing %d shutdown hook(s)", len(hooks))
	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		hook := hooks[i]
		utils.Verbose("Running shutdown hook: %s", hook.name)
		if err := hook.fn(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", hook.name, err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("shutdown failed with %d error(s): %w", len(errs), err)
	}
	return nil
}

// Count returns the number of registered hooks.
func (s *ShutdownHook) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.hooks)
}
