package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/groundupworks/yksp/session"
	"github.com/groundupworks/yksp/utils"
)

// Session states reported by session_status.
const (
	StateIdle     = "idle"
	StateRunning  = "running"
	StateFinished = "finished"
	StateFailed   = "failed"
)

var (
	ErrSessionRunning   = errors.New("a session is already running")
	ErrNoSessionManager = errors.New("sessions are not available on this server")
)

// RunParams are the session_run parameters.
type RunParams struct {
	// WorkDir is searched for the APK, the server's working directory by default.
	WorkDir string `json:"workDir,omitempty"`
	// Archive bundles the results into this file when set.
	Archive string `json:"archive,omitempty"`
}

// SessionFactory builds a session wired to observer.
type SessionFactory func(params RunParams, observer session.Observer) (*session.Session, error)

type SessionStatus struct {
	State     string           `json:"state"`
	SessionID string           `json:"sessionId,omitempty"`
	Events    int              `json:"events"`
	Last      *session.Event   `json:"lastEvent,omitempty"`
	Summary   *session.Summary `json:"summary,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// SessionManager runs at most one session at a time in the background.
type SessionManager struct {
	factory SessionFactory

	mu       sync.Mutex
	observer session.Observer
	status   SessionStatus
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewSessionManager(factory SessionFactory) *SessionManager {
	return &SessionManager{
		factory: factory,
		status:  SessionStatus{State: StateIdle},
	}
}

func (m *SessionManager) setObserver(o session.Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observer = o
}

func (m *SessionManager) record(e session.Event) {
	m.mu.Lock()
	m.status.Events++
	m.status.Last = &e
	observer := m.observer
	m.mu.Unlock()

	if observer != nil {
		observer(e)
	}
}

// Start launches a session and returns its id without waiting for it.
func (m *SessionManager) Start(params RunParams) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status.State == StateRunning {
		return "", ErrSessionRunning
	}

	s, err := m.factory(params, m.record)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	m.status = SessionStatus{State: StateRunning, SessionID: s.ID()}

	go m.run(ctx, s, m.done)
	return s.ID(), nil
}

func (m *SessionManager) run(ctx context.Context, s *session.Session, done chan struct{}) {
	defer close(done)

	summary, err := s.Run(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancel()
	m.status.Summary = summary
	switch {
	case err != nil && !session.IsValidationError(err):
		utils.Error("Session %s failed: %v", s.ID(), err)
		m.status.State = StateFailed
		m.status.Error = err.Error()
	case err != nil:
		m.status.State = StateFinished
		m.status.Error = err.Error()
	default:
		m.status.State = StateFinished
	}
}

func (m *SessionManager) Status() SessionStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Cancel stops the running session, it reports whether one was running.
func (m *SessionManager) Cancel() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status.State != StateRunning {
		return false
	}
	m.cancel()
	return true
}

// Wait blocks until the current session, if any, has finished.
func (m *SessionManager) Wait() {
	m.mu.Lock()
	done := m.done
	m.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Close cancels a running session and waits for it to finish its cleanup.
func (m *SessionManager) Close() {
	m.Cancel()
	m.Wait()
}

func (s *Server) handleSessionRun(ctx context.Context, params json.RawMessage) (interface{}, error) {
	if s.sessions == nil {
		return nil, ErrNoSessionManager
	}
	var p RunParams
	if err := decodeParams(params, &p, ""); err != nil {
		return nil, err
	}
	id, err := s.sessions.Start(p)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"sessionId": id}, nil
}

func (s *Server) handleSessionStatus(ctx context.Context, params json.RawMessage) (interface{}, error) {
	if s.sessions == nil {
		return nil, ErrNoSessionManager
	}
	return s.sessions.Status(), nil
}

func (s *Server) handleSessionCancel(ctx context.Context, params json.RawMessage) (interface{}, error) {
	if s.sessions == nil {
		return nil, ErrNoSessionManager
	}
	return map[string]interface{}{"cancelled": s.sessions.Cancel()}, nil
}
