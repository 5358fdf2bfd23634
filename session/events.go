package session

import (
	"time"
)

// Event types published while a session runs.
const (
	EventSessionStarted   = "session_started"
	EventDeviceStarted    = "device_started"
	EventDeviceSkipped    = "device_skipped"
	EventTestCaseStarted  = "testcase_started"
	EventTestCaseFinished = "testcase_finished"
	EventDeviceFinished   = "device_finished"
	EventSessionFinished  = "session_finished"
)

type Event struct {
	Type      string       `json:"type"`
	SessionID string       `json:"sessionId"`
	Time      time.Time    `json:"time"`
	Serial    string       `json:"serial,omitempty"`
	Script    string       `json:"script,omitempty"`
	Message   string       `json:"message,omitempty"`
	Case      *CaseSummary `json:"case,omitempty"`
}

// Observer receives events synchronously, it must not block.
type Observer func(Event)
