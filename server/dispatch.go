package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// HandlerFunc is the signature for JSON-RPC method handlers
type HandlerFunc func(ctx context.Context, params json.RawMessage) (interface{}, error)

// ParamsError marks a request whose params could not be used.
type ParamsError struct {
	Err error
}

func (e *ParamsError) Error() string {
	return e.Err.Error()
}

func (e *ParamsError) Unwrap() error {
	return e.Err
}

func invalidParams(format string, args ...interface{}) error {
	return &ParamsError{Err: fmt.Errorf(format, args...)}
}

// decodeParams unmarshals params into v. Empty params leave v untouched
// unless fields is set, which names what the method expects.
func decodeParams(params json.RawMessage, v interface{}, fields string) error {
	if len(params) == 0 {
		if fields != "" {
			return invalidParams("'params' is required with fields: %s", fields)
		}
		return nil
	}
	if err := json.Unmarshal(params, v); err != nil {
		if fields != "" {
			return invalidParams("invalid parameters: %v. Expected fields: %s", err, fields)
		}
		return invalidParams("invalid parameters: %v", err)
	}
	return nil
}

// methods returns a map of method names to handler functions, shared by the
// HTTP and WebSocket transports.
func (s *Server) methods() map[string]HandlerFunc {
	return map[string]HandlerFunc{
		"devices":        handleDevicesList,
		"info":           handleDeviceInfo,
		"apk_inspect":    handleAPKInspect,
		"dump_ui":        handleDumpUI,
		"screenshot":     handleScreenshot,
		"io_tap":         handleIoTap,
		"io_longpress":   handleIoLongPress,
		"io_text":        handleIoText,
		"io_button":      handleIoButton,
		"io_swipe":       handleIoSwipe,
		"apps_launch":    handleAppsLaunch,
		"apps_terminate": handleAppsTerminate,
		"session_run":    s.handleSessionRun,
		"session_status": s.handleSessionStatus,
		"session_cancel": s.handleSessionCancel,
		MethodShutdown:   s.handleShutdown,
	}
}

// Execute dispatches a method call and returns the JSON-RPC error code to
// report when it fails.
func (s *Server) Execute(ctx context.Context, method string, params json.RawMessage) (interface{}, int, error) {
	handler, exists := s.methods()[method]
	if !exists {
		return nil, ErrCodeMethodNotFound, fmt.Errorf("Method '%s' not found", method)
	}

	result, err := handler(ctx, params)
	if err != nil {
		var pe *ParamsError
		if errors.As(err, &pe) {
			return nil, ErrCodeInvalidParams, err
		}
		return nil, ErrCodeServerError, err
	}
	return result, 0, nil
}
