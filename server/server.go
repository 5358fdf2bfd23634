// Package server exposes the single-shot commands and test sessions over
// JSON-RPC 2.0, on plain HTTP (/rpc) and on a WebSocket (/ws) that also
// streams session events.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/groundupworks/yksp/utils"
)

const (
	// Parse error: Invalid JSON was received by the server
	ErrCodeParseError = -32700

	// Invalid Request: The JSON sent is not a valid Request object
	ErrCodeInvalidRequest = -32600

	// Method not found: The method does not exist / is not available
	ErrCodeMethodNotFound = -32601

	// Server error: Internal JSON-RPC error
	ErrCodeServerError = -32000

	// Invalid params: Invalid method parameters
	ErrCodeInvalidParams = -32602

	// Internal error: Internal JSON-RPC error
	ErrCodeInternalError = -32603
)

// Server timeouts
const (
	ReadTimeout     = 10 * time.Second
	WriteTimeout    = 60 * time.Second
	IdleTimeout     = 120 * time.Second
	ShutdownTimeout = 5 * time.Second
)

// MethodShutdown stops the server, daemon.KillServer sends it.
const MethodShutdown = "server.shutdown"

var okResponse = map[string]interface{}{"status": "ok"}

type JSONRPCRequest struct {
	// these fields are all omitempty, so we can report back to client if they are missing
	JSONRPC string          `json:"jsonrpc,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      interface{}     `json:"id,omitempty"`
}

// JSONRPCResponse represents a JSON-RPC response
type JSONRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   interface{} `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// JSONRPCNotification is pushed to WebSocket clients without a request.
type JSONRPCNotification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

type Server struct {
	sessions   *SessionManager
	hub        *hub
	enableCORS bool
	shutdown   chan struct{}
	once       sync.Once
}

// New creates a server. sessions may be nil, session methods then fail.
func New(sessions *SessionManager, enableCORS bool) *Server {
	s := &Server{
		sessions:   sessions,
		hub:        newHub(),
		enableCORS: enableCORS,
		shutdown:   make(chan struct{}),
	}
	if sessions != nil {
		sessions.setObserver(s.hub.publishEvent)
	}
	return s
}

// Done is closed once a client asked the server to shut down.
func (s *Server) Done() <-chan struct{} {
	return s.shutdown
}

func (s *Server) requestShutdown() {
	s.once.Do(func() { close(s.shutdown) })
}

// corsMiddleware handles CORS preflight requests and adds CORS headers to responses.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", sendBanner)
	mux.HandleFunc("/rpc", s.handleJSONRPC)
	mux.HandleFunc("/ws", s.handleWebSocket)

	if s.enableCORS {
		return corsMiddleware(mux)
	}
	return mux
}

// NormalizeAddr turns a bare port into ":port".
func NormalizeAddr(addr string) (string, error) {
	// if host is missing, default to localhost
	if strings.Contains(addr, ":") {
		return addr, nil
	}

	port, err := strconv.Atoi(addr)
	if err != nil {
		return "", fmt.Errorf("invalid port: %v", err)
	}
	return fmt.Sprintf(":%d", port), nil
}

// ListenAndServe serves until ctx is cancelled or a client calls
// server.shutdown. A running session is cancelled before returning.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	addr, err := NormalizeAddr(addr)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  ReadTimeout,
		WriteTimeout: WriteTimeout,
		IdleTimeout:  IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		utils.Info("Starting server on http://%s...", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.close()
		return err
	case <-ctx.Done():
	case <-s.shutdown:
		utils.Info("Shutdown requested")
	}

	s.close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) close() {
	if s.sessions != nil {
		s.sessions.Close()
	}
	s.hub.closeAll()
}

func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONRPCError(w, nil, ErrCodeParseError, "Parse error", "expecting jsonrpc payload")
		return
	}

	if req.JSONRPC != "2.0" {
		sendJSONRPCError(w, req.ID, ErrCodeInvalidRequest, "Invalid Request", "'jsonrpc' must be '2.0'")
		return
	}

	if req.ID == nil {
		sendJSONRPCError(w, nil, ErrCodeInvalidRequest, "Invalid Request", "'id' field is required")
		return
	}

	if req.Method == "" {
		sendJSONRPCError(w, req.ID, ErrCodeInvalidRequest, "Invalid Request", "'method' is required")
		return
	}

	utils.Info("Request ID: %v, Method: %s, Params: %s", req.ID, req.Method, string(req.Params))

	result, code, err := s.Execute(r.Context(), req.Method, req.Params)
	if err != nil {
		utils.Error("Error executing method %s: %v", req.Method, err)
		sendJSONRPCError(w, req.ID, code, errorMessage(code), err.Error())
		return
	}

	sendJSONRPCResponse(w, req.ID, result)
}

func errorMessage(code int) string {
	switch code {
	case ErrCodeMethodNotFound:
		return "Method not found"
	case ErrCodeInvalidParams:
		return "Invalid params"
	default:
		return "Server error"
	}
}

func sendJSONRPCResponse(w http.ResponseWriter, id interface{}, result interface{}) {
	response := JSONRPCResponse{
		JSONRPC: "2.0",
		Result:  result,
		ID:      id,
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}

func sendJSONRPCError(w http.ResponseWriter, id interface{}, code int, message string, data interface{}) {
	response := JSONRPCResponse{
		JSONRPC: "2.0",
		Error: map[string]interface{}{
			"code":    code,
			"message": message,
			"data":    data,
		},
		ID: id,
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}

func sendBanner(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(okResponse)
}
