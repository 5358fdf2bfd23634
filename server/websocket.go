package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/groundupworks/yksp/session"
	"github.com/groundupworks/yksp/utils"
)

// MethodSessionEvent is the notification carrying session events.
const MethodSessionEvent = "session.event"

const notificationBuffer = 64

type wsConnection struct {
	conn          *websocket.Conn
	writeMu       sync.Mutex
	notifications chan interface{}
}

// hub tracks WebSocket clients so session events reach all of them.
type hub struct {
	mu      sync.Mutex
	clients map[*wsConnection]struct{}
}

func newHub() *hub {
	return &hub{clients: make(map[*wsConnection]struct{})}
}

func (h *hub) add(c *wsConnection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *hub) remove(c *wsConnection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.notifications)
	}
}

// publishEvent never blocks, a client that falls behind misses events.
func (h *hub) publishEvent(e session.Event) {
	n := JSONRPCNotification{JSONRPC: "2.0", Method: MethodSessionEvent, Params: e}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.notifications <- n:
		default:
			utils.Warn("Dropping %s notification for slow client", e.Type)
		}
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	clients := make([]*wsConnection, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		_ = c.conn.Close()
	}
}

func newUpgrader(enableCORS bool) *websocket.Upgrader {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}

	if enableCORS {
		upgrader.CheckOrigin = func(r *http.Request) bool {
			return true
		}
	} else {
		upgrader.CheckOrigin = isSameOrigin
	}

	return &upgrader
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := newUpgrader(s.enableCORS).Upgrade(w, r, nil)
	if err != nil {
		utils.Error("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	wsConn := &wsConnection{
		conn:          conn,
		notifications: make(chan interface{}, notificationBuffer),
	}
	s.hub.add(wsConn)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for n := range wsConn.notifications {
			if err := wsConn.sendJSON(n); err != nil {
				utils.Verbose("Failed to send notification: %v", err)
			}
		}
	}()
	defer func() {
		s.hub.remove(wsConn)
		wg.Wait()
	}()

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			// connection closed or error
			utils.Verbose("WebSocket connection closed: %v", err)
			break
		}

		if messageType != websocket.TextMessage {
			_ = wsConn.sendError(nil, ErrCodeInvalidRequest, "Invalid Request", "only text messages accepted for requests")
			continue
		}

		s.handleWSMessage(r, wsConn, message)
	}
}

func isSameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}

	return originURL.Host == r.Host
}

func (s *Server) handleWSMessage(r *http.Request, wsConn *wsConnection, message []byte) {
	var req JSONRPCRequest
	if err := json.Unmarshal(message, &req); err != nil {
		_ = wsConn.sendError(nil, ErrCodeParseError, "Parse error", "expecting jsonrpc payload")
		return
	}

	if req.JSONRPC != "2.0" {
		_ = wsConn.sendError(req.ID, ErrCodeInvalidRequest, "Invalid Request", "'jsonrpc' must be '2.0'")
		return
	}

	if req.ID == nil {
		_ = wsConn.sendError(nil, ErrCodeInvalidRequest, "Invalid Request", "'id' field is required")
		return
	}

	if req.Method == "" {
		_ = wsConn.sendError(req.ID, ErrCodeInvalidRequest, "Invalid Request", "'method' is required")
		return
	}

	utils.Info("WebSocket Request ID: %v, Method: %s, Params: %s", req.ID, req.Method, string(req.Params))

	result, code, err := s.Execute(r.Context(), req.Method, req.Params)
	if err != nil {
		utils.Error("Error executing method %s: %v", req.Method, err)
		_ = wsConn.sendError(req.ID, code, errorMessage(code), err.Error())
		return
	}

	_ = wsConn.sendResponse(req.ID, result)
}

func (wsc *wsConnection) sendResponse(id interface{}, result interface{}) error {
	response := JSONRPCResponse{
		JSONRPC: "2.0",
		Result:  result,
		ID:      id,
	}
	return wsc.sendJSON(response)
}

func (wsc *wsConnection) sendError(id interface{}, code int, message string, data interface{}) error {
	response := JSONRPCResponse{
		JSONRPC: "2.0",
		Error: map[string]interface{}{
			"code":    code,
			"message": message,
			"data":    data,
		},
		ID: id,
	}
	return wsc.sendJSON(response)
}

func (wsc *wsConnection) sendJSON(v interface{}) error {
	wsc.writeMu.Lock()
	defer wsc.writeMu.Unlock()
	return wsc.conn.WriteJSON(v)
}
