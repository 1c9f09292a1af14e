package dev

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// ReloadMessageType represents the type of reload message.
type ReloadMessageType string

const (
	ReloadTypeFull  ReloadMessageType = "reload"
	ReloadTypeError ReloadMessageType = "error"
	ReloadTypeClear ReloadMessageType = "clear"
)

// ReloadMessage is sent to browsers over the reload socket.
type ReloadMessage struct {
	Type  ReloadMessageType `json:"type"`
	Error string            `json:"error,omitempty"`
}

// ReloadServer manages the WebSocket connections used for live reload.
type ReloadServer struct {
	clients  map[*websocket.Conn]bool
	mu       sync.RWMutex
	upgrader websocket.Upgrader
	onCount  func(int)
}

// NewReloadServer creates a reload hub. onCount, if non-nil, is called with
// the client count after every connect and disconnect.
func NewReloadServer(onCount func(int)) *ReloadServer {
	return &ReloadServer{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // local dev only
			},
		},
		onCount: onCount,
	}
}

// HandleWebSocket upgrades the request and holds the connection open until
// the browser goes away.
func (rs *ReloadServer) HandleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := rs.upgrader.Upgrade(w, req, nil)
	if err != nil {
		return
	}

	rs.add(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	rs.remove(conn)
	conn.Close()
}

// NotifyReload tells every connected browser to refresh.
func (rs *ReloadServer) NotifyReload() {
	rs.broadcast(ReloadMessage{Type: ReloadTypeFull})
}

// NotifyError shows an error overlay in every connected browser.
func (rs *ReloadServer) NotifyError(msg string) {
	rs.broadcast(ReloadMessage{Type: ReloadTypeError, Error: msg})
}

// ClearError removes the error overlay.
func (rs *ReloadServer) ClearError() {
	rs.broadcast(ReloadMessage{Type: ReloadTypeClear})
}

// ClientCount returns the number of connected browsers.
func (rs *ReloadServer) ClientCount() int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return len(rs.clients)
}

func (rs *ReloadServer) add(conn *websocket.Conn) {
	rs.mu.Lock()
	rs.clients[conn] = true
	count := len(rs.clients)
	rs.mu.Unlock()
	if rs.onCount != nil {
		rs.onCount(count)
	}
}

func (rs *ReloadServer) remove(conn *websocket.Conn) {
	rs.mu.Lock()
	delete(rs.clients, conn)
	count := len(rs.clients)
	rs.mu.Unlock()
	if rs.onCount != nil {
		rs.onCount(count)
	}
}

func (rs *ReloadServer) broadcast(msg ReloadMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	rs.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(rs.clients))
	for c := range rs.clients {
		clients = append(clients, c)
	}
	rs.mu.RUnlock()

	for _, c := range clients {
		if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
			rs.remove(c)
			c.Close()
		}
	}
}

// reloadScript is injected into served HTML pages. It reconnects after the
// server restarts and renders a minimal error overlay.
const reloadScript = `(() => {
  const connect = () => {
    const ws = new WebSocket("ws://" + location.host + "/__reload");
    ws.onmessage = (ev) => {
      const msg = JSON.parse(ev.data);
      if (msg.type === "reload") location.reload();
      if (msg.type === "error") showOverlay(msg.error);
      if (msg.type === "clear") hideOverlay();
    };
    ws.onclose = () => setTimeout(connect, 1000);
  };
  const showOverlay = (text) => {
    hideOverlay();
    const el = document.createElement("pre");
    el.id = "__mt_overlay";
    el.style.cssText = "position:fixed;inset:0;z-index:99999;margin:0;padding:16px;" +
      "background:rgba(20,0,0,.92);color:#f88;font:13px/1.5 monospace;white-space:pre-wrap";
    el.textContent = text;
    document.body.appendChild(el);
  };
  const hideOverlay = () => {
    const el = document.getElementById("__mt_overlay");
    if (el) el.remove();
  };
  connect();
})();
`
