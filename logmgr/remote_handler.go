package logmgr

import (
	"encoding/json"
	"fmt"
	"net"
	"sync"
)

// RemoteHandler is a TCP server bound to loopback that accepts client
// connections and broadcasts each Message as one line of newline-
// delimited JSON (spec §4.10, §6). No authentication — documented as
// such, matching the wire format's own "no authentication" note.
type RemoteHandler struct {
	listener net.Listener

	mu      sync.Mutex
	clients []net.Conn
}

type wireMessage struct {
	Timestamp string `json:"timestamp"`
	Source    string `json:"source"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

// NewRemoteHandler binds to 127.0.0.1:port and starts accepting clients
// in the background. Call Close to stop.
func NewRemoteHandler(port int) (*RemoteHandler, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return nil, err
	}
	h := &RemoteHandler{listener: ln}
	go h.acceptLoop()
	return h, nil
}

func (h *RemoteHandler) acceptLoop() {
	for {
		conn, err := h.listener.Accept()
		if err != nil {
			return // listener closed
		}
		h.mu.Lock()
		h.clients = append(h.clients, conn)
		h.mu.Unlock()
	}
}

// Handle broadcasts msg to every connected client, best-effort. A write
// failure marks that client for pruning on this same pass rather than
// blocking the rest (spec §5 "sends to clients are best-effort").
func (h *RemoteHandler) Handle(msg Message) {
	line, err := json.Marshal(wireMessage{
		Timestamp: msg.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"),
		Source:    msg.Source,
		Level:     msg.Level.String(),
		Message:   msg.Text,
	})
	if err != nil {
		return
	}
	line = append(line, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	alive := h.clients[:0]
	for _, c := range h.clients {
		if _, err := c.Write(line); err != nil {
			_ = c.Close()
			continue
		}
		alive = append(alive, c)
	}
	h.clients = alive
}

// Addr returns the bound address, useful when port 0 was requested for
// an ephemeral test port.
func (h *RemoteHandler) Addr() net.Addr {
	return h.listener.Addr()
}

// Close stops accepting new clients and closes every connected one.
func (h *RemoteHandler) Close() error {
	err := h.listener.Close()
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		_ = c.Close()
	}
	h.clients = nil
	return err
}

var _ Handler = (*RemoteHandler)(nil)
