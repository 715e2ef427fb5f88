// MIT License
//
// Copyright (c) 2024 sphinx-core
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// go/src/transport/websocket.go
package transport

import (
	"crypto/tls"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"

	logger "github.com/aurumchain/go/src/log"
	"github.com/aurumchain/go/src/pbft"
)

// NewWebSocketHost creates a Peer host bound to address, delivering
// every decoded frame to onEnvelope as (senderNodeID, raw envelope
// bytes). The caller hands the raw bytes to Replica.SubmitFrame; the
// engine's worker decodes them.
func NewWebSocketHost(address string, tlsConfig *tls.Config, onEnvelope func(nodeID string, raw []byte)) *WebSocketHost {
	return &WebSocketHost{
		address:    address,
		upgrader:   websocket.Upgrader{},
		tlsConfig:  tlsConfig,
		onEnvelope: onEnvelope,
		conns:      make(map[string]*websocket.Conn),
	}
}

// Start runs the WebSocket listener. It blocks; callers run it in a
// goroutine.
func (h *WebSocketHost) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/pbft", h.handleAccept)
	server := &http.Server{Addr: h.address, Handler: mux, TLSConfig: h.tlsConfig}
	logger.Info("pbft transport listening on %s/pbft", h.address)
	if h.tlsConfig != nil {
		return server.ListenAndServeTLS("", "")
	}
	return server.ListenAndServe()
}

// handleAccept upgrades an inbound HTTP connection and registers it
// under the node ID carried in the initial query string, then reads
// frames until the connection closes.
func (h *WebSocketHost) handleAccept(w http.ResponseWriter, r *http.Request) {
	nodeID := r.URL.Query().Get("node")
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade from %s failed: %v", nodeID, err)
		return
	}
	h.registerConn(nodeID, conn)
	h.readLoop(nodeID, conn)
}

// Dial opens an outbound connection to a peer already known under
// nodeID, registering it for subsequent Send calls.
func (h *WebSocketHost) Dial(nodeID, address string) error {
	dialer := websocket.Dialer{TLSClientConfig: h.tlsConfig}
	scheme := "ws"
	if h.tlsConfig != nil {
		scheme = "wss"
	}
	conn, _, err := dialer.Dial(fmt.Sprintf("%s://%s/pbft?node=%s", scheme, address, nodeID), nil)
	if err != nil {
		return fmt.Errorf("transport: dial %s: %w", nodeID, err)
	}
	h.registerConn(nodeID, conn)
	go h.readLoop(nodeID, conn)
	return nil
}

func (h *WebSocketHost) registerConn(nodeID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.conns[nodeID]; ok {
		old.Close()
	}
	h.conns[nodeID] = conn
}

func (h *WebSocketHost) readLoop(nodeID string, conn *websocket.Conn) {
	defer func() {
		h.mu.Lock()
		if h.conns[nodeID] == conn {
			delete(h.conns, nodeID)
		}
		h.mu.Unlock()
		conn.Close()
	}()
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			logger.Warn("websocket read from %s failed: %v", nodeID, err)
			return
		}
		if h.onEnvelope != nil {
			h.onEnvelope(nodeID, raw)
		}
	}
}

// ForEachPeer implements pbft.PeerHost, iterating peers with an open
// connection. The miner index a caller needs is resolved from the
// roster; this collaborator only knows connectivity, so it reports -1.
func (h *WebSocketHost) ForEachPeer(f func(nodeID string, idx pbft.Idx)) {
	h.mu.RLock()
	ids := make([]string, 0, len(h.conns))
	for id := range h.conns {
		ids = append(ids, id)
	}
	h.mu.RUnlock()
	for _, id := range ids {
		f(id, -1)
	}
}

// IsConnected implements pbft.PeerHost.
func (h *WebSocketHost) IsConnected(nodeID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.conns[nodeID]
	return ok
}

// Send implements pbft.PeerHost. kind is informational only; the
// payload already carries its own kind tag (see pbft.EncodeEnvelope).
func (h *WebSocketHost) Send(nodeID string, kind pbft.Kind, payload []byte) error {
	h.mu.RLock()
	conn, ok := h.conns[nodeID]
	h.mu.RUnlock()
	if !ok {
		return fmt.Errorf("transport: no open connection to %s", nodeID)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, payload); err != nil {
		return fmt.Errorf("transport: send %s to %s: %w", kind, nodeID, err)
	}
	return nil
}

// Close tears down every open connection.
func (h *WebSocketHost) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, conn := range h.conns {
		conn.Close()
		delete(h.conns, id)
	}
}
