package transport

import (
	"net"
	"testing"
	"time"

	"github.com/aurumchain/go/src/pbft"
)

// freeAddr grabs an ephemeral port so tests don't collide on a fixed one.
func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	addr := l.Addr().String()
	l.Close()
	return addr
}

func TestWebSocketHostSendAndReceive(t *testing.T) {
	addr := freeAddr(t)

	received := make(chan []byte, 1)
	server := NewWebSocketHost(addr, nil, func(nodeID string, raw []byte) {
		received <- raw
	})

	go func() {
		if err := server.Start(); err != nil && err.Error() != "http: Server closed" {
			t.Logf("server.Start: %v", err)
		}
	}()
	defer server.Close()

	// Give the listener a moment to bind before dialing.
	deadline := time.Now().Add(2 * time.Second)
	var dialErr error
	client := NewWebSocketHost("", nil, nil)
	for time.Now().Before(deadline) {
		dialErr = client.Dial("server", addr)
		if dialErr == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if dialErr != nil {
		t.Fatalf("Dial never succeeded: %v", dialErr)
	}
	defer client.Close()

	if !client.IsConnected("server") {
		t.Fatal("IsConnected(\"server\") = false right after a successful Dial")
	}

	payload := []byte("prepare-envelope-bytes")
	if err := client.Send("server", pbft.KindPrepareMsg, payload); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case got := <-received:
		if string(got) != string(payload) {
			t.Fatalf("server received %q, want %q", got, payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server never received the frame sent over the dialed connection")
	}
}

func TestWebSocketHostSendWithoutConnectionFails(t *testing.T) {
	h := NewWebSocketHost("127.0.0.1:0", nil, nil)
	if err := h.Send("nobody", pbft.KindSignMsg, []byte("x")); err == nil {
		t.Fatal("Send to a node with no open connection must fail")
	}
	if h.IsConnected("nobody") {
		t.Fatal("IsConnected must be false with no registered connections")
	}
}
