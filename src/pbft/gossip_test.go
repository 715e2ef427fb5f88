package pbft

import (
	"errors"
	"sync"
	"testing"

	"github.com/aurumchain/go/src/network"
)

// recordingHost is a PeerHost stub that records every Send call and can
// be told to fail delivery to a specific node.
type recordingHost struct {
	mu       sync.Mutex
	sent     map[string]int
	failFor  string
	connected map[string]bool
}

func newRecordingHost(connected ...string) *recordingHost {
	set := make(map[string]bool)
	for _, id := range connected {
		set[id] = true
	}
	return &recordingHost{sent: make(map[string]int), connected: set}
}

func (h *recordingHost) ForEachPeer(f func(nodeID string, idx Idx)) {}

func (h *recordingHost) IsConnected(nodeID string) bool { return h.connected[nodeID] }

func (h *recordingHost) Send(nodeID string, kind Kind, payload []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if nodeID == h.failFor {
		return errors.New("send failed")
	}
	h.sent[nodeID]++
	return nil
}

func gossipRoster(t *testing.T, ids ...string) *network.NodeManager {
	t.Helper()
	nm := network.NewNodeManager()
	for _, id := range ids {
		node := &network.Node{ID: id, Address: id, Status: network.NodeStatusActive, Role: network.RoleMiner}
		if err := nm.AddPeer(node); err != nil {
			t.Fatalf("AddPeer(%s): %v", id, err)
		}
	}
	return nm
}

func TestBroadcastSkipsDisconnectedAndAlreadyKnownPeers(t *testing.T) {
	nm := gossipRoster(t, "connected", "disconnected")
	host := newRecordingHost("connected")
	g := NewGossiper(nm, host, nil)

	env := &Envelope{Kind: KindPrepareMsg, SenderIdx: 0, Prepare: &Prepare{Header: Header{HeightVal: 1}}}
	if err := g.Broadcast(env, 1, 0, Hash{1}); err != nil {
		t.Fatalf("Broadcast: %v", err)
	}

	if host.sent["connected"] != 1 {
		t.Fatalf("sent[connected] = %d, want 1", host.sent["connected"])
	}
	if host.sent["disconnected"] != 0 {
		t.Fatal("Broadcast must not send to a peer the host reports as disconnected")
	}

	// A second broadcast of the same (sender, height, view, hash) key must
	// be suppressed by the peer's dedup mask.
	if err := g.Broadcast(env, 1, 0, Hash{1}); err != nil {
		t.Fatalf("Broadcast (repeat): %v", err)
	}
	if host.sent["connected"] != 1 {
		t.Fatalf("sent[connected] after repeat = %d, want still 1 (dedup mask should suppress it)", host.sent["connected"])
	}
}

func TestBroadcastReturnsLastErrorButKeepsGoing(t *testing.T) {
	nm := gossipRoster(t, "good", "bad")
	host := newRecordingHost("good", "bad")
	host.failFor = "bad"
	g := NewGossiper(nm, host, nil)

	env := &Envelope{Kind: KindSignMsg, SenderIdx: 0, Sign: &Sign{Header: Header{HeightVal: 1}}}
	err := g.Broadcast(env, 1, 0, Hash{2})
	if err == nil {
		t.Fatal("Broadcast must surface the failed peer's error")
	}
	if host.sent["good"] != 1 {
		t.Fatal("a Send failure to one peer must not stop delivery to the rest of the roster")
	}
}

func TestClearMasksAllowsResendAfterRollover(t *testing.T) {
	nm := gossipRoster(t, "connected")
	host := newRecordingHost("connected")
	g := NewGossiper(nm, host, nil)

	env := &Envelope{Kind: KindCommitMsg, SenderIdx: 0, Commit: &Commit{Header: Header{HeightVal: 1}}}
	if err := g.Broadcast(env, 1, 0, Hash{3}); err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	g.ClearMasks()
	if err := g.Broadcast(env, 1, 0, Hash{3}); err != nil {
		t.Fatalf("Broadcast after ClearMasks: %v", err)
	}

	if host.sent["connected"] != 2 {
		t.Fatalf("sent[connected] = %d, want 2 after ClearMasks lifts the dedup mask", host.sent["connected"])
	}
}

func TestSendDeliversToSinglePeerWithoutMarkingKnown(t *testing.T) {
	nm := gossipRoster(t, "target")
	host := newRecordingHost("target")
	g := NewGossiper(nm, host, nil)

	env := &Envelope{Kind: KindPrepareMsg, SenderIdx: 0, Prepare: &Prepare{Header: Header{HeightVal: 1}}}
	if err := g.Send("target", env); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if host.sent["target"] != 1 {
		t.Fatalf("sent[target] = %d, want 1", host.sent["target"])
	}
}
