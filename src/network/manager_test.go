package network

import (
	"testing"
	"time"
)

func activeMinerNode(id string) *Node {
	return &Node{ID: id, Address: id + ":30303", Status: NodeStatusActive, Role: RoleMiner}
}

func TestAddPeerRequiresActiveNode(t *testing.T) {
	nm := NewNodeManager()
	inactive := &Node{ID: "n1", Status: NodeStatusInactive, Role: RoleObserver}
	nm.AddNode(inactive)

	if err := nm.AddPeer(inactive); err == nil {
		t.Fatal("AddPeer must reject a node that is not active")
	}
	if len(nm.GetPeers()) != 0 {
		t.Fatal("a rejected AddPeer must not leave a peer entry behind")
	}
}

func TestAddPeerThenGetPeers(t *testing.T) {
	nm := NewNodeManager()
	node := activeMinerNode("n1")

	if err := nm.AddPeer(node); err != nil {
		t.Fatalf("AddPeer: %v", err)
	}

	peers := nm.GetPeers()
	peer, ok := peers["n1"]
	if !ok {
		t.Fatal("GetPeers did not return the peer just added")
	}
	if peer.ConnectionStatus != "connected" {
		t.Fatalf("ConnectionStatus = %q, want connected", peer.ConnectionStatus)
	}
}

func TestRemovePeerDisconnectsAndDeletes(t *testing.T) {
	nm := NewNodeManager()
	node := activeMinerNode("n1")
	if err := nm.AddPeer(node); err != nil {
		t.Fatalf("AddPeer: %v", err)
	}

	nm.RemovePeer("n1")

	if _, ok := nm.GetPeers()["n1"]; ok {
		t.Fatal("RemovePeer must delete the peer entry")
	}
}

func TestPruneInactivePeersDropsStaleOnes(t *testing.T) {
	nm := NewNodeManager()
	fresh := activeMinerNode("fresh")
	stale := activeMinerNode("stale")
	if err := nm.AddPeer(fresh); err != nil {
		t.Fatalf("AddPeer(fresh): %v", err)
	}
	if err := nm.AddPeer(stale); err != nil {
		t.Fatalf("AddPeer(stale): %v", err)
	}

	nm.GetPeers()["fresh"].ReceivePong()
	nm.GetPeers()["stale"].LastPong = time.Now().Add(-time.Hour)

	nm.PruneInactivePeers(time.Minute)

	peers := nm.GetPeers()
	if _, ok := peers["fresh"]; !ok {
		t.Fatal("PruneInactivePeers dropped a peer that just ponged")
	}
	if _, ok := peers["stale"]; ok {
		t.Fatal("PruneInactivePeers kept a peer whose last pong is older than the timeout")
	}
}

func TestHasSeenMessageAndMarkMessageSeen(t *testing.T) {
	nm := NewNodeManager()
	if nm.HasSeenMessage("m1") {
		t.Fatal("a message never marked must not be reported as seen")
	}
	nm.MarkMessageSeen("m1")
	if !nm.HasSeenMessage("m1") {
		t.Fatal("a marked message must be reported as seen")
	}
}

func TestSelectMinerReturnsActiveMinerOnly(t *testing.T) {
	nm := NewNodeManager()
	nm.AddNode(&Node{ID: "observer", Status: NodeStatusActive, Role: RoleObserver})
	nm.AddNode(&Node{ID: "inactive-miner", Status: NodeStatusInactive, Role: RoleMiner})

	if got := nm.SelectMiner(); got != nil {
		t.Fatalf("SelectMiner = %+v, want nil when no active miner is registered", got)
	}

	nm.AddNode(activeMinerNode("m1"))
	got := nm.SelectMiner()
	if got == nil || got.ID != "m1" {
		t.Fatalf("SelectMiner = %+v, want the active miner m1", got)
	}
}

func TestBroadcastPeerInfoSkipsSender(t *testing.T) {
	nm := NewNodeManager()
	sender := activeMinerNode("sender")
	other := activeMinerNode("other")
	if err := nm.AddPeer(sender); err != nil {
		t.Fatalf("AddPeer(sender): %v", err)
	}
	if err := nm.AddPeer(other); err != nil {
		t.Fatalf("AddPeer(other): %v", err)
	}

	senderPeer := nm.GetPeers()["sender"]
	var sentTo []string
	err := nm.BroadcastPeerInfo(senderPeer, func(addr string, info *PeerInfo) error {
		sentTo = append(sentTo, addr)
		return nil
	})
	if err != nil {
		t.Fatalf("BroadcastPeerInfo: %v", err)
	}
	if len(sentTo) != 1 || sentTo[0] != other.Address {
		t.Fatalf("BroadcastPeerInfo sent to %v, want exactly [%s]", sentTo, other.Address)
	}
}
