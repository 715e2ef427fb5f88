package network

import "testing"

func TestNewNodeFromKeyUsesSuppliedKeyVerbatim(t *testing.T) {
	pk := []byte{1, 2, 3, 4}
	n := NewNodeFromKey("127.0.0.1:30303", "127.0.0.1", "30303", true, pk)

	if string(n.PublicKey) != string(pk) {
		t.Fatalf("PublicKey = %v, want %v", n.PublicKey, pk)
	}
	if n.PrivateKey != nil {
		t.Fatal("NewNodeFromKey must never populate PrivateKey; the caller's Signer owns it")
	}
	if n.ID == "" {
		t.Fatal("NewNodeFromKey must assign a node ID")
	}
	if !n.IsLocal {
		t.Fatal("isLocal=true was not propagated")
	}
	if n.MinerIdx != -1 {
		t.Fatalf("MinerIdx = %d, want -1 before roster placement", n.MinerIdx)
	}
}

func TestNewNodeFromKeyAssignsDistinctIDs(t *testing.T) {
	a := NewNodeFromKey("a:1", "a", "1", false, []byte{1})
	b := NewNodeFromKey("b:2", "b", "2", false, []byte{2})
	if a.ID == b.ID {
		t.Fatal("two nodes constructed independently must not share an ID")
	}
}

func TestPeerKnownSetTracksPerKind(t *testing.T) {
	p := NewPeer(makeMinerNode("alice"))

	if p.IsKnown(GossipKindPrepare, "k1") {
		t.Fatal("a freshly constructed peer should not know any key yet")
	}
	p.MarkKnown(GossipKindPrepare, "k1")
	if !p.IsKnown(GossipKindPrepare, "k1") {
		t.Fatal("MarkKnown did not make the key known")
	}
	if p.IsKnown(GossipKindSign, "k1") {
		t.Fatal("marking a key known for one kind must not leak to another kind")
	}

	p.ClearKnown()
	if p.IsKnown(GossipKindPrepare, "k1") {
		t.Fatal("ClearKnown did not reset the prepare-kind known set")
	}
}
