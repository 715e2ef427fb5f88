package network

import "testing"

func makeMinerNode(id string) *Node {
	return &Node{
		ID:        id,
		Address:   id + ":30303",
		Role:      RoleMiner,
		Status:    NodeStatusActive,
		MinerIdx:  -1,
		PublicKey: []byte("pubkey-" + id),
	}
}

func buildTestRoster(t *testing.T, n int) *Roster {
	t.Helper()
	nm := NewNodeManager()
	// Ids are chosen out of sort order so BuildRoster's own sort is exercised.
	ids := []string{"charlie", "alice", "bob", "delta"}
	for i := 0; i < n; i++ {
		nm.AddNode(makeMinerNode(ids[i]))
	}
	return BuildRoster(nm, 1)
}

func TestBuildRosterOrdersByNodeID(t *testing.T) {
	r := buildTestRoster(t, 4)
	if r.MinerCount() != 4 {
		t.Fatalf("MinerCount() = %d, want 4", r.MinerCount())
	}
	miners := r.Miners()
	for i := 1; i < len(miners); i++ {
		if miners[i-1].ID >= miners[i].ID {
			t.Fatalf("miners not sorted ascending by ID: %v", miners)
		}
	}
	if r.IndexOf("alice") < 0 {
		t.Fatal("IndexOf did not find a known miner")
	}
	if r.IndexOf("nobody") != -1 {
		t.Fatal("IndexOf found a miner that was never added")
	}
}

func TestRosterQuorumAndFaultTolerance(t *testing.T) {
	// n = 3f+1: n=4 -> f=1, quorum=3. This is the smallest non-trivial
	// Byzantine roster.
	r := buildTestRoster(t, 4)
	if got := r.FaultTolerance(); got != 1 {
		t.Fatalf("FaultTolerance() = %d, want 1", got)
	}
	if got := r.Quorum(); got != 3 {
		t.Fatalf("Quorum() = %d, want 3", got)
	}
}

func TestRosterQuorumForThreeNodes(t *testing.T) {
	// n=3 -> f=0, quorum=3: every replica must agree, the degenerate case
	// with zero fault tolerance.
	r := buildTestRoster(t, 3)
	if got := r.FaultTolerance(); got != 0 {
		t.Fatalf("FaultTolerance() = %d, want 0", got)
	}
	if got := r.Quorum(); got != 3 {
		t.Fatalf("Quorum() = %d, want 3", got)
	}
}

func TestLeaderIndexRotatesRoundRobin(t *testing.T) {
	r := buildTestRoster(t, 4)
	n := uint64(r.MinerCount())

	seen := make(map[int]bool)
	for view := uint64(0); view < n; view++ {
		leader := r.LeaderIndex(10, view)
		if leader < 0 || leader >= int(n) {
			t.Fatalf("LeaderIndex(10, %d) = %d out of range", view, leader)
		}
		seen[leader] = true
	}
	if len(seen) != int(n) {
		t.Fatalf("expected every miner to lead exactly one of the first n views, got %d distinct leaders", len(seen))
	}

	// (height+view) mod n: bumping height by n must reproduce the same
	// leader for the same view.
	if r.LeaderIndex(10, 0) != r.LeaderIndex(10+n, 0) {
		t.Fatal("LeaderIndex is not periodic in height with period n")
	}
}

func TestLeaderIndexEmptyRoster(t *testing.T) {
	nm := NewNodeManager()
	r := BuildRoster(nm, 1)
	if got := r.LeaderIndex(0, 0); got != -1 {
		t.Fatalf("LeaderIndex on an empty roster = %d, want -1", got)
	}
}

func TestPublicKeyOfAndNodeAtRangeChecks(t *testing.T) {
	r := buildTestRoster(t, 3)
	if _, err := r.PublicKeyOf(-1); err == nil {
		t.Fatal("PublicKeyOf(-1) should have failed")
	}
	if _, err := r.PublicKeyOf(3); err == nil {
		t.Fatal("PublicKeyOf(3) should have failed for a 3-miner roster")
	}
	pk, err := r.PublicKeyOf(0)
	if err != nil {
		t.Fatalf("PublicKeyOf(0): %v", err)
	}
	node, err := r.NodeAt(0)
	if err != nil {
		t.Fatalf("NodeAt(0): %v", err)
	}
	if string(pk) != string(node.PublicKey) {
		t.Fatal("PublicKeyOf and NodeAt disagree on the key at the same index")
	}
}

func TestRosterProviderCachesPerHeight(t *testing.T) {
	nm := NewNodeManager()
	nm.AddNode(makeMinerNode("alice"))
	p := NewRosterProvider(nm)

	r1 := p.RosterAt(5)
	r2 := p.RosterAt(5)
	if r1 != r2 {
		t.Fatal("RosterProvider should return the cached roster for a repeated height")
	}

	nm.AddNode(makeMinerNode("bob"))
	r3 := p.RosterAt(6)
	if r3 == r1 {
		t.Fatal("RosterProvider should rebuild the roster for a new height")
	}
	if r3.MinerCount() != 2 {
		t.Fatalf("roster at new height should see the newly added miner, got count %d", r3.MinerCount())
	}
}
