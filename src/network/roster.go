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

// go/src/network/roster.go
package network

import (
	"fmt"
	"sort"
	"sync"
)

// Roster is an ordered, height-scoped snapshot of the miner set. Index
// within the roster is the consensus identity ("Idx") used by the PBFT
// engine; it is stable for the height it was built for and is only
// recomputed at height boundaries.
type Roster struct {
	Height uint64
	miners []*Node // ordered by Node.ID, index == Idx
	byID   map[string]int
}

// BuildRoster filters nm's known nodes to role Miner and returns them
// ordered deterministically by Node.ID, so every honest replica derives
// the same Idx assignment from the same node set.
func BuildRoster(nm *NodeManager, height uint64) *Roster {
	nm.mu.Lock()
	defer nm.mu.Unlock()

	miners := make([]*Node, 0, len(nm.nodes))
	for _, n := range nm.nodes {
		if n.Role == RoleMiner {
			miners = append(miners, n)
		}
	}
	sort.Slice(miners, func(i, j int) bool { return miners[i].ID < miners[j].ID })

	byID := make(map[string]int, len(miners))
	for idx, n := range miners {
		n.MinerIdx = idx
		byID[n.ID] = idx
	}

	return &Roster{Height: height, miners: miners, byID: byID}
}

// MinerCount returns n, the total number of miners in the roster.
func (r *Roster) MinerCount() int {
	return len(r.miners)
}

// IndexOf returns the miner index of nodeID, or -1 if it is not a miner
// in this roster.
func (r *Roster) IndexOf(nodeID string) int {
	if idx, ok := r.byID[nodeID]; ok {
		return idx
	}
	return -1
}

// PublicKeyOf returns the SPHINCS+ public key of the miner at idx.
func (r *Roster) PublicKeyOf(idx int) ([]byte, error) {
	if idx < 0 || idx >= len(r.miners) {
		return nil, fmt.Errorf("network: miner index %d out of range [0,%d)", idx, len(r.miners))
	}
	return r.miners[idx].PublicKey, nil
}

// NodeAt returns the node registered at miner index idx.
func (r *Roster) NodeAt(idx int) (*Node, error) {
	if idx < 0 || idx >= len(r.miners) {
		return nil, fmt.Errorf("network: miner index %d out of range [0,%d)", idx, len(r.miners))
	}
	return r.miners[idx], nil
}

// Miners returns the ordered miner list backing this roster snapshot.
// Callers must not mutate the returned slice.
func (r *Roster) Miners() []*Node {
	return r.miners
}

// Quorum returns n-f, the number of matching votes required to finalize
// under a classical Byzantine fault model where n = 3f+1.
func (r *Roster) Quorum() int {
	n := len(r.miners)
	f := (n - 1) / 3
	return n - f
}

// FaultTolerance returns f for this roster's miner count.
func (r *Roster) FaultTolerance() int {
	n := len(r.miners)
	return (n - 1) / 3
}

// LeaderIndex returns the miner index leading round view at the given
// height, using round-robin rotation: (view + height) mod n.
func (r *Roster) LeaderIndex(height uint64, view uint64) int {
	n := len(r.miners)
	if n == 0 {
		return -1
	}
	return int((view + height) % uint64(n))
}

// RosterProvider supplies the roster effective at a given height. The
// engine re-reads it only when advancing to a new height (§4.1).
type RosterProvider interface {
	RosterAt(height uint64) *Roster
}

// nodeManagerRosterProvider adapts a NodeManager into a RosterProvider,
// caching one roster per height so repeated queries within a height
// don't re-scan and re-sort the node table.
type nodeManagerRosterProvider struct {
	nm *NodeManager

	mu     sync.Mutex
	cached *Roster
}

// NewRosterProvider wraps nm as a height-scoped RosterProvider.
func NewRosterProvider(nm *NodeManager) RosterProvider {
	return &nodeManagerRosterProvider{nm: nm}
}

func (p *nodeManagerRosterProvider) RosterAt(height uint64) *Roster {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cached != nil && p.cached.Height == height {
		return p.cached
	}
	p.cached = BuildRoster(p.nm, height)
	return p.cached
}
