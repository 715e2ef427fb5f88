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

// go/src/network/types.go
package network

import (
	"sync"
	"time"
)

// NodeStatus represents the operational state of a node in the network.
type NodeStatus string

const (
	NodeStatusActive   NodeStatus = "active"
	NodeStatusInactive NodeStatus = "inactive"
	NodeStatusUnknown  NodeStatus = "unknown"
)

// NodeRole defines the role a node plays in the consensus roster.
type NodeRole string

const (
	// RoleMiner nodes participate in consensus at the current height.
	RoleMiner NodeRole = "miner"
	// RoleObserver nodes receive gossip but never vote.
	RoleObserver NodeRole = "observer"
)

// NodeID is a 256-bit identifier derived from a node's public key.
type NodeID [32]byte

// msgKind tags which of the four bounded known-message sets a key belongs to.
type msgKind int

const (
	KindPrepare msgKind = iota
	KindSign
	KindCommit
	KindViewChange
	numMsgKinds
)

// knownSetCap bounds each per-peer, per-kind duplicate-suppression set.
const knownSetCap = 1024

// knownSet is a bounded, insertion-ordered set used to suppress re-sending
// a message the peer is already known to hold.
type knownSet struct {
	seen  map[string]struct{}
	order []string
}

func newKnownSet() *knownSet {
	return &knownSet{seen: make(map[string]struct{})}
}

// mark records key as known, evicting the oldest entry if the set is full.
func (s *knownSet) mark(key string) {
	if _, ok := s.seen[key]; ok {
		return
	}
	if len(s.order) >= knownSetCap {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.seen, oldest)
	}
	s.seen[key] = struct{}{}
	s.order = append(s.order, key)
}

func (s *knownSet) has(key string) bool {
	_, ok := s.seen[key]
	return ok
}

func (s *knownSet) clear() {
	s.seen = make(map[string]struct{})
	s.order = nil
}

// NodeManager manages nodes and their peers.
type NodeManager struct {
	nodes       map[string]*Node // All known nodes, keyed by Node.ID
	peers       map[string]*Peer // Connected peers, keyed by Node.ID
	seenMsgs    map[string]bool  // Seen message IDs for deduplication
	LocalNodeID NodeID           // Local node's identity hash
	ResponseCh  chan []*Peer     // Channel for peer-discovery responses
	PingTimeout time.Duration    // Timeout for ping responses
	mu          sync.RWMutex     // Thread safety for node and peer access
}

// Node represents a participant in the blockchain network.
type Node struct {
	ID         string     // Unique identifier (UUID)
	KademliaID NodeID     // Identity hash of the public key
	Address    string     // Network address (e.g., IP:port)
	IP         string     // IP address
	Port       string     // Port number
	Status     NodeStatus // Current status (active/inactive/unknown)
	Role       NodeRole   // Role in the consensus roster (miner/observer)
	MinerIdx   int        // Index within the current miner roster; -1 if not a miner
	LastSeen   time.Time  // Last activity timestamp
	IsLocal    bool       // True if this is the local node
	PublicKey  []byte     // SPHINCS+ public key
	PrivateKey []byte     // SPHINCS+ private key
}

// Peer represents a directly connected node in the network, plus the
// per-kind duplicate-suppression state used by the gossip layer.
type Peer struct {
	Node             *Node     // Associated node
	ConnectionStatus string    // connected/disconnected
	ConnectedAt      time.Time // Connection timestamp
	LastPing         time.Time // Last ping sent
	LastPong         time.Time // Last pong received
	LastSeen         time.Time // Last activity timestamp

	knownMu sync.Mutex
	known   [numMsgKinds]*knownSet
}

// PeerInfo is a shareable snapshot of peer metadata.
type PeerInfo struct {
	NodeID          string     `json:"node_id"`
	KademliaID      NodeID     `json:"kademlia_id"`
	Address         string     `json:"address"`
	IP              string     `json:"ip"`
	Port            string     `json:"port"`
	Status          NodeStatus `json:"status"`
	Role            NodeRole   `json:"role"`
	MinerIdx        int        `json:"miner_idx"`
	Timestamp       time.Time  `json:"timestamp"`
	ProtocolVersion string     `json:"protocol_version"`
	PublicKey       []byte     `json:"public_key"`
}
