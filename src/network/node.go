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

package network

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	key "github.com/aurumchain/go/src/core/sphincs/key/backend"
)

// NewNode creates a new node instance with SPHINCS+ public/private keys.
// It initializes the key manager, generates the key pair, serializes the keys,
// and constructs the Node structure.
func NewNode(address, ip, port string, isLocal bool) *Node {
	// Initialize SPHINCS+ KeyManager
	km, err := key.NewKeyManager()
	if err != nil {
		log.Fatalf("Failed to initialize SPHINCS+ key manager: %v", err)
	}

	// Generate SPHINCS+ key pair
	sk, pk, err := km.GenerateKey()
	if err != nil {
		log.Fatalf("Failed to generate SPHINCS+ key pair: %v", err)
	}

	// Serialize the key pair to byte slices
	skBytes, pkBytes, err := km.SerializeKeyPair(sk, pk)
	if err != nil {
		log.Fatalf("Failed to serialize SPHINCS+ key pair: %v", err)
	}

	// Construct and return the new node with keys and metadata
	return &Node{
		ID:         uuid.New().String(), // Generate a unique identifier for the node
		Address:    address,             // Node's network address
		IP:         ip,                  // IP address of the node
		Port:       port,                // Port number
		Status:     NodeStatusUnknown,   // Initial status of the node
		Role:       RoleObserver,        // Consensus role, promoted by roster refresh
		MinerIdx:   -1,                  // Not a miner until placed in the roster
		LastSeen:   time.Now(),          // Timestamp of last activity
		IsLocal:    isLocal,             // Indicates if this is the local node
		PublicKey:  pkBytes,             // SPHINCS+ public key (shared with others)
		PrivateKey: skBytes,             // SPHINCS+ private key (kept secret, used locally)
	}
}

// NewNodeFromKey constructs a Node whose identity key is supplied by the
// caller rather than generated in-process. The pbft engine's Signer
// owns the matching private key, so the roster's PublicKeyOf must
// return exactly the key that Signer signs under; NewNode's in-process
// keygen cannot guarantee that.
func NewNodeFromKey(address, ip, port string, isLocal bool, publicKey []byte) *Node {
	return &Node{
		ID:        uuid.New().String(),
		Address:   address,
		IP:        ip,
		Port:      port,
		Status:    NodeStatusUnknown,
		Role:      RoleObserver,
		MinerIdx:  -1,
		LastSeen:  time.Now(),
		IsLocal:   isLocal,
		PublicKey: publicKey,
	}
}

// UpdateStatus sets the node's status and updates the timestamp.
// This is typically called when a node becomes active or inactive.
func (n *Node) UpdateStatus(status NodeStatus) {
	n.Status = status
	n.LastSeen = time.Now()
	log.Printf("Node %s status updated to %s", n.ID, status)
}

// NewPeer constructs a new Peer from a Node.
// Initially, the peer is disconnected and has no ping/pong timestamps.
func NewPeer(node *Node) *Peer {
	p := &Peer{
		Node:             node,
		ConnectionStatus: "disconnected", // Initial state
		ConnectedAt:      time.Time{},    // Zero value; not connected yet
		LastPing:         time.Time{},    // No ping sent yet
		LastPong:         time.Time{},    // No pong received yet
	}
	for i := range p.known {
		p.known[i] = newKnownSet()
	}
	return p
}

// isKnown reports whether key has already been marked for the given kind.
func (p *Peer) isKnown(kind msgKind, key string) bool {
	p.knownMu.Lock()
	defer p.knownMu.Unlock()
	return p.known[kind].has(key)
}

// markKnown records key as known for the given kind.
func (p *Peer) markKnown(kind msgKind, key string) {
	p.knownMu.Lock()
	defer p.knownMu.Unlock()
	p.known[kind].mark(key)
}

// clearKnown wipes all four known-message sets for this peer.
func (p *Peer) clearKnown() {
	p.knownMu.Lock()
	defer p.knownMu.Unlock()
	for _, s := range p.known {
		s.clear()
	}
}

// GossipKind identifies one of the four bounded duplicate-suppression
// sets a Peer keeps, in the wire order used by the pbft package's Kind.
type GossipKind int

const (
	GossipKindPrepare GossipKind = iota
	GossipKindSign
	GossipKindCommit
	GossipKindViewChange
)

// IsKnown reports whether key has already been marked as sent to this
// peer under kind.
func (p *Peer) IsKnown(kind GossipKind, key string) bool {
	return p.isKnown(msgKind(kind), key)
}

// MarkKnown records key as sent to this peer under kind.
func (p *Peer) MarkKnown(kind GossipKind, key string) {
	p.markKnown(msgKind(kind), key)
}

// ClearKnown wipes all four known-message sets for this peer, so keys
// already marked for it are sent again on the next broadcast.
func (p *Peer) ClearKnown() {
	p.clearKnown()
}

// ConnectPeer sets the peer as connected, if the node is active.
// It also timestamps the connection time.
func (p *Peer) ConnectPeer() error {
	if p.Node.Status != NodeStatusActive {
		return fmt.Errorf("cannot connect to node %s: status is %s", p.Node.ID, p.Node.Status)
	}
	p.ConnectionStatus = "connected"
	p.ConnectedAt = time.Now()
	log.Printf("Peer %s connected at %s", p.Node.ID, p.ConnectedAt)
	return nil
}

// DisconnectPeer marks a peer as disconnected and clears connection-related timestamps.
func (p *Peer) DisconnectPeer() {
	p.ConnectionStatus = "disconnected"
	p.ConnectedAt = time.Time{}
	p.LastPing = time.Time{}
	p.LastPong = time.Time{}
	log.Printf("Peer %s disconnected", p.Node.ID)
}

// SendPing records the time a ping was sent to the peer.
func (p *Peer) SendPing() {
	p.LastPing = time.Now()
	log.Printf("Sent PING to peer %s", p.Node.ID)
}

// ReceivePong records the time a pong response was received from the peer.
func (p *Peer) ReceivePong() {
	p.LastPong = time.Now()
	log.Printf("Received PONG from peer %s", p.Node.ID)
}

// GetPeerInfo returns a serializable summary of the peer.
// This can be used for network discovery and status sharing.
func (p *Peer) GetPeerInfo() PeerInfo {
	return PeerInfo{
		NodeID:          p.Node.ID,         // Unique identifier
		KademliaID:      p.Node.KademliaID, // Identity hash
		Address:         p.Node.Address,    // Network address
		IP:              p.Node.IP,         // IP address
		Port:            p.Node.Port,       // Port number
		Status:          p.Node.Status,     // Node status
		Role:            p.Node.Role,       // Consensus role
		MinerIdx:        p.Node.MinerIdx,   // Index in the current miner roster
		Timestamp:       time.Now(),        // Timestamp of this info snapshot
		ProtocolVersion: "1.0",             // Version of the protocol
		PublicKey:       p.Node.PublicKey,  // SPHINCS+ public key
	}
}
