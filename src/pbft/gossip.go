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

// go/src/pbft/gossip.go
package pbft

import (
	"fmt"

	"github.com/aurumchain/go/src/network"
)

// Gossiper is the C4 rebroadcast layer: it fans an envelope out to
// every connected peer that has not already been marked as holding
// the (sender, height, view, hash) tuple it carries, so a message
// forwarded by several replicas along different paths converges
// without unbounded duplicate traffic.
type Gossiper struct {
	nm      *network.NodeManager
	host    PeerHost
	metrics *metrics
}

// NewGossiper builds a Gossiper over nm's peer set, delivering wire
// bytes through host.
func NewGossiper(nm *network.NodeManager, host PeerHost, m *metrics) *Gossiper {
	return &Gossiper{nm: nm, host: host, metrics: m}
}

func gossipKindOf(k Kind) network.GossipKind {
	switch k {
	case KindPrepareMsg:
		return network.GossipKindPrepare
	case KindSignMsg:
		return network.GossipKindSign
	case KindCommitMsg:
		return network.GossipKindCommit
	default:
		return network.GossipKindViewChange
	}
}

// Broadcast encodes env and sends it to every connected peer that has
// not already been marked as holding its dedup key, per §4.3. filterSet
// names peers already known (by some other path, e.g. the sender of a
// relayed message) to hold the key; they are marked known without a
// send rather than skipped outright, so a later rebroadcast still
// treats them as caught up. Send failures to individual peers are
// collected but do not stop delivery to the rest of the roster.
func (g *Gossiper) Broadcast(env *Envelope, height Height, view View, hash Hash, filterSet ...string) error {
	raw, err := EncodeEnvelope(env)
	if err != nil {
		return fmt.Errorf("pbft: gossip encode: %w", err)
	}

	key := envelopeKey(env.SenderIdx, height, view, hash)
	kind := gossipKindOf(env.Kind)

	filtered := make(map[string]bool, len(filterSet))
	for _, id := range filterSet {
		filtered[id] = true
	}

	var lastErr error
	for id, peer := range g.nm.GetPeers() {
		if peer.IsKnown(kind, key) {
			continue
		}
		if filtered[id] {
			peer.MarkKnown(kind, key)
			continue
		}
		if !g.host.IsConnected(id) {
			continue
		}
		if err := g.host.Send(id, env.Kind, raw); err != nil {
			g.metrics.dropped("send_failed")
			lastErr = err
			continue
		}
		peer.MarkKnown(kind, key)
	}
	return lastErr
}

// Send delivers env to a single peer without touching its dedup
// state, used for the motivation protocol's pull-forward unicast.
func (g *Gossiper) Send(nodeID string, env *Envelope) error {
	raw, err := EncodeEnvelope(env)
	if err != nil {
		return fmt.Errorf("pbft: gossip encode: %w", err)
	}
	return g.host.Send(nodeID, env.Kind, raw)
}

// ClearMasks wipes every peer's duplicate-suppression state. Called when
// the replica replays its committed prepare, so peers that were already
// sent that prepare receive it again.
func (g *Gossiper) ClearMasks() {
	for _, peer := range g.nm.GetPeers() {
		peer.ClearKnown()
	}
}
