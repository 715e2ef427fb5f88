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

package pbft

import (
	types "github.com/aurumchain/go/src/core/transaction"
)

// BlockExecutor re-executes a candidate block deterministically and
// returns the resulting block, whose own no-seal hash the caller
// compares against the proposer's claimed hash.
type BlockExecutor interface {
	CheckBlockValid(hash Hash, raw []byte) (*types.Block, error)
}

// ChainStore is the block-chain store collaborator: it appends sealed
// blocks and answers ancestry/height queries. The engine never blocks
// on it beyond the synchronous calls below.
type ChainStore interface {
	GetBlock(hash Hash) ([]byte, bool)
	AddBlockCache(block *types.Block) error
	Number() Height
	ChainParams() ChainParams
}

// ChainParams are the subset of chain configuration the engine needs
// from the block-chain store collaborator.
type ChainParams struct {
	ViewTimeoutMS    int64
	OmitEmptyBlock   bool
	KMaxChangeCycle  uint32
	KCollectInterval int64
}

// PeerHost is the peer-to-peer transport collaborator (§6 "Peer host").
type PeerHost interface {
	ForEachPeer(f func(nodeID string, idx Idx))
	IsConnected(nodeID string) bool
	Send(nodeID string, kind Kind, payload []byte) error
}

// ConfigProvider is the system-contract configuration channel
// collaborator: it supplies runtime parameters and notifies the engine
// of changes via resetConfig. The miner roster comes from RosterProvider.
type ConfigProvider interface {
	Current() Config
	Subscribe(onChange func(Config))
}

// SealCallback receives a sealed block once commit-quorum is reached.
// isLocal is true when the local replica authored the proposal.
type SealCallback func(sealedRLP []byte, isLocal bool)

// ViewChangeCallback notifies the Client that the view changed, so any
// application-level per-view state can be reset.
type ViewChangeCallback func(height Height, newView View)
