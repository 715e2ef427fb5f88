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

// go/src/pbft/replica.go
package pbft

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aurumchain/go/src/common"
	logger "github.com/aurumchain/go/src/log"
	"github.com/aurumchain/go/src/network"

	types "github.com/aurumchain/go/src/core/transaction"
)

// Replica is a single node's PBFT state machine (C6). Every field below
// the mutex is replica state per §3 and is mutated only while mu is
// held, by the C7 worker or by a C8 call made from the Client's own
// goroutine.
type Replica struct {
	mu sync.Mutex

	localNodeID string
	signer      *Signer
	executor    BlockExecutor
	chain       ChainStore
	gossip      *Gossiper
	backup      *Backup
	metrics     *metrics

	rosterProvider network.RosterProvider
	nm             *network.NodeManager

	cfgProvider ConfigProvider
	cfg         Config
	cfgErr      bool

	onSealGenerated SealCallback
	onViewChange    ViewChangeCallback

	// currentRoster and localIdx are re-read only at height-advance
	// time, per §4.1.
	currentRoster *network.Roster
	localIdx      Idx

	highestBlock         *types.BlockHeader
	consensusBlockNumber Height
	view                 View
	toView               View
	changeCycle          uint32
	leaderFailed         bool
	lastConsensusTime    time.Time
	lastSignTime         time.Time

	rawPrepare       *Prepare
	prepare          *Prepare
	committedPrepare *Prepare
	futurePrepare    *Prepare

	signCache       map[Hash]map[Idx]*Sign
	commitCache     map[Hash]map[Idx]*Commit
	viewChangeCache map[View]map[Idx]*ViewChange
	sealed          map[Hash]bool
	hashHeight      map[Hash]Height
	leaderCache     map[View]Idx

	lastGC time.Time

	inbound chan inboundFrame
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewReplica wires the replica against its collaborators. Call InitEnv
// before Start.
func NewReplica(
	localNodeID string,
	signer *Signer,
	executor BlockExecutor,
	chain ChainStore,
	nm *network.NodeManager,
	rosterProvider network.RosterProvider,
	gossip *Gossiper,
	backup *Backup,
	cfgProvider ConfigProvider,
	reg prometheus.Registerer,
) *Replica {
	return &Replica{
		localNodeID:     localNodeID,
		signer:          signer,
		executor:        executor,
		chain:           chain,
		nm:              nm,
		rosterProvider:  rosterProvider,
		gossip:          gossip,
		backup:          backup,
		cfgProvider:     cfgProvider,
		metrics:         newMetrics(reg, "pbft"),
		signCache:       make(map[Hash]map[Idx]*Sign),
		commitCache:     make(map[Hash]map[Idx]*Commit),
		viewChangeCache: make(map[View]map[Idx]*ViewChange),
		sealed:          make(map[Hash]bool),
		hashHeight:      make(map[Hash]Height),
		leaderCache:     make(map[View]Idx),
		inbound:         make(chan inboundFrame, 256),
		stopCh:          make(chan struct{}),
	}
}

// InitEnv loads any crash-recovered committed prepare, reads the
// initial configuration, and subscribes to configuration changes.
// head is the chain's current best header, supplied by the Client.
func (r *Replica) InitEnv(head *types.BlockHeader) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	height, view, idx, hash, block, ok, err := r.backup.Load()
	if err != nil {
		logger.Warn("pbft: backup load failed, starting without a recovered prepare: %v", err)
	} else if ok {
		r.committedPrepare = &Prepare{Header: Header{HeightVal: height, ViewVal: view, IdxVal: idx, BlockHashVal: hash}, Block: block}
		logger.Info("pbft: restored committed prepare height=%d view=%d", height, view)
	}

	r.highestBlock = head
	r.consensusBlockNumber = r.highestHeightLocked() + 1
	r.refreshRosterLocked()

	r.cfg = r.cfgProvider.Current()
	if err := r.cfg.Validate(); err != nil {
		r.cfgErr = true
		logger.Warn("pbft: invalid configuration at startup: %v", err)
	}
	r.cfgProvider.Subscribe(r.resetConfig)
	r.lastGC = time.Now()
	r.lastConsensusTime = time.Now()
	r.lastSignTime = time.Now()
	return nil
}

// resetConfig is the configuration channel's change hook (§6).
func (r *Replica) resetConfig(cfg Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := cfg.Validate(); err != nil {
		r.cfgErr = true
		logger.Warn("pbft: rejected configuration update: %v", err)
		return
	}
	r.cfg = cfg
	r.cfgErr = false
	logger.Info("pbft: configuration updated, view_timeout=%s", cfg.ViewTimeout)
}

// OnSealGenerated registers the sealed-block callback.
func (r *Replica) OnSealGenerated(cb SealCallback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onSealGenerated = cb
}

// OnViewChange registers the view-change notification callback.
func (r *Replica) OnViewChange(cb ViewChangeCallback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onViewChange = cb
}

func (r *Replica) refreshRosterLocked() {
	r.currentRoster = r.rosterProvider.RosterAt(r.highestHeightLocked().uint64())
	r.localIdx = Idx(r.currentRoster.IndexOf(r.localNodeID))
	r.leaderCache = make(map[View]Idx)
}

func (r *Replica) highestHeightLocked() Height {
	if r.highestBlock == nil {
		return 0
	}
	return Height(r.highestBlock.Height)
}

func (h Height) uint64() uint64 { return uint64(h) }

func (r *Replica) leaderAtLocked(view View) Idx {
	if idx, ok := r.leaderCache[view]; ok {
		return idx
	}
	idx := Idx(r.currentRoster.LeaderIndex(r.highestHeightLocked().uint64(), uint64(view)))
	r.leaderCache[view] = idx
	return idx
}

func hashBytes(b []byte) Hash {
	var h Hash
	copy(h[:], common.Hash256(b))
	return h
}

// newHeaderLocked builds a fully signed header for a message this
// replica originates.
func (r *Replica) newHeaderLocked(height Height, view View, idx Idx, blockHash Hash) (Header, error) {
	h := Header{HeightVal: height, ViewVal: view, IdxVal: idx, Timestamp: uint64(time.Now().UnixMilli()), BlockHashVal: blockHash}
	sig, err := r.signer.Sign(blockHash)
	if err != nil {
		return Header{}, fmt.Errorf("pbft: sign block hash: %w", err)
	}
	h.SigVal = sig
	sig2, err := r.signer.Sign(hashBytes(h.signingFields()))
	if err != nil {
		return Header{}, fmt.Errorf("pbft: sign header fields: %w", err)
	}
	h.Sig2Val = sig2
	return h, nil
}

func (r *Replica) verifyHeader(pubKey []byte, h Header) bool {
	if !r.signer.Verify(pubKey, h.SigVal, h.BlockHashVal) {
		return false
	}
	return r.signer.Verify(pubKey, h.Sig2Val, hashBytes(h.signingFields()))
}

// ShouldSeal reports whether this replica may propose the next block,
// per §4.5.1. If a committed-but-unpersisted prepare for the current
// height is already held, it is replayed instead and ShouldSeal
// returns false for this call.
func (r *Replica) ShouldSeal() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cfgErr {
		return false
	}
	node := r.nm.GetNode(r.localNodeID)
	if node == nil || node.Role != network.RoleMiner {
		return false
	}
	if r.leaderFailed {
		return false
	}
	if r.highestBlock == nil {
		return false
	}
	if r.localIdx < 0 {
		return false
	}
	if r.leaderAtLocked(r.view) != r.localIdx {
		return false
	}
	if r.committedPrepare != nil && r.committedPrepare.HeightVal == r.consensusBlockNumber {
		r.replayCommittedPrepareLocked()
		return false
	}
	return true
}

func (r *Replica) replayCommittedPrepareLocked() {
	cp := r.committedPrepare
	r.gossip.ClearMasks()
	env := &Envelope{Kind: KindPrepareMsg, SenderIdx: cp.IdxVal, SenderNode: r.localNodeID, Prepare: cp}
	if err := r.gossip.Broadcast(env, cp.HeightVal, cp.ViewVal, cp.BlockHashVal); err != nil {
		logger.Warn("pbft: replay of committed prepare failed to reach some peers: %v", err)
	}
	logger.Info("pbft: replayed committed prepare at height=%d view=%d", cp.HeightVal, cp.ViewVal)
}

// GenerateSeal broadcasts a PREPARE for header/blockBytes as leader,
// returning the view it was sent under (§4.5.1).
func (r *Replica) GenerateSeal(header *types.BlockHeader, blockBytes []byte) (View, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var bh Hash
	copy(bh[:], header.Hash)

	hdr, err := r.newHeaderLocked(Height(header.Height), r.view, r.localIdx, bh)
	if err != nil {
		return 0, err
	}
	prep := &Prepare{Header: hdr, Block: blockBytes}
	r.rawPrepare = prep
	r.hashHeight[bh] = hdr.HeightVal

	env := &Envelope{Kind: KindPrepareMsg, SenderIdx: r.localIdx, SenderNode: r.localNodeID, Prepare: prep}
	if err := r.gossip.Broadcast(env, hdr.HeightVal, hdr.ViewVal, bh); err != nil {
		logger.Warn("pbft: broadcast prepare failed to reach some peers: %v", err)
	}
	r.metrics.prepareEmitted()
	return r.view, nil
}

// GenerateCommit is the single-node fast path: it installs the
// already-broadcast raw prepare as the locally executed prepare
// without a re-execution round trip, then behaves like a SIGN vote
// from the leader itself (§4.5.1).
func (r *Replica) GenerateCommit(header *types.BlockHeader, blockBytes []byte, claimedView View) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if claimedView != r.view {
		return fmt.Errorf("%w: claimed view %d, current view %d", ErrStaleMessage, claimedView, r.view)
	}
	if r.rawPrepare == nil {
		return fmt.Errorf("pbft: generateCommit called with no pending raw prepare")
	}

	var bh Hash
	copy(bh[:], header.Hash)
	installed := &Prepare{Header: r.rawPrepare.Header, Block: blockBytes}
	installed.BlockHashVal = bh
	r.prepare = installed
	r.hashHeight[bh] = installed.HeightVal

	signHdr, err := r.newHeaderLocked(installed.HeightVal, installed.ViewVal, r.localIdx, bh)
	if err != nil {
		return err
	}
	sign := &Sign{Header: signHdr}
	env := &Envelope{Kind: KindSignMsg, SenderIdx: r.localIdx, SenderNode: r.localNodeID, Sign: sign}
	if err := r.gossip.Broadcast(env, installed.HeightVal, installed.ViewVal, bh); err != nil {
		logger.Warn("pbft: broadcast sign failed to reach some peers: %v", err)
	}
	r.markSignLocked(bh, r.localIdx, sign)
	r.checkAndCommitLocked(bh)
	return nil
}

func (r *Replica) markSignLocked(hash Hash, idx Idx, s *Sign) {
	if r.signCache[hash] == nil {
		r.signCache[hash] = make(map[Idx]*Sign)
	}
	r.signCache[hash][idx] = s
	r.metrics.voteReceived("sign")
}

func (r *Replica) markCommitLocked(hash Hash, idx Idx, c *Commit) {
	if r.commitCache[hash] == nil {
		r.commitCache[hash] = make(map[Idx]*Commit)
	}
	r.commitCache[hash][idx] = c
	r.metrics.voteReceived("commit")
}

// handlePrepareLocked implements §4.5.2.
func (r *Replica) handlePrepareLocked(env *Envelope) error {
	R := env.Prepare
	if R == nil {
		return ErrMalformedEnvelope
	}
	if r.rawPrepare != nil && r.rawPrepare.BlockHashVal == R.BlockHashVal {
		return nil
	}
	if env.SenderIdx == r.localIdx {
		return nil
	}
	if R.HeightVal < r.consensusBlockNumber || R.ViewVal < r.view {
		r.metrics.dropped("stale")
		return nil
	}
	if R.HeightVal > r.consensusBlockNumber || R.ViewVal > r.view {
		r.futurePrepare = R
		return nil
	}
	if r.leaderAtLocked(R.ViewVal) != env.SenderIdx {
		r.metrics.dropped("not_leader")
		return fmt.Errorf("%w: idx %d is not the leader for view %d", ErrNotLeader, env.SenderIdx, R.ViewVal)
	}
	if r.committedPrepare != nil && r.committedPrepare.HeightVal == R.HeightVal && r.committedPrepare.BlockHashVal != R.BlockHashVal {
		r.metrics.dropped("locked")
		return ErrLockedByCommitted
	}
	pubKey, err := r.currentRoster.PublicKeyOf(int(env.SenderIdx))
	if err != nil {
		r.metrics.dropped("unknown_sender")
		return fmt.Errorf("%w: %v", ErrUnknownSender, err)
	}
	if !r.verifyHeader(pubKey, R.Header) {
		r.metrics.dropped("bad_signature")
		return ErrBadSignature
	}

	r.rawPrepare = R
	r.prepare = nil

	executed, err := r.executor.CheckBlockValid(R.BlockHashVal, R.Block)
	if err != nil {
		r.metrics.dropped("execution_mismatch")
		return fmt.Errorf("%w: %v", ErrExecutionMismatch, err)
	}
	var executedHash Hash
	copy(executedHash[:], executed.HashWithoutSeal())
	if executedHash != R.BlockHashVal {
		r.metrics.dropped("execution_mismatch")
		return ErrExecutionMismatch
	}

	if len(executed.Body.TxsList) == 0 && r.cfg.OmitEmptyBlock {
		r.emptyBlockViewChangeLocked()
		return ErrEmptyBlockRejected
	}

	executed.Header.Hash = executedHash[:]
	if err := r.chain.AddBlockCache(executed); err != nil {
		logger.Warn("pbft: add block cache failed: %v", err)
	}

	encoded, err := EncodeSealedBlock(executed)
	if err != nil {
		return fmt.Errorf("pbft: encode re-executed block: %w", err)
	}
	installed := &Prepare{
		Header: Header{
			HeightVal: R.HeightVal, ViewVal: R.ViewVal, IdxVal: R.IdxVal,
			Timestamp: R.Timestamp, BlockHashVal: executedHash, SigVal: R.SigVal, Sig2Val: R.Sig2Val,
		},
		Block: encoded,
	}
	r.prepare = installed
	r.hashHeight[executedHash] = installed.HeightVal

	signHdr, err := r.newHeaderLocked(R.HeightVal, R.ViewVal, r.localIdx, executedHash)
	if err != nil {
		return err
	}
	sign := &Sign{Header: signHdr}
	sEnv := &Envelope{Kind: KindSignMsg, SenderIdx: r.localIdx, SenderNode: r.localNodeID, Sign: sign}
	if err := r.gossip.Broadcast(sEnv, R.HeightVal, R.ViewVal, executedHash); err != nil {
		logger.Warn("pbft: broadcast sign failed to reach some peers: %v", err)
	}
	r.markSignLocked(executedHash, r.localIdx, sign)
	r.checkAndCommitLocked(executedHash)
	return nil
}

// handleSignLocked implements §4.5.3.
func (r *Replica) handleSignLocked(env *Envelope) error {
	S := env.Sign
	if S == nil {
		return ErrMalformedEnvelope
	}
	if env.SenderIdx == r.localIdx {
		return nil
	}
	if byIdx, ok := r.signCache[S.BlockHashVal]; ok {
		if _, dup := byIdx[env.SenderIdx]; dup {
			return nil
		}
	}
	if r.prepare == nil || r.prepare.BlockHashVal != S.BlockHashVal {
		if S.HeightVal > r.consensusBlockNumber || S.ViewVal > r.view {
			pubKey, err := r.currentRoster.PublicKeyOf(int(env.SenderIdx))
			if err == nil && r.verifyHeader(pubKey, S.Header) {
				r.markSignLocked(S.BlockHashVal, env.SenderIdx, S)
				r.hashHeight[S.BlockHashVal] = S.HeightVal
			}
			return nil
		}
		return nil
	}
	if r.prepare.ViewVal != S.ViewVal {
		return nil
	}
	pubKey, err := r.currentRoster.PublicKeyOf(int(env.SenderIdx))
	if err != nil {
		r.metrics.dropped("unknown_sender")
		return fmt.Errorf("%w: %v", ErrUnknownSender, err)
	}
	if !r.verifyHeader(pubKey, S.Header) {
		r.metrics.dropped("bad_signature")
		return ErrBadSignature
	}
	r.markSignLocked(S.BlockHashVal, env.SenderIdx, S)
	r.hashHeight[S.BlockHashVal] = S.HeightVal
	r.checkAndCommitLocked(S.BlockHashVal)
	return nil
}

// checkAndCommitLocked implements the quorum check following §4.5.3.
func (r *Replica) checkAndCommitLocked(hash Hash) {
	if r.prepare == nil || r.prepare.BlockHashVal != hash {
		return
	}
	if len(r.signCache[hash]) < r.currentRoster.Quorum() {
		return
	}
	if r.committedPrepare != nil && r.committedPrepare.BlockHashVal == hash {
		r.checkAndSaveLocked(hash)
		return
	}
	cp := *r.prepare
	r.committedPrepare = &cp
	if err := r.backup.Save(cp.HeightVal, cp.ViewVal, cp.IdxVal, cp.BlockHashVal, cp.Block); err != nil {
		logger.Warn("pbft: persisting committed prepare failed: %v", err)
	}

	commitHdr, err := r.newHeaderLocked(cp.HeightVal, cp.ViewVal, r.localIdx, hash)
	if err != nil {
		logger.Warn("pbft: could not sign commit: %v", err)
		return
	}
	commit := &Commit{Header: commitHdr}
	cEnv := &Envelope{Kind: KindCommitMsg, SenderIdx: r.localIdx, SenderNode: r.localNodeID, Commit: commit}
	if err := r.gossip.Broadcast(cEnv, cp.HeightVal, cp.ViewVal, hash); err != nil {
		logger.Warn("pbft: broadcast commit failed to reach some peers: %v", err)
	}
	r.markCommitLocked(hash, r.localIdx, commit)
	r.lastSignTime = time.Now()
	r.checkAndSaveLocked(hash)
}

// handleCommitLocked implements §4.5.4.
func (r *Replica) handleCommitLocked(env *Envelope) error {
	C := env.Commit
	if C == nil {
		return ErrMalformedEnvelope
	}
	if env.SenderIdx == r.localIdx {
		return nil
	}
	if byIdx, ok := r.commitCache[C.BlockHashVal]; ok {
		if _, dup := byIdx[env.SenderIdx]; dup {
			return nil
		}
	}
	if r.prepare == nil || r.prepare.BlockHashVal != C.BlockHashVal {
		if C.HeightVal > r.consensusBlockNumber || C.ViewVal > r.view {
			pubKey, err := r.currentRoster.PublicKeyOf(int(env.SenderIdx))
			if err == nil && r.verifyHeader(pubKey, C.Header) {
				r.markCommitLocked(C.BlockHashVal, env.SenderIdx, C)
				r.hashHeight[C.BlockHashVal] = C.HeightVal
			}
			return nil
		}
		return nil
	}
	if r.prepare.ViewVal != C.ViewVal {
		return nil
	}
	pubKey, err := r.currentRoster.PublicKeyOf(int(env.SenderIdx))
	if err != nil {
		r.metrics.dropped("unknown_sender")
		return fmt.Errorf("%w: %v", ErrUnknownSender, err)
	}
	if !r.verifyHeader(pubKey, C.Header) {
		r.metrics.dropped("bad_signature")
		return ErrBadSignature
	}
	r.markCommitLocked(C.BlockHashVal, env.SenderIdx, C)
	r.hashHeight[C.BlockHashVal] = C.HeightVal
	r.checkAndSaveLocked(C.BlockHashVal)
	return nil
}

// checkAndSaveLocked delivers a sealed block once the local replica
// has observed both sign- and commit-quorum for it (§4.5.4).
func (r *Replica) checkAndSaveLocked(hash Hash) {
	if r.prepare == nil || r.prepare.BlockHashVal != hash {
		return
	}
	if len(r.signCache[hash]) < r.currentRoster.Quorum() {
		return
	}
	if len(r.commitCache[hash]) < r.currentRoster.Quorum() {
		return
	}
	if r.sealed[hash] {
		return
	}
	if r.prepare.ViewVal != r.view {
		return
	}
	if r.prepare.HeightVal <= r.highestHeightLocked() {
		return
	}

	entries := make([]IdxSig, 0, len(r.commitCache[hash]))
	for idx, c := range r.commitCache[hash] {
		entries = append(entries, IdxSig{Idx: idx, Sig: c.SigVal})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Idx < entries[j].Idx })

	block, err := DecodeSealedBlock(r.prepare.Block)
	if err != nil {
		logger.Warn("pbft: could not decode prepared block for sealing: %v", err)
		return
	}
	seal := make([]types.SealEntry, len(entries))
	for i, e := range entries {
		seal[i] = types.SealEntry{Idx: int32(e.Idx), Sig: e.Sig}
	}
	block.Seal = seal

	finalBytes, err := EncodeSealedBlock(block)
	if err != nil {
		logger.Warn("pbft: could not encode sealed block: %v", err)
		return
	}
	r.sealed[hash] = true
	isLocal := r.prepare.IdxVal == r.localIdx

	if !r.lastConsensusTime.IsZero() {
		r.metrics.observeSealLatencySeconds(time.Since(r.lastConsensusTime).Seconds())
	}
	logger.Info("pbft: seal generated height=%d view=%d local=%v sigs=%d", r.prepare.HeightVal, r.prepare.ViewVal, isLocal, len(seal))

	cb := r.onSealGenerated
	if cb != nil {
		go cb(finalBytes, isLocal)
	}
}

// emptyBlockViewChangeLocked implements the empty-block trigger of
// §4.6: it primes the timeout to fire on the worker's next tick.
func (r *Replica) emptyBlockViewChangeLocked() {
	r.lastConsensusTime = time.Time{}
	r.lastSignTime = time.Time{}
	r.changeCycle = 0
	r.leaderFailed = true
	logger.Info("pbft: rejected empty block proposal, forcing view change")
}

// ReportBlock advances the replica to the next height once header has
// been durably persisted by the chain (§4.5.5).
func (r *Replica) ReportBlock(header *types.BlockHeader) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.highestBlock = header
	if Height(header.Height) >= r.consensusBlockNumber {
		r.view = 0
		r.toView = 0
		r.changeCycle = 0
		r.leaderFailed = false
		r.consensusBlockNumber = Height(header.Height) + 1

		var headHash Hash
		copy(headHash[:], header.Hash)
		for v, byIdx := range r.viewChangeCache {
			for idx, vc := range byIdx {
				if vc.HeightVal == Height(header.Height) && vc.BlockHashVal != headHash {
					delete(byIdx, idx)
				}
			}
			if len(byIdx) == 0 {
				delete(r.viewChangeCache, v)
			}
		}
		r.refreshRosterLocked()

		if r.rawPrepare != nil && r.rawPrepare.HeightVal <= r.highestHeightLocked() {
			r.rawPrepare = nil
		}
		if r.prepare != nil && r.prepare.HeightVal <= r.highestHeightLocked() {
			r.prepare = nil
		}
		if r.committedPrepare != nil && r.committedPrepare.HeightVal <= r.highestHeightLocked() {
			r.committedPrepare = nil
		}
	}

	var bh Hash
	copy(bh[:], header.Hash)
	delete(r.signCache, bh)
	delete(r.commitCache, bh)
	delete(r.sealed, bh)
	delete(r.hashHeight, bh)
	r.lastConsensusTime = time.Now()
}

// CheckBlockSign implements the upward `checkBlockSign` interface
// (§6): the chain calls this to verify every incoming block.
func (r *Replica) CheckBlockSign(header *types.BlockHeader, sigList []IdxSig) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if header.Height == 0 {
		return true
	}
	prevRoster := r.rosterProvider.RosterAt(header.Height - 1)
	miners := prevRoster.Miners()
	if len(header.NodeList) != len(miners) {
		return false
	}
	for i, m := range miners {
		if !bytes.Equal(header.NodeList[i], m.PublicKey) {
			return false
		}
	}

	quorum := prevRoster.Quorum()
	if len(sigList) < quorum {
		return false
	}

	var bh Hash
	copy(bh[:], header.Hash)

	seen := make(map[int32]bool, len(sigList))
	for _, s := range sigList {
		idx := int32(s.Idx)
		if idx < 0 || int(idx) >= prevRoster.MinerCount() {
			return false
		}
		if seen[idx] {
			return false
		}
		seen[idx] = true
		pubKey, err := prevRoster.PublicKeyOf(int(idx))
		if err != nil {
			return false
		}
		if !r.signer.Verify(pubKey, s.Sig, bh) {
			return false
		}
	}
	return true
}

// checkTimeoutLocked implements the timeout half of §4.6.
func (r *Replica) checkTimeoutLocked() {
	base := r.lastConsensusTime
	if r.lastSignTime.After(base) {
		base = r.lastSignTime
	}
	interval := time.Duration(float64(r.cfg.ViewTimeout) * math.Pow(1.5, float64(r.changeCycle)))
	if !base.IsZero() && time.Since(base) < interval {
		return
	}

	r.leaderFailed = true
	r.toView++
	if r.changeCycle < r.cfg.KMaxChangeCycle {
		r.changeCycle++
	}
	r.lastConsensusTime = time.Now()

	var headHash Hash
	if r.highestBlock != nil {
		copy(headHash[:], r.highestBlock.Hash)
	}
	if byIdx, ok := r.viewChangeCache[r.toView]; ok {
		for idx, vc := range byIdx {
			if vc.HeightVal < r.highestHeightLocked() || vc.BlockHashVal != headHash {
				delete(byIdx, idx)
			}
		}
	}
	r.broadcastViewChangeLocked(headHash)
	r.checkAndChangeViewLocked()
}

func (r *Replica) broadcastViewChangeLocked(headHash Hash) {
	hdr, err := r.newHeaderLocked(r.highestHeightLocked(), r.toView, r.localIdx, headHash)
	if err != nil {
		logger.Warn("pbft: could not sign view change: %v", err)
		return
	}
	vc := &ViewChange{Header: hdr}
	if r.viewChangeCache[r.toView] == nil {
		r.viewChangeCache[r.toView] = make(map[Idx]*ViewChange)
	}
	r.viewChangeCache[r.toView][r.localIdx] = vc

	env := &Envelope{Kind: KindViewChangeMsg, SenderIdx: r.localIdx, SenderNode: r.localNodeID, ViewChange: vc}
	if err := r.gossip.Broadcast(env, r.highestHeightLocked(), r.toView, headHash); err != nil {
		logger.Warn("pbft: broadcast view change failed to reach some peers: %v", err)
	}
	r.metrics.viewChanged()
	logger.Info("pbft: broadcasting view change to_view=%d change_cycle=%d", r.toView, r.changeCycle)
}

func (r *Replica) checkAndChangeViewLocked() {
	need := r.currentRoster.Quorum()
	if len(r.viewChangeCache[r.toView]) < need {
		return
	}
	r.view = r.toView
	r.leaderFailed = false
	r.rawPrepare = nil
	r.prepare = nil
	r.signCache = make(map[Hash]map[Idx]*Sign)
	r.commitCache = make(map[Hash]map[Idx]*Commit)
	for v := range r.viewChangeCache {
		if v <= r.view {
			delete(r.viewChangeCache, v)
		}
	}
	logger.Info("pbft: view changed to %d", r.view)

	cb := r.onViewChange
	height := r.highestHeightLocked()
	newView := r.view
	if cb != nil {
		go cb(height, newView)
	}
}

// handleViewChangeLocked implements §4.6, including the fast-forward
// rule and the motivation protocol.
func (r *Replica) handleViewChangeLocked(env *Envelope) error {
	VC := env.ViewChange
	if VC == nil {
		return ErrMalformedEnvelope
	}
	pubKey, err := r.currentRoster.PublicKeyOf(int(env.SenderIdx))
	if err != nil {
		r.metrics.dropped("unknown_sender")
		return fmt.Errorf("%w: %v", ErrUnknownSender, err)
	}
	if !r.verifyHeader(pubKey, VC.Header) {
		r.metrics.dropped("bad_signature")
		return ErrBadSignature
	}

	var headHash Hash
	if r.highestBlock != nil {
		copy(headHash[:], r.highestBlock.Hash)
	}

	// Motivation protocol: a peer stuck ≥2 views behind us gets a
	// unicast nudge rather than a rebroadcast.
	if r.toView >= VC.ViewVal+2 {
		hdr, err := r.newHeaderLocked(r.highestHeightLocked(), r.toView, r.localIdx, headHash)
		if err == nil {
			motivate := &Envelope{Kind: KindViewChangeMsg, SenderIdx: r.localIdx, SenderNode: r.localNodeID, ViewChange: &ViewChange{Header: hdr}}
			if err := r.gossip.Send(env.SenderNode, motivate); err != nil {
				logger.Warn("pbft: motivation unicast to %s failed: %v", env.SenderNode, err)
			}
		}
		return nil
	}

	// Fast-forward rule.
	if VC.ViewVal > r.toView {
		senders := map[Idx]bool{env.SenderIdx: true}
		minView := VC.ViewVal
		allAtHead := VC.BlockHashVal == headHash
		for v, byIdx := range r.viewChangeCache {
			if v <= r.toView {
				continue
			}
			for idx, e := range byIdx {
				senders[idx] = true
				if v < minView {
					minView = v
				}
				if e.BlockHashVal != headHash {
					allAtHead = false
				}
			}
		}
		if len(senders) > r.currentRoster.FaultTolerance() && !allAtHead {
			r.toView = minView - 1
			r.lastConsensusTime = time.Time{}
			r.lastSignTime = time.Time{}
			logger.Info("pbft: fast-forwarding to_view=%d after %d view-change senders", r.toView, len(senders))
		}
	}

	if r.viewChangeCache[VC.ViewVal] == nil {
		r.viewChangeCache[VC.ViewVal] = make(map[Idx]*ViewChange)
	}
	r.viewChangeCache[VC.ViewVal][env.SenderIdx] = VC

	if VC.ViewVal == r.toView {
		r.checkAndChangeViewLocked()
	}
	return nil
}

// handleFutureBlockLocked implements the C7 future-buffer drain.
func (r *Replica) handleFutureBlockLocked() {
	if r.futurePrepare == nil {
		return
	}
	if r.futurePrepare.HeightVal != r.consensusBlockNumber || r.futurePrepare.ViewVal != r.view {
		return
	}
	fp := r.futurePrepare
	r.futurePrepare = nil
	env := &Envelope{Kind: KindPrepareMsg, SenderIdx: fp.IdxVal, SenderNode: "", Prepare: fp}
	if err := r.handlePrepareLocked(env); err != nil {
		logger.Warn("pbft: replaying buffered future prepare: %v", err)
	}
}

// collectGarbageLocked implements the periodic sweep of §4.7.
func (r *Replica) collectGarbageLocked() {
	h := r.highestHeightLocked()
	for hash, hh := range r.hashHeight {
		if hh < h {
			delete(r.signCache, hash)
			delete(r.commitCache, hash)
			delete(r.sealed, hash)
			delete(r.hashHeight, hash)
		}
	}
	for v, byIdx := range r.viewChangeCache {
		for idx, vc := range byIdx {
			if vc.HeightVal < h {
				delete(byIdx, idx)
			}
		}
		if len(byIdx) == 0 {
			delete(r.viewChangeCache, v)
		}
	}
}
