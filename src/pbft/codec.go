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

// go/src/pbft/codec.go
package pbft

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	types "github.com/aurumchain/go/src/core/transaction"
)

// rlpHeader is the wire form of the consensus message common header,
// in the field order fixed by §6: height, view, idx, timestamp,
// block_hash, sig, sig2. Message variants embed it and rlp flattens
// the embedded fields into the enclosing list.
type rlpHeader struct {
	Height    uint64
	View      uint64
	Idx       int32
	Timestamp uint64
	BlockHash []byte
	Sig       []byte
	Sig2      []byte
}

type rlpPrepare struct {
	rlpHeader
	Block []byte
}

type rlpSign struct {
	rlpHeader
}

type rlpCommit struct {
	rlpHeader
}

type rlpViewChange struct {
	rlpHeader
}

func toRLPHeader(h Header) rlpHeader {
	return rlpHeader{
		Height:    uint64(h.HeightVal),
		View:      uint64(h.ViewVal),
		Idx:       int32(h.IdxVal),
		Timestamp: h.Timestamp,
		BlockHash: h.BlockHashVal[:],
		Sig:       h.SigVal,
		Sig2:      h.Sig2Val,
	}
}

func fromRLPHeader(w rlpHeader) Header {
	h := Header{
		HeightVal: Height(w.Height),
		ViewVal:   View(w.View),
		IdxVal:    Idx(w.Idx),
		Timestamp: w.Timestamp,
		SigVal:    w.Sig,
		Sig2Val:   w.Sig2,
	}
	copy(h.BlockHashVal[:], w.BlockHash)
	return h
}

// EncodeEnvelope serializes env as a one-byte kind tag followed by the
// RLP encoding of the matching variant body.
func EncodeEnvelope(env *Envelope) ([]byte, error) {
	var body any

	switch env.Kind {
	case KindPrepareMsg:
		if env.Prepare == nil {
			return nil, fmt.Errorf("%w: prepare kind with nil body", ErrMalformedEnvelope)
		}
		body = &rlpPrepare{rlpHeader: toRLPHeader(env.Prepare.Header), Block: env.Prepare.Block}
	case KindSignMsg:
		if env.Sign == nil {
			return nil, fmt.Errorf("%w: sign kind with nil body", ErrMalformedEnvelope)
		}
		body = &rlpSign{rlpHeader: toRLPHeader(env.Sign.Header)}
	case KindCommitMsg:
		if env.Commit == nil {
			return nil, fmt.Errorf("%w: commit kind with nil body", ErrMalformedEnvelope)
		}
		body = &rlpCommit{rlpHeader: toRLPHeader(env.Commit.Header)}
	case KindViewChangeMsg:
		if env.ViewChange == nil {
			return nil, fmt.Errorf("%w: view-change kind with nil body", ErrMalformedEnvelope)
		}
		body = &rlpViewChange{rlpHeader: toRLPHeader(env.ViewChange.Header)}
	default:
		return nil, fmt.Errorf("%w: unknown kind %d", ErrMalformedEnvelope, env.Kind)
	}

	encoded, err := rlp.EncodeToBytes(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}

	out := make([]byte, 0, len(encoded)+1)
	out = append(out, byte(env.Kind))
	out = append(out, encoded...)
	return out, nil
}

// DecodeEnvelope parses the one-byte kind tag plus RLP body produced by
// EncodeEnvelope. SenderIdx/SenderNode are populated by the caller
// (the gossip layer knows the transport-level sender identity).
func DecodeEnvelope(raw []byte) (*Envelope, error) {
	if len(raw) < 1 {
		return nil, fmt.Errorf("%w: empty packet", ErrMalformedEnvelope)
	}

	kind := Kind(raw[0])
	body := raw[1:]
	env := &Envelope{Kind: kind}

	switch kind {
	case KindPrepareMsg:
		var w rlpPrepare
		if err := rlp.DecodeBytes(body, &w); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
		}
		env.Prepare = &Prepare{Header: fromRLPHeader(w.rlpHeader), Block: w.Block}
	case KindSignMsg:
		var w rlpSign
		if err := rlp.DecodeBytes(body, &w); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
		}
		env.Sign = &Sign{Header: fromRLPHeader(w.rlpHeader)}
	case KindCommitMsg:
		var w rlpCommit
		if err := rlp.DecodeBytes(body, &w); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
		}
		env.Commit = &Commit{Header: fromRLPHeader(w.rlpHeader)}
	case KindViewChangeMsg:
		var w rlpViewChange
		if err := rlp.DecodeBytes(body, &w); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
		}
		env.ViewChange = &ViewChange{Header: fromRLPHeader(w.rlpHeader)}
	default:
		return nil, fmt.Errorf("%w: unknown kind %d", ErrMalformedEnvelope, kind)
	}

	return env, nil
}

// rlpSigEntry is the wire form of a single (miner-index, signature)
// pair in a sealed block's signature list.
type rlpSigEntry struct {
	Idx int32
	Sig []byte
}

// rlpSealedBlock is the wire form of a finalized block: §6 fixes the
// order header, txs, uncles, hash, sig_list.
type rlpSealedBlock struct {
	Header *types.BlockHeader
	Txs    []*types.Transaction
	Uncles []*types.BlockHeader
	Hash   []byte
	SigList []rlpSigEntry
}

// EncodeSealedBlock serializes a finalized block per §6's wire format.
func EncodeSealedBlock(block *types.Block) ([]byte, error) {
	sigList := make([]rlpSigEntry, len(block.Seal))
	for i, s := range block.Seal {
		sigList[i] = rlpSigEntry{Idx: s.Idx, Sig: s.Sig}
	}

	w := &rlpSealedBlock{
		Header:  block.Header,
		Txs:     block.Body.TxsList,
		Uncles:  block.Body.Uncles,
		Hash:    block.Header.Hash,
		SigList: sigList,
	}

	encoded, err := rlp.EncodeToBytes(w)
	if err != nil {
		return nil, fmt.Errorf("pbft: encode sealed block: %w", err)
	}
	return encoded, nil
}

// DecodeSealedBlock parses the wire format produced by EncodeSealedBlock.
func DecodeSealedBlock(raw []byte) (*types.Block, error) {
	var w rlpSealedBlock
	if err := rlp.DecodeBytes(raw, &w); err != nil {
		return nil, fmt.Errorf("pbft: decode sealed block: %w", err)
	}

	seal := make([]types.SealEntry, len(w.SigList))
	for i, s := range w.SigList {
		seal[i] = types.SealEntry{Idx: s.Idx, Sig: s.Sig}
	}

	w.Header.Hash = w.Hash
	block := &types.Block{
		Header: w.Header,
		Body: types.BlockBody{
			TxsList: w.Txs,
			Uncles:  w.Uncles,
		},
		Seal: seal,
	}
	return block, nil
}
