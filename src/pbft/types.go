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

import "fmt"

// Height is a block height.
type Height uint64

// View is a leader round within a height.
type View uint64

// Idx is a miner's index within the roster effective for a height.
type Idx int32

// Hash is a 256-bit digest.
type Hash [32]byte

// Sig is a detached signature over a Hash.
type Sig []byte

func (h Hash) String() string {
	return fmt.Sprintf("%x", [32]byte(h))
}

// IsZero reports whether h is the zero hash.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// Kind identifies which of the four consensus message variants an
// envelope carries.
type Kind byte

const (
	KindPrepareMsg Kind = iota + 1
	KindSignMsg
	KindCommitMsg
	KindViewChangeMsg
)

func (k Kind) String() string {
	switch k {
	case KindPrepareMsg:
		return "PREPARE"
	case KindSignMsg:
		return "SIGN"
	case KindCommitMsg:
		return "COMMIT"
	case KindViewChangeMsg:
		return "VIEWCHANGE"
	default:
		return "UNKNOWN"
	}
}

// Header is the common header shared by every consensus message.
type Header struct {
	HeightVal    Height
	ViewVal      View
	IdxVal       Idx
	Timestamp    uint64
	BlockHashVal Hash
	SigVal       Sig
	Sig2Val      Sig
}

// signingFields returns the header fields covered by Sig2, in wire order,
// excluding Sig and Sig2 themselves.
func (h *Header) signingFields() []byte {
	buf := make([]byte, 0, 8+8+4+8+32)
	buf = appendUint64(buf, uint64(h.HeightVal))
	buf = appendUint64(buf, uint64(h.ViewVal))
	buf = appendUint64(buf, uint64(h.IdxVal))
	buf = appendUint64(buf, h.Timestamp)
	buf = append(buf, h.BlockHashVal[:]...)
	return buf
}

func appendUint64(buf []byte, v uint64) []byte {
	return append(buf, byte(v>>56), byte(v>>48), byte(v>>40), byte(v>>32),
		byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// Prepare is the leader's proposal for a height/view, carrying the
// serialized candidate block.
type Prepare struct {
	Header
	Block []byte
}

// Sign attests that the sender has locally installed the referenced
// prepare after re-execution.
type Sign struct {
	Header
}

// Commit attests that the sender has observed sign-quorum for the
// referenced block hash.
type Commit struct {
	Header
}

// ViewChange requests that the roster move to a new leader round. Its
// View field carries the *target* view, not the sender's current view.
type ViewChange struct {
	Header
}

// IdxSig pairs a miner index with its signature, the unit of a sealed
// block's signature list.
type IdxSig struct {
	Idx Idx
	Sig Sig
}

// Envelope is what the gossip layer (C4) hands to the engine's inbound
// queue: a decoded message plus the sender identity it arrived under.
type Envelope struct {
	Kind       Kind
	SenderIdx  Idx
	SenderNode string
	Prepare    *Prepare
	Sign       *Sign
	Commit     *Commit
	ViewChange *ViewChange
}

// envelopeKey returns the gossip dedup key (sender idx, height, view,
// block hash), per §4.3.
func envelopeKey(idx Idx, height Height, view View, hash Hash) string {
	return fmt.Sprintf("%d:%d:%d:%x", idx, height, view, hash)
}
