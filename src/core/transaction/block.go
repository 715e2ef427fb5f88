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

package types

import (
	"math/big"
	"time"

	"github.com/aurumchain/go/src/common"
)

// NewBlockHeader creates a new BlockHeader for height nBlock.
func NewBlockHeader(nBlock uint64, parentHash []byte, txsRoot, stateRoot []byte, gasLimit, gasUsed *big.Int, unclesHash []byte, miner []byte) *BlockHeader {
	return &BlockHeader{
		Version:    1,
		Block:      nBlock,
		Height:     nBlock,
		Timestamp:  time.Now().Unix(),
		ParentHash: parentHash,
		Difficulty: big.NewInt(0),
		Nonce:      "0",
		TxsRoot:    txsRoot,
		StateRoot:  stateRoot,
		GasLimit:   gasLimit,
		GasUsed:    gasUsed,
		UnclesHash: unclesHash,
		Miner:      miner,
	}
}

// NewBlockBody creates a new BlockBody with a list of transactions and uncles hash.
func NewBlockBody(txsList []*Transaction, unclesHash []byte) *BlockBody {
	return &BlockBody{
		TxsList:    txsList,
		UnclesHash: unclesHash,
	}
}

// NewBlock creates a new, unsealed Block from the given header and body.
func NewBlock(header *BlockHeader, body *BlockBody) *Block {
	return &Block{
		Header: header,
		Body:   *body,
	}
}

// HashWithoutSeal returns the 256-bit digest of the header's parent hash,
// height, timestamp, txs root, state root, uncles hash, extra data and
// miner fields plus the body's transaction IDs. The Seal signature list
// and the remaining header fields are not covered. Leaders commit to this
// hash in their PREPARE; replicas re-derive it after re-execution and
// compare, and it is what every consensus signature is taken over.
func (b *Block) HashWithoutSeal() []byte {
	buf := make([]byte, 0, 256)
	buf = append(buf, b.Header.ParentHash...)
	buf = append(buf, uint64ToBytes(b.Header.Height)...)
	buf = append(buf, uint64ToBytes(uint64(b.Header.Timestamp))...)
	buf = append(buf, b.Header.TxsRoot...)
	buf = append(buf, b.Header.StateRoot...)
	buf = append(buf, b.Header.UnclesHash...)
	buf = append(buf, b.Header.ExtraData...)
	buf = append(buf, b.Header.Miner...)
	for _, tx := range b.Body.TxsList {
		buf = append(buf, []byte(tx.ID)...)
	}
	return common.Hash256(buf)
}

func uint64ToBytes(v uint64) []byte {
	return []byte{byte(v >> 56), byte(v >> 48), byte(v >> 40), byte(v >> 32),
		byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

// Finalize computes and stores the block's no-seal hash into Header.Hash.
// Called once by the proposer before broadcasting a PREPARE; non-leader
// replicas call it again on their own re-executed copy to compare.
func (b *Block) Finalize() {
	b.Header.Hash = b.HashWithoutSeal()
}

// NewTxs constructs a Transaction with a deterministic ID derived from its
// fields, so that GetHash() is stable across encode/decode round-trips.
func NewTxs(sender, receiver string, amount *big.Int, gasLimit, gasPrice *big.Int, nonce uint64) *Transaction {
	tx := &Transaction{
		Sender:    sender,
		Receiver:  receiver,
		Amount:    amount,
		GasLimit:  gasLimit,
		GasPrice:  gasPrice,
		Timestamp: time.Now().Unix(),
		Nonce:     nonce,
	}
	tx.ID = txID(tx)
	return tx
}

func txID(tx *Transaction) string {
	buf := []byte(tx.Sender + tx.Receiver)
	buf = append(buf, uint64ToBytes(tx.Nonce)...)
	buf = append(buf, uint64ToBytes(uint64(tx.Timestamp))...)
	return string(common.Hash256(buf))
}
