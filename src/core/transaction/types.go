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

// go/src/core/transaction/types.go
package types

import (
	"math/big"
)

// SealEntry pairs a miner index with its signature over a block's
// no-seal hash. A sealed block's Seal field is the concatenation of one
// SealEntry per replica that reached commit-quorum on it.
type SealEntry struct {
	Idx int32  `json:"idx"`
	Sig []byte `json:"sig"`
}

// BlockHeader represents the metadata for a block in the blockchain.
type BlockHeader struct {
	Version    uint64   `json:"version"`     // Block version
	Block      uint64   `json:"nblock"`      // The position of the block in the blockchain (index)
	Height     uint64   `json:"height"`      // Block height (same as Block)
	Timestamp  int64    `json:"timestamp"`   // The timestamp when the block was proposed
	ParentHash []byte   `json:"parent_hash"` // Hash of the previous block
	Hash       []byte   `json:"hash"`        // This block's no-seal hash, set by Finalize
	Difficulty *big.Int `json:"difficulty"`  // Retained for wire compatibility; unused under PBFT
	Nonce      string   `json:"nonce"`       // Retained for wire compatibility; unused under PBFT
	TxsRoot    []byte   `json:"txs_root"`    // Merkle root of the transactions in the block
	StateRoot  []byte   `json:"state_root"`  // Merkle root of the state (EVM-like state)
	GasLimit   *big.Int `json:"gas_limit"`   // The maximum gas that can be used in the block
	GasUsed    *big.Int `json:"gas_used"`    // The actual gas used by the transactions
	UnclesHash []byte   `json:"uncles_hash"` // Hash of the uncles (references side blocks)
	ExtraData  []byte   `json:"extra_data"`  // Extra data field for additional information
	Miner      []byte   `json:"miner"`       // Proposer's public key or address
	NodeList   [][]byte `json:"node_list"`   // Miner public keys effective at height-1, in roster order
}

// BlockBody represents the transactions and uncle blocks.
type BlockBody struct {
	TxsList    []*Transaction `json:"txs_list"`    // A list of transactions in the block
	Uncles     []*BlockHeader `json:"uncles"`      // Actual uncle blocks (side chains)
	UnclesHash []byte         `json:"uncles_hash"` // Hash representing uncles (calculated from uncles)
}

// Block represents the entire block structure including the header, body,
// and (once sealed) the commit-quorum signature list.
type Block struct {
	Header *BlockHeader `json:"header"`
	Body   BlockBody    `json:"body"`
	Seal   []SealEntry  `json:"seal"`
}

// Transaction represents a blockchain transaction
type Transaction struct {
	ID        string   `json:"id"`
	Sender    string   `json:"sender"`
	Receiver  string   `json:"receiver"`
	Amount    *big.Int `json:"amount"`
	GasLimit  *big.Int `json:"gas_limit"`
	GasPrice  *big.Int `json:"gas_price"`
	Nonce     uint64   `json:"nonce"`
	Timestamp int64    `json:"timestamp"`
	Signature []byte   `json:"signature"`
}

// GetHash returns the transaction ID (hash)
func (tx *Transaction) GetHash() string {
	return tx.ID
}

// Validator validates addresses derived for accounts outside the
// consensus roster (e.g. transaction senders/receivers).
type Validator struct {
	senderAddress    string
	recipientAddress string
}
