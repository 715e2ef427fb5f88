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

// go/src/state/executor.go
package state

import (
	"fmt"

	types "github.com/aurumchain/go/src/core/transaction"
	"github.com/aurumchain/go/src/pbft"
)

// Executor is the "Block executor" collaborator (§6): it decodes a
// leader's candidate block, deterministically re-derives its no-seal
// hash, and hands the result back for the caller to compare against
// the proposal's claimed hash.
type Executor struct{}

// NewExecutor builds an Executor. It carries no mutable state of its
// own; every input needed to re-derive a block's hash travels inside
// the block bytes.
func NewExecutor() *Executor {
	return &Executor{}
}

// CheckBlockValid implements pbft.BlockExecutor.
func (e *Executor) CheckBlockValid(hash pbft.Hash, raw []byte) (*types.Block, error) {
	block, err := pbft.DecodeSealedBlock(raw)
	if err != nil {
		return nil, fmt.Errorf("state: decode candidate block: %w", err)
	}

	for _, tx := range block.Body.TxsList {
		if err := types.ValidateAddress(tx.Sender); err != nil {
			return nil, fmt.Errorf("state: invalid sender address in tx %s: %w", tx.ID, err)
		}
		if err := types.ValidateAddress(tx.Receiver); err != nil {
			return nil, fmt.Errorf("state: invalid receiver address in tx %s: %w", tx.ID, err)
		}
	}

	block.Finalize()
	return block, nil
}
