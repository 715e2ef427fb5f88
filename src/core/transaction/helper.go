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

// go/src/core/transaction/helper.go
package types

import (
	"encoding/hex"
	"fmt"
)

// GetHeight returns the block's height.
func (b *Block) GetHeight() uint64 {
	return b.Header.Height
}

// GetHash returns the block's stored hash (set by Finalize) as hex.
func (b *Block) GetHash() string {
	if b.Header == nil || len(b.Header.Hash) == 0 {
		return ""
	}
	return hex.EncodeToString(b.Header.Hash)
}

// GetPrevHash returns the parent block hash as a printable hex string.
func (b *Block) GetPrevHash() string {
	if b.Header == nil || len(b.Header.ParentHash) == 0 {
		return ""
	}
	return hex.EncodeToString(b.Header.ParentHash)
}

// GetTimestamp returns the block's proposal timestamp.
func (b *Block) GetTimestamp() int64 {
	return b.Header.Timestamp
}

// GetBody returns the block's body.
func (b *Block) GetBody() *BlockBody {
	return &b.Body
}

// IsSealed reports whether the block carries a non-empty signature list.
func (b *Block) IsSealed() bool {
	return len(b.Seal) > 0
}

// ValidateHashFormat validates that the block's stored hash is well-formed hex.
func (b *Block) ValidateHashFormat() error {
	hash := b.GetHash()
	if hash == "" {
		return fmt.Errorf("block hash is empty")
	}
	if _, err := hex.DecodeString(hash); err != nil {
		return fmt.Errorf("block hash is not valid hex: %w", err)
	}
	return nil
}
