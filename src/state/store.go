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

// go/src/state/store.go
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	types "github.com/aurumchain/go/src/core/transaction"
	logger "github.com/aurumchain/go/src/log"
	"github.com/aurumchain/go/src/pbft"
)

// Storage is a minimal, file-backed block-chain store: the "Block-chain
// store" collaborator that the pbft engine appends finalized blocks to
// and reads committed history from. It has no consensus knowledge of its
// own; the engine decides what to append and when.
//
// Storage also implements pbft.ChainStore: pending stages candidate
// blocks a replica has re-executed but not yet sealed, keyed by their
// no-seal hash, separately from the byHash/byHeight indices that only
// ever hold sealed history.
type Storage struct {
	mu sync.RWMutex

	blocksDir string
	indexDir  string

	byHash   map[string]*types.Block
	byHeight map[uint64]*types.Block
	pending  map[pbft.Hash]*types.Block

	bestHash   string
	bestHeight uint64
	hasBlocks  bool

	params pbft.ChainParams
}

// NewStorage opens (or creates) a file-backed store rooted at dataDir,
// using params for the ChainParams the pbft engine reads at InitEnv.
func NewStorage(dataDir string, params pbft.ChainParams) (*Storage, error) {
	s := &Storage{
		blocksDir: filepath.Join(dataDir, "blocks"),
		indexDir:  filepath.Join(dataDir, "index"),
		byHash:    make(map[string]*types.Block),
		byHeight:  make(map[uint64]*types.Block),
		pending:   make(map[pbft.Hash]*types.Block),
		params:    params,
	}

	if err := os.MkdirAll(s.blocksDir, 0755); err != nil {
		return nil, fmt.Errorf("create blocks dir: %w", err)
	}
	if err := os.MkdirAll(s.indexDir, 0755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}

	if err := s.loadIndex(); err != nil {
		logger.Warn("could not load block index, starting fresh: %v", err)
	}

	return s, nil
}

// Append persists a finalized (sealed) block. Appending a block already
// known at the same height is a no-op.
func (s *Storage) Append(block *types.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash := block.GetHash()
	height := block.GetHeight()

	if existing, ok := s.byHeight[height]; ok && existing.GetHash() == hash {
		return nil
	}

	if err := s.writeBlockFile(hash, block); err != nil {
		return fmt.Errorf("write block to disk: %w", err)
	}

	s.byHash[hash] = block
	s.byHeight[height] = block
	if !s.hasBlocks || height >= s.bestHeight {
		s.bestHash = hash
		s.bestHeight = height
		s.hasBlocks = true
	}
	var bh pbft.Hash
	copy(bh[:], block.Header.Hash)
	delete(s.pending, bh)

	return s.saveIndex()
}

// GetBlock returns the RLP-encoded sealed form of the block known
// under hash, checked first against pending re-executed candidates and
// then against finalized history, implementing pbft.ChainStore.
func (s *Storage) GetBlock(hash pbft.Hash) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	block, ok := s.pending[hash]
	if !ok {
		block, ok = s.byHash[hash.String()]
	}
	if !ok {
		return nil, false
	}
	raw, err := pbft.EncodeSealedBlock(block)
	if err != nil {
		logger.Warn("state: encode block %s for GetBlock: %v", hash, err)
		return nil, false
	}
	return raw, true
}

// AddBlockCache stages a re-executed candidate block ahead of it
// reaching commit-quorum, implementing pbft.ChainStore.
func (s *Storage) AddBlockCache(block *types.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var bh pbft.Hash
	copy(bh[:], block.Header.Hash)
	s.pending[bh] = block
	return nil
}

// Number returns the height of the highest finalized block,
// implementing pbft.ChainStore.
func (s *Storage) Number() pbft.Height {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return pbft.Height(s.bestHeight)
}

// ChainParams returns the engine tuning parameters this store was
// opened with, implementing pbft.ChainStore.
func (s *Storage) ChainParams() pbft.ChainParams {
	return s.params
}

// BlockAtHeight returns the block stored at height, if any.
func (s *Storage) BlockAtHeight(height uint64) (*types.Block, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.byHeight[height]
	return b, ok
}

// BlockByHash returns the block with the given hash, if any.
func (s *Storage) BlockByHash(hash string) (*types.Block, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.byHash[hash]
	return b, ok
}

// Head returns the height and hash of the highest block appended so far.
// ok is false for an empty store (i.e. only the implicit genesis exists).
func (s *Storage) Head() (height uint64, hash string, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bestHeight, s.bestHash, s.hasBlocks
}

func (s *Storage) writeBlockFile(hash string, block *types.Block) error {
	data, err := json.Marshal(block)
	if err != nil {
		return err
	}
	path := filepath.Join(s.blocksDir, hash+".json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (s *Storage) loadBlockFile(hash string) (*types.Block, error) {
	data, err := os.ReadFile(filepath.Join(s.blocksDir, hash+".json"))
	if err != nil {
		return nil, err
	}
	var b types.Block
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

type diskIndexEntry struct {
	Hash   string `json:"hash"`
	Height uint64 `json:"height"`
}

func (s *Storage) indexPath() string {
	return filepath.Join(s.indexDir, "blocks.json")
}

func (s *Storage) saveIndex() error {
	entries := make([]diskIndexEntry, 0, len(s.byHeight))
	for height, b := range s.byHeight {
		entries = append(entries, diskIndexEntry{Hash: b.GetHash(), Height: height})
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	tmp := s.indexPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.indexPath())
}

func (s *Storage) loadIndex() error {
	data, err := os.ReadFile(s.indexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var entries []diskIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}

	for _, e := range entries {
		block, err := s.loadBlockFile(e.Hash)
		if err != nil {
			logger.Warn("skipping unreadable block file hash=%s: %v", e.Hash, err)
			continue
		}
		s.byHash[e.Hash] = block
		s.byHeight[e.Height] = block
		if !s.hasBlocks || e.Height >= s.bestHeight {
			s.bestHeight = e.Height
			s.bestHash = e.Hash
			s.hasBlocks = true
		}
	}

	return nil
}
