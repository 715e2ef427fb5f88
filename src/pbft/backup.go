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

// go/src/pbft/backup.go
package pbft

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/syndtr/goleveldb/leveldb"

	database "github.com/aurumchain/go/src/core/state"
)

// committedPrepareKey is the single durable slot C5 occupies: the last
// prepare this replica reached sign-quorum on and locked, persisted
// before the COMMIT that depends on it is broadcast (P3).
var committedPrepareKey = []byte("committed_prepare")

// committedPrepareRecord is the RLP-encoded payload backed up under
// committedPrepareKey. Idx is stored unsigned because rlp cannot encode
// signed integers.
type committedPrepareRecord struct {
	Height Height
	View   View
	Idx    uint32
	Hash   Hash
	Block  []byte
}

// Backup is the crash-recovery store for the single committed-prepare
// checkpoint the replica must survive a restart with.
type Backup struct {
	db *database.DB
}

// OpenBackup opens (creating if absent) the LevelDB store rooted at
// <dataDir>/pbftMsgBackup.
func OpenBackup(dataDir string) (*Backup, error) {
	path := filepath.Join(dataDir, "pbftMsgBackup")
	db, err := database.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pbft: open backup store at %s: %w", path, err)
	}
	return &Backup{db: db}, nil
}

// Save durably records the locked prepare. Callers must complete this
// write before broadcasting the corresponding COMMIT.
func (b *Backup) Save(height Height, view View, idx Idx, hash Hash, block []byte) error {
	rec := committedPrepareRecord{Height: height, View: view, Idx: uint32(idx), Hash: hash, Block: block}
	raw, err := rlp.EncodeToBytes(&rec)
	if err != nil {
		return newBackupIOError("encode", err)
	}
	if err := b.db.Put(committedPrepareKey, raw); err != nil {
		return newBackupIOError("put", err)
	}
	return nil
}

// Load returns the last saved committed prepare, and ok=false if the
// backup is empty (a fresh replica with nothing to replay).
func (b *Backup) Load() (height Height, view View, idx Idx, hash Hash, block []byte, ok bool, err error) {
	raw, err := b.db.Get(committedPrepareKey)
	if errors.Is(err, leveldb.ErrNotFound) {
		return 0, 0, 0, Hash{}, nil, false, nil
	}
	if err != nil {
		return 0, 0, 0, Hash{}, nil, false, newBackupIOError("get", err)
	}
	var rec committedPrepareRecord
	if err := rlp.DecodeBytes(raw, &rec); err != nil {
		return 0, 0, 0, Hash{}, nil, false, newBackupIOError("decode", err)
	}
	return rec.Height, rec.View, Idx(rec.Idx), rec.Hash, rec.Block, true, nil
}

// Close releases the underlying store handle.
func (b *Backup) Close() error {
	return b.db.Close()
}
