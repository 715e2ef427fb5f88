package pbft

import "testing"

func TestBackupLoadEmptyStoreReportsNotOK(t *testing.T) {
	b, err := OpenBackup(t.TempDir())
	if err != nil {
		t.Fatalf("OpenBackup: %v", err)
	}
	defer b.Close()

	_, _, _, _, _, ok, err := b.Load()
	if err != nil {
		t.Fatalf("Load on empty backup: %v", err)
	}
	if ok {
		t.Fatal("Load on a fresh backup store reported ok=true")
	}
}

func TestBackupSaveThenLoadRoundTrip(t *testing.T) {
	b, err := OpenBackup(t.TempDir())
	if err != nil {
		t.Fatalf("OpenBackup: %v", err)
	}
	defer b.Close()

	wantHash := mustHash(0x55)
	wantBlock := []byte("committed-prepare-block")

	if err := b.Save(7, 2, 1, wantHash, wantBlock); err != nil {
		t.Fatalf("Save: %v", err)
	}

	height, view, idx, hash, block, ok, err := b.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !ok {
		t.Fatal("Load after Save reported ok=false")
	}
	if height != 7 || view != 2 || idx != 1 || hash != wantHash || string(block) != string(wantBlock) {
		t.Fatalf("Load round-trip mismatch: height=%d view=%d idx=%d hash=%x block=%q",
			height, view, idx, hash, block)
	}
}

func TestBackupSaveOverwritesPreviousCheckpoint(t *testing.T) {
	b, err := OpenBackup(t.TempDir())
	if err != nil {
		t.Fatalf("OpenBackup: %v", err)
	}
	defer b.Close()

	if err := b.Save(1, 0, 0, mustHash(1), []byte("first")); err != nil {
		t.Fatalf("Save first: %v", err)
	}
	if err := b.Save(2, 0, 0, mustHash(2), []byte("second")); err != nil {
		t.Fatalf("Save second: %v", err)
	}

	height, _, _, hash, block, ok, err := b.Load()
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if height != 2 || hash != mustHash(2) || string(block) != "second" {
		t.Fatalf("expected the second checkpoint to win, got height=%d hash=%x block=%q", height, hash, block)
	}
}
