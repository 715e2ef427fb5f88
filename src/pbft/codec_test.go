package pbft

import (
	"bytes"
	"math/big"
	"testing"

	types "github.com/aurumchain/go/src/core/transaction"
)

func mustHash(b byte) Hash {
	var h Hash
	h[0] = b
	return h
}

func TestEncodeDecodeEnvelopeRoundTrip(t *testing.T) {
	cases := []*Envelope{
		{
			Kind: KindPrepareMsg,
			Prepare: &Prepare{
				Header: Header{HeightVal: 3, ViewVal: 1, IdxVal: 0, Timestamp: 42, BlockHashVal: mustHash(7), SigVal: Sig{1, 2}, Sig2Val: Sig{3, 4}},
				Block:  []byte("candidate-block-bytes"),
			},
		},
		{
			Kind: KindSignMsg,
			Sign: &Sign{Header: Header{HeightVal: 3, ViewVal: 1, IdxVal: 2, Timestamp: 42, BlockHashVal: mustHash(7), SigVal: Sig{5, 6}}},
		},
		{
			Kind:   KindCommitMsg,
			Commit: &Commit{Header: Header{HeightVal: 3, ViewVal: 1, IdxVal: 1, Timestamp: 42, BlockHashVal: mustHash(7), SigVal: Sig{7, 8}}},
		},
		{
			Kind:       KindViewChangeMsg,
			ViewChange: &ViewChange{Header: Header{HeightVal: 3, ViewVal: 4, IdxVal: 2, Timestamp: 43, BlockHashVal: mustHash(9), SigVal: Sig{9}}},
		},
	}

	for _, want := range cases {
		raw, err := EncodeEnvelope(want)
		if err != nil {
			t.Fatalf("EncodeEnvelope(%v): %v", want.Kind, err)
		}
		got, err := DecodeEnvelope(raw)
		if err != nil {
			t.Fatalf("DecodeEnvelope(%v): %v", want.Kind, err)
		}
		if got.Kind != want.Kind {
			t.Fatalf("Kind = %v, want %v", got.Kind, want.Kind)
		}
		switch want.Kind {
		case KindPrepareMsg:
			if got.Prepare.HeightVal != want.Prepare.HeightVal || !bytes.Equal(got.Prepare.Block, want.Prepare.Block) {
				t.Fatalf("prepare round-trip mismatch: got %+v want %+v", got.Prepare, want.Prepare)
			}
			if got.Prepare.BlockHashVal != want.Prepare.BlockHashVal {
				t.Fatalf("prepare block hash mismatch: got %x want %x", got.Prepare.BlockHashVal, want.Prepare.BlockHashVal)
			}
		case KindSignMsg:
			if got.Sign.IdxVal != want.Sign.IdxVal || !bytes.Equal(got.Sign.SigVal, want.Sign.SigVal) {
				t.Fatalf("sign round-trip mismatch: got %+v want %+v", got.Sign, want.Sign)
			}
		case KindCommitMsg:
			if got.Commit.IdxVal != want.Commit.IdxVal {
				t.Fatalf("commit round-trip mismatch: got %+v want %+v", got.Commit, want.Commit)
			}
		case KindViewChangeMsg:
			if got.ViewChange.ViewVal != want.ViewChange.ViewVal {
				t.Fatalf("view-change round-trip mismatch: got %+v want %+v", got.ViewChange, want.ViewChange)
			}
		}
	}
}

func TestEncodeEnvelopeRejectsNilBody(t *testing.T) {
	_, err := EncodeEnvelope(&Envelope{Kind: KindPrepareMsg})
	if err == nil {
		t.Fatal("expected error encoding a prepare envelope with nil body")
	}
}

func TestDecodeEnvelopeRejectsEmptyAndUnknownKind(t *testing.T) {
	if _, err := DecodeEnvelope(nil); err == nil {
		t.Fatal("expected error decoding an empty packet")
	}
	if _, err := DecodeEnvelope([]byte{0xff}); err == nil {
		t.Fatal("expected error decoding an unknown kind tag")
	}
}

func TestEncodeDecodeSealedBlockRoundTrip(t *testing.T) {
	header := types.NewBlockHeader(4, []byte("parent"), []byte("txsroot"), []byte("stateroot"), big.NewInt(1_000_000), big.NewInt(21_000), nil, []byte("miner-pubkey"))
	tx := types.NewTxs("xsenderaddressabcdefghijklmno", "xreceiveraddressabcdefghijklm", big.NewInt(5), big.NewInt(21000), big.NewInt(1), 0)
	body := types.NewBlockBody([]*types.Transaction{tx}, nil)
	block := types.NewBlock(header, body)
	block.Finalize()
	block.Seal = []types.SealEntry{
		{Idx: 1, Sig: []byte("sig-from-1")},
		{Idx: 0, Sig: []byte("sig-from-0")},
	}

	raw, err := EncodeSealedBlock(block)
	if err != nil {
		t.Fatalf("EncodeSealedBlock: %v", err)
	}

	got, err := DecodeSealedBlock(raw)
	if err != nil {
		t.Fatalf("DecodeSealedBlock: %v", err)
	}

	if got.Header.Height != block.Header.Height {
		t.Fatalf("Height = %d, want %d", got.Header.Height, block.Header.Height)
	}
	if !bytes.Equal(got.Header.Hash, block.Header.Hash) {
		t.Fatalf("Hash = %x, want %x", got.Header.Hash, block.Header.Hash)
	}
	if len(got.Body.TxsList) != 1 || got.Body.TxsList[0].ID != tx.ID {
		t.Fatalf("TxsList round-trip mismatch: got %+v", got.Body.TxsList)
	}
	if len(got.Seal) != 2 || got.Seal[0].Idx != 1 || got.Seal[1].Idx != 0 {
		t.Fatalf("Seal round-trip mismatch: got %+v", got.Seal)
	}
}
