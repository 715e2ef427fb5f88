package state

import (
	"math/big"
	"testing"

	types "github.com/aurumchain/go/src/core/transaction"
	"github.com/aurumchain/go/src/pbft"
)

func sealedRawWithTx(t *testing.T, sender, receiver string) []byte {
	t.Helper()
	header := types.NewBlockHeader(1, []byte("parent"), nil, nil, big.NewInt(0), big.NewInt(0), nil, []byte("miner"))
	tx := types.NewTxs(sender, receiver, big.NewInt(1), big.NewInt(21000), big.NewInt(1), 0)
	block := types.NewBlock(header, types.NewBlockBody([]*types.Transaction{tx}, nil))
	block.Finalize()

	raw, err := pbft.EncodeSealedBlock(block)
	if err != nil {
		t.Fatalf("EncodeSealedBlock: %v", err)
	}
	return raw
}

func TestExecutorCheckBlockValidAcceptsWellFormedAddresses(t *testing.T) {
	raw := sealedRawWithTx(t, "xsenderaddressabcdefghijklmno", "xreceiveraddressabcdefghijklm")

	e := NewExecutor()
	block, err := e.CheckBlockValid(pbft.Hash{}, raw)
	if err != nil {
		t.Fatalf("CheckBlockValid: %v", err)
	}
	if len(block.Header.Hash) == 0 {
		t.Fatal("CheckBlockValid must Finalize the block, leaving Header.Hash set")
	}
}

func TestExecutorCheckBlockValidRejectsBadSenderAddress(t *testing.T) {
	raw := sealedRawWithTx(t, "not-a-valid-address", "xreceiveraddressabcdefghijklm")

	e := NewExecutor()
	if _, err := e.CheckBlockValid(pbft.Hash{}, raw); err == nil {
		t.Fatal("expected CheckBlockValid to reject a malformed sender address")
	}
}

func TestExecutorCheckBlockValidRejectsBadReceiverAddress(t *testing.T) {
	raw := sealedRawWithTx(t, "xsenderaddressabcdefghijklmno", "short")

	e := NewExecutor()
	if _, err := e.CheckBlockValid(pbft.Hash{}, raw); err == nil {
		t.Fatal("expected CheckBlockValid to reject a malformed receiver address")
	}
}

func TestExecutorCheckBlockValidRejectsGarbage(t *testing.T) {
	e := NewExecutor()
	if _, err := e.CheckBlockValid(pbft.Hash{}, []byte("not rlp at all")); err == nil {
		t.Fatal("expected CheckBlockValid to reject undecodable input")
	}
}
