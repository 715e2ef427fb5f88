package pbft

import (
	"math/big"
	"testing"
	"time"

	types "github.com/aurumchain/go/src/core/transaction"
	"github.com/aurumchain/go/src/network"
)

// fakeExecutor re-executes a candidate by simply decoding it, standing
// in for state.Executor without pulling in the state package (which
// itself imports pbft).
type fakeExecutor struct{}

func (fakeExecutor) CheckBlockValid(hash Hash, raw []byte) (*types.Block, error) {
	return DecodeSealedBlock(raw)
}

type fakeChainStore struct {
	number Height
	params ChainParams
}

func (f *fakeChainStore) GetBlock(Hash) ([]byte, bool)        { return nil, false }
func (f *fakeChainStore) AddBlockCache(*types.Block) error    { return nil }
func (f *fakeChainStore) Number() Height                      { return f.number }
func (f *fakeChainStore) ChainParams() ChainParams             { return f.params }

// fakeHost is a PeerHost with no reachable peers, sufficient for a
// single-replica fast-path test where Broadcast never has anyone to
// send to.
type fakeHost struct{}

func (fakeHost) ForEachPeer(f func(nodeID string, idx Idx)) {}
func (fakeHost) IsConnected(nodeID string) bool              { return false }
func (fakeHost) Send(nodeID string, kind Kind, payload []byte) error { return nil }

// newSingleReplica builds a one-miner roster wired end to end, the
// degenerate n=1, f=0, quorum=1 case where the leader's own SIGN and
// COMMIT already satisfy quorum (GenerateCommit's fast path, §4.5.1).
func newSingleReplica(t *testing.T) (*Replica, *Signer, []byte, *types.BlockHeader) {
	t.Helper()

	signer, err := GenerateSigner()
	if err != nil {
		t.Fatalf("GenerateSigner: %v", err)
	}
	pk, err := signer.PublicKey()
	if err != nil {
		t.Fatalf("PublicKey: %v", err)
	}

	node := network.NewNodeFromKey("n1:30303", "127.0.0.1", "30303", true, pk)
	node.Role = network.RoleMiner
	node.Status = network.NodeStatusActive

	nm := network.NewNodeManager()
	nm.AddNode(node)

	backup, err := OpenBackup(t.TempDir())
	if err != nil {
		t.Fatalf("OpenBackup: %v", err)
	}
	gossiper := NewGossiper(nm, fakeHost{}, nil)
	chain := &fakeChainStore{params: ChainParams{ViewTimeoutMS: 3000, KMaxChangeCycle: 8, KCollectInterval: 30}}

	replica := NewReplica(node.ID, signer, fakeExecutor{}, chain, nm, network.NewRosterProvider(nm), gossiper, backup, NewStaticConfigProvider(DefaultConfig()), nil)

	genesis := types.NewBlockHeader(0, nil, nil, nil, big.NewInt(0), big.NewInt(0), nil, nil)
	genesisBlock := types.NewBlock(genesis, types.NewBlockBody(nil, nil))
	genesisBlock.Finalize()

	if err := replica.InitEnv(genesis); err != nil {
		t.Fatalf("InitEnv: %v", err)
	}
	return replica, signer, pk, genesis
}

func TestSingleReplicaFastPathSealsBlock(t *testing.T) {
	replica, _, pk, genesis := newSingleReplica(t)

	if !replica.ShouldSeal() {
		t.Fatal("a lone miner at view 0 must be its own leader and be allowed to seal")
	}

	header := types.NewBlockHeader(1, genesis.Hash, nil, nil, big.NewInt(0), big.NewInt(0), nil, pk)
	header.NodeList = [][]byte{pk}
	block := types.NewBlock(header, types.NewBlockBody(nil, nil))
	block.Finalize()

	blockBytes, err := EncodeSealedBlock(block)
	if err != nil {
		t.Fatalf("EncodeSealedBlock: %v", err)
	}

	sealedCh := make(chan []byte, 1)
	replica.OnSealGenerated(func(raw []byte, isLocal bool) {
		if !isLocal {
			t.Error("the lone proposer's own seal must report isLocal=true")
		}
		sealedCh <- raw
	})

	view, err := replica.GenerateSeal(header, blockBytes)
	if err != nil {
		t.Fatalf("GenerateSeal: %v", err)
	}
	if err := replica.GenerateCommit(header, blockBytes, view); err != nil {
		t.Fatalf("GenerateCommit: %v", err)
	}

	select {
	case raw := <-sealedCh:
		sealed, err := DecodeSealedBlock(raw)
		if err != nil {
			t.Fatalf("DecodeSealedBlock: %v", err)
		}
		if len(sealed.Seal) != 1 || sealed.Seal[0].Idx != 0 {
			t.Fatalf("expected a single seal entry from miner 0, got %+v", sealed.Seal)
		}
		if !replica.CheckBlockSign(header, []IdxSig{{Idx: Idx(sealed.Seal[0].Idx), Sig: sealed.Seal[0].Sig}}) {
			t.Fatal("CheckBlockSign rejected the quorum this replica itself just produced")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for onSealGenerated callback")
	}
}

func TestCheckBlockSignGenesisBypass(t *testing.T) {
	replica, _, _, _ := newSingleReplica(t)
	genesisHeader := &types.BlockHeader{Height: 0}
	if !replica.CheckBlockSign(genesisHeader, nil) {
		t.Fatal("height-0 header must always pass CheckBlockSign")
	}
}

func TestCheckBlockSignRejectsShortSigList(t *testing.T) {
	replica, _, pk, genesis := newSingleReplica(t)

	header := types.NewBlockHeader(1, genesis.Hash, nil, nil, big.NewInt(0), big.NewInt(0), nil, pk)
	header.NodeList = [][]byte{pk}
	block := types.NewBlock(header, types.NewBlockBody(nil, nil))
	block.Finalize()

	if replica.CheckBlockSign(header, nil) {
		t.Fatal("CheckBlockSign must reject a block with no signatures at all")
	}
}

func TestCheckBlockSignRejectsMismatchedNodeList(t *testing.T) {
	replica, _, pk, genesis := newSingleReplica(t)

	header := types.NewBlockHeader(1, genesis.Hash, nil, nil, big.NewInt(0), big.NewInt(0), nil, pk)
	header.NodeList = [][]byte{[]byte("someone-else-entirely")}
	block := types.NewBlock(header, types.NewBlockBody(nil, nil))
	block.Finalize()

	if replica.CheckBlockSign(header, []IdxSig{{Idx: 0, Sig: Sig{1}}}) {
		t.Fatal("CheckBlockSign must reject a header whose NodeList does not match the prior roster")
	}
}
