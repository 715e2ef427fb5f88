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

package main

import (
	"flag"
	"fmt"
	"math/big"
	"time"

	types "github.com/aurumchain/go/src/core/transaction"
	logger "github.com/aurumchain/go/src/log"
	"github.com/aurumchain/go/src/network"
	"github.com/aurumchain/go/src/pbft"
	"github.com/aurumchain/go/src/state"
	"github.com/aurumchain/go/src/transport"
)

// replicaNode bundles everything one PBFT participant needs. main
// stands up three of these in a single process and dials them to each
// other over loopback WebSocket connections. main itself never proposes
// a block, so what runs is each replica's view-change timeout path.
//
// Each replica keeps its own NodeManager, so its Peer duplicate-
// suppression state (§4.3) is never shared with another replica's
// gossip layer; only the underlying *network.Node values (identity,
// public key, role) are shared, so every replica derives the same
// roster ordering.
type replicaNode struct {
	name    string
	node    *network.Node
	addr    string
	signer  *pbft.Signer
	nm      *network.NodeManager
	host    *transport.WebSocketHost
	store   *state.Storage
	replica *pbft.Replica
}

func main() {
	logger.Init()

	basePort := flag.Int("basePort", 30303, "first WebSocket port; nodes bind basePort, basePort+1, basePort+2")
	dataDir := flag.String("datadir", "./data", "backup store root, one subdirectory per node")
	flag.Parse()

	names := []string{"alice", "bob", "charlie"}
	nodes := make([]*replicaNode, len(names))

	// Every replica needs to see the same *network.Node identities (and
	// hence the same PublicKey per node) to derive an identical roster,
	// so these are created once up front and shared by reference.
	for i, name := range names {
		signer, err := pbft.GenerateSigner()
		if err != nil {
			logger.Fatalf("generate signer for %s: %v", name, err)
		}
		pk, err := signer.PublicKey()
		if err != nil {
			logger.Fatalf("serialize public key for %s: %v", name, err)
		}
		addr := fmt.Sprintf("127.0.0.1:%d", *basePort+i)
		node := network.NewNodeFromKey(addr, "127.0.0.1", fmt.Sprintf("%d", *basePort+i), false, pk)
		node.Role = network.RoleMiner
		node.Status = network.NodeStatusActive

		nodes[i] = &replicaNode{name: name, node: node, addr: addr, signer: signer}
	}

	chainParams := pbft.ChainParams{
		ViewTimeoutMS:    3000,
		OmitEmptyBlock:   false,
		KMaxChangeCycle:  8,
		KCollectInterval: 30,
	}

	for i, n := range nodes {
		nm := network.NewNodeManager()
		for j, other := range nodes {
			nm.AddNode(other.node)
			if i != j {
				if err := nm.AddPeer(other.node); err != nil {
					logger.Fatalf("%s: register peer %s: %v", n.name, other.name, err)
				}
			}
		}
		n.nm = nm

		store, err := state.NewStorage(fmt.Sprintf("%s/%s", *dataDir, n.name), chainParams)
		if err != nil {
			logger.Fatalf("open storage for %s: %v", n.name, err)
		}
		n.store = store
		backup, err := pbft.OpenBackup(fmt.Sprintf("%s/%s", *dataDir, n.name))
		if err != nil {
			logger.Fatalf("open backup store for %s: %v", n.name, err)
		}

		localNode := n.node
		n.host = transport.NewWebSocketHost(n.addr, nil, func(nodeID string, raw []byte) {
			if err := n.replica.SubmitFrame(nodeID, raw); err != nil {
				logger.Debug("pbft: dropping frame from %s: %v", nodeID, err)
			}
		})

		gossiper := pbft.NewGossiper(nm, n.host, nil)
		cfgProvider := pbft.NewStaticConfigProvider(pbft.Config{
			ViewTimeout:      3 * time.Second,
			OmitEmptyBlock:   false,
			KMaxChangeCycle:  8,
			KCollectInterval: 30 * time.Second,
			DataDir:          fmt.Sprintf("%s/%s", *dataDir, n.name),
		})

		n.replica = pbft.NewReplica(
			localNode.ID,
			n.signer,
			state.NewExecutor(),
			n.store,
			nm,
			network.NewRosterProvider(nm),
			gossiper,
			backup,
			cfgProvider,
			nil,
		)
	}

	genesisHeader := types.NewBlockHeader(0, nil, nil, nil, big.NewInt(0), big.NewInt(0), nil, nil)
	genesisBlock := types.NewBlock(genesisHeader, types.NewBlockBody(nil, nil))
	genesisBlock.Finalize()

	for _, n := range nodes {
		if err := n.replica.InitEnv(genesisHeader); err != nil {
			logger.Fatalf("init pbft engine for %s: %v", n.name, err)
		}
		name := n.name
		n.replica.OnSealGenerated(func(sealedRLP []byte, isLocal bool) {
			block, err := pbft.DecodeSealedBlock(sealedRLP)
			if err != nil {
				logger.Warn("%s: decode sealed block: %v", name, err)
				return
			}
			logger.Info("%s: sealed block height=%d local=%v", name, block.Header.Height, isLocal)
		})

		go func(n *replicaNode) {
			if err := n.host.Start(); err != nil {
				logger.Warn("websocket host for %s stopped: %v", n.name, err)
			}
		}(n)
		n.replica.Start()
	}

	time.Sleep(200 * time.Millisecond)
	for i, n := range nodes {
		for j, peer := range nodes {
			if i == j {
				continue
			}
			if err := n.host.Dial(peer.node.ID, peer.addr); err != nil {
				logger.Warn("%s: dial %s failed: %v", n.name, peer.name, err)
			}
		}
	}

	select {}
}
