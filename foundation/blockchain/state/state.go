// Package state is the core API for the blockchain and implements all the
// business rules and processing.
package state

import (
	"context"
	"sync"

	"github.com/ardanlabs/ledger/foundation/blockchain/consensus"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/mempool"
	"github.com/ardanlabs/ledger/foundation/blockchain/peer"
)

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// POWFunc defines the function used to solve the POW puzzle for a block.
type POWFunc func(ctx context.Context, args database.POWArgs) (database.Block, error)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining, block sharing, and transaction sharing.
type Worker interface {
	Shutdown()
	SignalStartMining()
	SignalShareTx(tx database.Tx)
	SignalShareBlock(block database.Block)
}

// Gateway interface represents the behavior required from the networking
// layer to talk with the other nodes in the network.
type Gateway interface {
	ListPeers(ctx context.Context) []peer.Peer
	FetchPeers(ctx context.Context, pr peer.Peer) ([]peer.Peer, error)
	FetchChain(ctx context.Context, pr peer.Peer) (database.Chain, error)
	BroadcastBlock(ctx context.Context, block database.Block)
	BroadcastTransaction(ctx context.Context, tx database.Tx)
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	Role       Role
	Genesis    genesis.Genesis
	Host       string
	Strategy   string
	KnownPeers *peer.PeerSet
	Gateway    Gateway
	POW        POWFunc
	EvHandler  EventHandler
}

// mining tracks the one mining round a node is allowed to have in flight.
type mining struct {
	active     bool
	superseded bool
	cancel     context.CancelFunc
	workID     uint64
}

// State manages the blockchain database.
type State struct {
	role      Role
	host      string
	evHandler EventHandler
	pow       POWFunc
	selectFn  consensus.Func
	mu        sync.Mutex
	mining    mining

	knownPeers *peer.PeerSet
	genesis    genesis.Genesis
	mempool    *mempool.Mempool
	db         *database.Database
	gateway    Gateway

	Worker Worker
}

// New constructs a new blockchain for data management. The chain is not
// initialized until the node joins the network with Sync or Join.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	strategy := cfg.Strategy
	if strategy == "" {
		strategy = consensus.StrategyFirstResponder
	}

	selectFn, err := consensus.Retrieve(strategy)
	if err != nil {
		return nil, err
	}

	pow := cfg.POW
	if pow == nil {
		pow = database.POW
	}

	knownPeers := cfg.KnownPeers
	if knownPeers == nil {
		knownPeers = peer.NewPeerSet()
	}

	state := State{
		role:      cfg.Role,
		host:      cfg.Host,
		evHandler: ev,
		pow:       pow,
		selectFn:  selectFn,

		knownPeers: knownPeers,
		genesis:    cfg.Genesis,
		mempool:    mempool.New(int(cfg.Genesis.TransPerBlock)),
		db:         database.New(uint(cfg.Genesis.Difficulty), ev),
		gateway:    cfg.Gateway,
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: Shutdown: started")
	defer s.evHandler("state: Shutdown: completed")

	// Cancel any mining round in flight.
	s.mu.Lock()
	if s.mining.active {
		s.mining.cancel()
	}
	s.mu.Unlock()

	// Stop all blockchain writing activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return nil
}
