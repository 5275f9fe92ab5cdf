// Package worker implements mining, peer updates, and block and transaction
// sharing for the blockchain.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
)

// peerUpdateInterval represents the interval of finding new peer nodes.
const peerUpdateInterval = time.Minute

// flushInterval represents the interval of checking for leftover transactions
// that never filled a pending block.
const flushInterval = 30 * time.Second

// =============================================================================

// Worker manages the POW workflows for the blockchain.
type Worker struct {
	state       *state.State
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	peerTicker  *time.Ticker
	flushTicker *time.Ticker
	shut        chan struct{}
	startMining chan bool
	txSharing   chan database.Tx
	blkSharing  chan database.Block
	evHandler   state.EventHandler
}

// Run creates a worker, registers the worker with the state package, joins
// the network, and starts up all the background processes.
func Run(st *state.State, evHandler state.EventHandler) error {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	w := Worker{
		state:       st,
		ctx:         ctx,
		cancel:      cancel,
		peerTicker:  time.NewTicker(peerUpdateInterval),
		flushTicker: time.NewTicker(flushInterval),
		shut:        make(chan struct{}),
		startMining: make(chan bool, 1),
		txSharing:   make(chan database.Tx, maxTxShareRequests),
		blkSharing:  make(chan database.Block, maxBlockShareRequests),
		evHandler:   ev,
	}

	// Register this worker with the state package.
	st.Worker = &w

	// Update this node before starting any support G's.
	if err := w.state.Sync(ctx); err != nil {
		w.peerTicker.Stop()
		w.flushTicker.Stop()
		cancel()
		return err
	}

	// Load the set of operations we need to run.
	operations := []func(){
		w.peerOperations,
		w.miningOperations,
		w.flushOperations,
		w.shareTxOperations,
		w.shareBlockOperations,
	}

	// Set waitgroup to match the number of G's we need for the set
	// of operations we have.
	g := len(operations)
	w.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	// Start all the operational G's.
	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	// Wait for the G's to report they are running.
	for i := 0; i < g; i++ {
		<-hasStarted
	}

	// Transactions may have been queued while joining.
	if w.state.HasPendingWork() {
		w.SignalStartMining()
	}

	return nil
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates the goroutines performing work.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.evHandler("worker: shutdown: stop tickers")
	w.peerTicker.Stop()
	w.flushTicker.Stop()

	w.evHandler("worker: shutdown: cancel mining and network calls")
	w.cancel()

	w.evHandler("worker: shutdown: terminate goroutines")
	close(w.shut)
	w.wg.Wait()
}

// SignalStartMining starts a mining operation. If there is already a signal
// pending in the channel, just return since a mining operation will start.
func (w *Worker) SignalStartMining() {
	if w.state.RetrieveRole() != state.RoleMiner {
		w.evHandler("worker: SignalStartMining: node is not a miner")
		return
	}

	select {
	case w.startMining <- true:
	default:
	}
	w.evHandler("worker: SignalStartMining: mining signaled")
}

// SignalShareTx signals a share transaction operation. If
// maxTxShareRequests signals exist in the channel, we won't send these.
func (w *Worker) SignalShareTx(tx database.Tx) {
	select {
	case w.txSharing <- tx:
		w.evHandler("worker: SignalShareTx: share Tx signaled")
	default:
		w.evHandler("worker: SignalShareTx: queue full, transactions won't be shared.")
	}
}

// SignalShareBlock signals a share block operation. If
// maxBlockShareRequests signals exist in the channel, we won't send these.
func (w *Worker) SignalShareBlock(block database.Block) {
	select {
	case w.blkSharing <- block:
		w.evHandler("worker: SignalShareBlock: share block signaled: blk[%d]", block.Index)
	default:
		w.evHandler("worker: SignalShareBlock: queue full, block won't be shared.")
	}
}

// =============================================================================

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
