package worker

import (
	"context"
	"errors"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
)

// miningOperations handles mining.
func (w *Worker) miningOperations() {
	w.evHandler("worker: miningOperations: G started")
	defer w.evHandler("worker: miningOperations: G completed")

	for {
		select {
		case <-w.startMining:
			if !w.isShutdown() {
				w.runMiningOperation()
			}
		case <-w.shut:
			w.evHandler("worker: miningOperations: received shut signal")
			return
		}
	}
}

// runMiningOperation mines the pending block at the head of the queue and
// shares the new block with the network.
func (w *Worker) runMiningOperation() {
	w.evHandler("worker: runMiningOperation: MINING: started")
	defer w.evHandler("worker: runMiningOperation: MINING: completed")

	// Nothing that happens while mining is allowed to take down the node.
	defer func() {
		if r := recover(); r != nil {
			w.evHandler("worker: runMiningOperation: MINING: PANIC: %v", r)
		}
	}()

	t := time.Now()
	block, err := w.state.MineNewBlock(w.ctx)
	duration := time.Since(t)

	w.evHandler("worker: runMiningOperation: MINING: mining duration[%v]", duration)

	// After the round, check if a new operation should be signaled again.
	// Leftover transactions count as work. Errors that would fail the same
	// way again wait for the flush ticker.
	defer func() {
		if retry(err) && w.ctx.Err() == nil && w.state.HasPendingWork() {
			trans, blocks := w.state.QueryMempoolLength()
			w.evHandler("worker: runMiningOperation: MINING: signal new mining operation: Txs[%d]: Blks[%d]", trans, blocks)
			w.SignalStartMining()
		}
	}()

	if err != nil {
		switch {
		case errors.Is(err, state.ErrNoTransactions):
			w.evHandler("worker: runMiningOperation: MINING: WARNING: no transactions in mempool")
		case errors.Is(err, state.ErrMiningActive):
			w.evHandler("worker: runMiningOperation: MINING: WARNING: round already active")
		case errors.Is(err, context.Canceled):
			w.evHandler("worker: runMiningOperation: MINING: CANCEL: complete")
		case database.IsLinkageError(err):
			w.evHandler("worker: runMiningOperation: MINING: WARNING: block lost the race: %s", err)
		default:
			w.evHandler("worker: runMiningOperation: MINING: ERROR: %s", err)
		}
		return
	}

	// WOW, we mined a block. Propose the new block to the network.
	w.SignalShareBlock(block)
}

// retry reports if the outcome of a mining round allows the next round to
// start right away.
func retry(err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, context.Canceled):
		return true
	case errors.Is(err, state.ErrPOWPanic):
		return true
	case database.IsLinkageError(err):
		return true
	}
	return false
}

// flushOperations handles mining leftover transactions that never filled
// a pending block.
func (w *Worker) flushOperations() {
	w.evHandler("worker: flushOperations: G started")
	defer w.evHandler("worker: flushOperations: G completed")

	for {
		select {
		case <-w.flushTicker.C:
			if !w.isShutdown() {
				w.runFlushOperation()
			}
		case <-w.shut:
			w.evHandler("worker: flushOperations: received shut signal")
			return
		}
	}
}

// runFlushOperation signals mining when the node is idle and transactions
// are pending. The mining round batches them into a pending block.
func (w *Worker) runFlushOperation() {
	if w.state.QueryMiningStatus() != state.MiningIdle {
		return
	}

	if trans, _ := w.state.QueryMempoolLength(); trans > 0 {
		w.evHandler("worker: runFlushOperation: leftover Txs[%d]", trans)
		w.SignalStartMining()
	}
}
