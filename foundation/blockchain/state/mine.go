package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/mempool"
)

// MineNewBlock attempts to create a new block with a proper hash that can become
// the next block in the chain. The pending block at the head of the queue is
// mined. Only one round can be in flight and it is cancelled when a block for
// the same position arrives from a peer.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	s.evHandler("state: MineNewBlock: MINING: check mempool")

	work, latest, ctx, err := s.startMiningRound(ctx)
	if err != nil {
		return database.Block{}, err
	}

	s.evHandler("state: MineNewBlock: MINING: perform POW: work[%d]: numTrans[%d]", work.ID, len(work.Trans))

	// Attempt to create a new block by solving the POW puzzle. This can be cancelled.
	block, err := s.runPOW(ctx, database.POWArgs{
		Index:      latest.Index + 1,
		PrevHash:   latest.Hash,
		Trans:      work.Trans,
		Difficulty: s.db.Difficulty(),
		EvHandler:  s.evHandler,
	})

	s.evHandler("state: MineNewBlock: MINING: validate and update database")

	return s.finishMiningRound(ctx, work, block, err)
}

// startMiningRound registers the new mining round. Checking for an active
// round and registering the new one happen under the same lock so two
// rounds can never be in flight.
func (s *State) startMiningRound(parent context.Context) (mempool.PendingBlock, database.Block, context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.role != RoleMiner {
		return mempool.PendingBlock{}, database.Block{}, nil, fmt.Errorf("mine: %w", ErrRole)
	}

	if s.mining.active {
		return mempool.PendingBlock{}, database.Block{}, nil, ErrMiningActive
	}

	latest, err := s.db.LatestBlock()
	if err != nil {
		return mempool.PendingBlock{}, database.Block{}, nil, err
	}

	work, exists := s.mempool.NextWork()
	if !exists {
		return mempool.PendingBlock{}, database.Block{}, nil, ErrNoTransactions
	}
	s.updatePendingMetrics()

	ctx, cancel := context.WithCancel(parent)
	s.mining = mining{
		active: true,
		cancel: cancel,
		workID: work.ID,
	}

	return work, latest, ctx, nil
}

// runPOW executes the POW function. A panic is returned as an error so the
// round is always finished.
func (s *State) runPOW(ctx context.Context, args database.POWArgs) (block database.Block, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPOWPanic, r)
		}
	}()

	return s.pow(ctx, args)
}

// finishMiningRound takes the result of the POW and, if the round wasn't
// superseded, appends the block and removes the pending block it consumed.
func (s *State) finishMiningRound(ctx context.Context, work mempool.PendingBlock, block database.Block, powErr error) (database.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The round's context must be read before its cancel func runs.
	ctxErr := ctx.Err()
	superseded := s.mining.superseded
	s.mining.cancel()
	s.mining = mining{}

	switch {
	case superseded:
		miningCancelled.Inc()
		s.evHandler("state: MineNewBlock: MINING: SUPERSEDED: work[%d]", work.ID)
		return database.Block{}, context.Canceled

	case powErr != nil:
		if errors.Is(powErr, context.Canceled) {
			miningCancelled.Inc()
		}
		return database.Block{}, powErr

	case ctxErr != nil:
		miningCancelled.Inc()
		return database.Block{}, ctxErr
	}

	if err := s.db.Append(block); err != nil {
		return database.Block{}, err
	}

	s.mempool.Remove(work.ID)

	blocksMined.Inc()
	hashAttempts.Add(float64(block.Nonce + 1))
	chainHeight.Set(float64(s.db.Height()))
	s.updatePendingMetrics()

	s.blockEvent("mined", block)

	return block, nil
}

// QueryMiningStatus returns where the node is in the mining state machine.
func (s *State) QueryMiningStatus() MiningStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case !s.mining.active:
		return MiningIdle
	case s.mining.superseded:
		return MiningSuperseded
	}
	return MiningActive
}
