package state

import (
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// SubmitTransaction accepts a transaction for mining. Only a miner accepts
// transactions. When the transaction completes a batch and the node isn't
// already mining, a mining round is signaled.
func (s *State) SubmitTransaction(tx database.Tx) error {
	if s.role != RoleMiner {
		return fmt.Errorf("submit transaction: %w", ErrRole)
	}

	if !validTx(tx) {
		return fmt.Errorf("submit transaction: %w", ErrInvalidTransaction)
	}

	batched, queued := s.mempool.Upsert(tx)
	s.updatePendingMetrics()

	s.evHandler("state: SubmitTransaction: tx[%s]: batched[%v]: queued[%d]", tx, batched, queued)

	if batched && s.Worker != nil {
		s.Worker.SignalStartMining()
	}

	return nil
}

// AddTransaction accepts a transaction from a client. A miner submits it for
// mining, any node shares it with the rest of the network.
func (s *State) AddTransaction(tx database.Tx) error {
	if !validTx(tx) {
		return fmt.Errorf("add transaction: %w", ErrInvalidTransaction)
	}

	if s.role == RoleMiner {
		if err := s.SubmitTransaction(tx); err != nil {
			return err
		}
	}

	if s.Worker != nil {
		s.Worker.SignalShareTx(tx)
	}

	return nil
}

// validTx checks the transaction carries a payload.
func validTx(tx database.Tx) bool {
	return len(tx) > 0 && string(tx) != "null"
}
