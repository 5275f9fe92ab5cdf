package state

import (
	"encoding/json"
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// ProcessFoundBlock takes a block found by a peer, validates it and if that
// passes, adds the block to the local chain. A miner cancels the round in
// flight and drops the pending block the peer's block superseded. A block
// for a position already in the chain is a duplicate notification and is
// ignored.
func (s *State) ProcessFoundBlock(block database.Block) error {
	s.evHandler("state: ProcessFoundBlock: started: prevBlk[%s]: newBlk[%s]: numTrans[%d]", block.PrevHash, block.Hash, len(block.Trans))
	defer s.evHandler("state: ProcessFoundBlock: completed: newBlk[%s]", block.Hash)

	restart, err := s.acceptFoundBlock(block)
	if err != nil {
		return err
	}

	if restart && s.Worker != nil {
		s.evHandler("state: ProcessFoundBlock: signal mining to restart")
		s.Worker.SignalStartMining()
	}

	return nil
}

// acceptFoundBlock performs the state changes for a found block under the
// state lock. It reports if the node has more work to mine, leftover
// transactions included.
func (s *State) acceptFoundBlock(block database.Block) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	latest, err := s.db.LatestBlock()
	if err != nil {
		return false, err
	}

	if block.Index <= latest.Index {
		externalBlocks.WithLabelValues("stale").Inc()
		s.evHandler("state: ProcessFoundBlock: ignore duplicate: blk[%d]: latest[%d]", block.Index, latest.Index)
		return false, nil
	}

	if err := s.db.Append(block); err != nil {
		externalBlocks.WithLabelValues("rejected").Inc()
		return false, err
	}

	externalBlocks.WithLabelValues("accepted").Inc()
	chainHeight.Set(float64(s.db.Height()))
	s.blockEvent("found", block)

	if s.role != RoleMiner {
		return false, nil
	}

	if s.mining.active && !s.mining.superseded {
		s.evHandler("state: ProcessFoundBlock: MINING: CANCEL: work[%d]", s.mining.workID)
		s.mining.superseded = true
		s.mining.cancel()
	}

	if head, removed := s.mempool.RemoveHead(); removed {
		s.evHandler("state: ProcessFoundBlock: removed pending block: work[%d]", head.ID)
	}
	s.updatePendingMetrics()

	return s.mempool.HasWork(), nil
}

// blockEvent provides a specific event about a new block in the chain for
// application specific support.
func (s *State) blockEvent(kind string, block database.Block) {
	blockJSON, err := json.Marshal(database.NewBlockData(block))
	if err != nil {
		blockJSON = []byte(fmt.Sprintf("%q", err.Error()))
	}

	s.evHandler(`viewer: block: {"kind":%q,"block":%s}`, kind, string(blockJSON))
}
