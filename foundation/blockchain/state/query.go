package state

import (
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/mempool"
	"github.com/ardanlabs/ledger/foundation/blockchain/peer"
)

// QueryChain returns a copy of the local chain.
func (s *State) QueryChain() (database.Chain, error) {
	return s.db.Blocks()
}

// QueryLatestBlock returns the latest block in the chain.
func (s *State) QueryLatestBlock() (database.Block, error) {
	return s.db.LatestBlock()
}

// QueryBlock returns the block at the specified index.
func (s *State) QueryBlock(index uint64) (database.Block, bool) {
	return s.db.BlockAt(index)
}

// QueryMempoolLength returns the number of raw pending transactions and
// the number of pending blocks waiting to be mined.
func (s *State) QueryMempoolLength() (trans int, blocks int) {
	return s.mempool.Count()
}

// QueryMempool returns a copy of the raw pending transactions and the
// pending blocks in the order they will be mined.
func (s *State) QueryMempool() ([]database.Tx, []mempool.PendingBlock) {
	return s.mempool.Copy()
}

// QueryStatus returns the status of this node.
func (s *State) QueryStatus() peer.PeerStatus {
	trans, blocks := s.mempool.Count()

	ps := peer.PeerStatus{
		Miner:         s.role == RoleMiner,
		MiningStatus:  s.QueryMiningStatus().String(),
		Height:        s.db.Height(),
		PendingTrans:  trans,
		PendingBlocks: blocks,
		KnownPeers:    s.knownPeers.Hosts(),
	}

	if latest, err := s.db.LatestBlock(); err == nil {
		ps.LatestBlockHash = latest.Hash
		ps.LatestBlockNumber = latest.Index
	}

	return ps
}

// HasPendingWork reports if pending blocks or leftover transactions are
// waiting to be mined.
func (s *State) HasPendingWork() bool {
	return s.mempool.HasWork()
}
