package state

import (
	"context"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/peer"
)

// NetSendBlockToPeers takes the new mined block and sends it to all known
// peers. Delivery is best effort.
func (s *State) NetSendBlockToPeers(ctx context.Context, block database.Block) {
	s.evHandler("state: NetSendBlockToPeers: started: blk[%d]", block.Index)
	defer s.evHandler("state: NetSendBlockToPeers: completed")

	if s.gateway == nil {
		return
	}

	s.gateway.BroadcastBlock(ctx, block)
}

// NetSendTxToPeers shares a new transaction with the known peers. Delivery
// is best effort.
func (s *State) NetSendTxToPeers(ctx context.Context, tx database.Tx) {
	s.evHandler("state: NetSendTxToPeers: started")
	defer s.evHandler("state: NetSendTxToPeers: completed")

	if s.gateway == nil {
		return
	}

	s.gateway.BroadcastTransaction(ctx, tx)
}

// NetRequestPeerList asks the peer for the peers it knows about and adds any
// new ones to this node's list.
func (s *State) NetRequestPeerList(ctx context.Context, pr peer.Peer) error {
	s.evHandler("state: NetRequestPeerList: started: %s", pr)
	defer s.evHandler("state: NetRequestPeerList: completed: %s", pr)

	if s.gateway == nil {
		return nil
	}

	peers, err := s.gateway.FetchPeers(ctx, pr)
	if err != nil {
		return err
	}

	for _, np := range peers {
		if np.Match(s.host) {
			continue
		}
		if s.knownPeers.Add(np) {
			s.evHandler("state: NetRequestPeerList: add peer-node %s", np)
		}
	}

	return nil
}
