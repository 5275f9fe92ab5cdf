package worker

import (
	"errors"

	"github.com/ardanlabs/ledger/foundation/blockchain/network"
)

// peerOperations handles finding new peers.
func (w *Worker) peerOperations() {
	w.evHandler("worker: peerOperations: G started")
	defer w.evHandler("worker: peerOperations: G completed")

	for {
		select {
		case <-w.peerTicker.C:
			if !w.isShutdown() {
				w.runPeersOperation()
			}
		case <-w.shut:
			w.evHandler("worker: peerOperations: received shut signal")
			return
		}
	}
}

// runPeersOperation updates the peer list by asking every known peer for
// the peers it knows about. A peer that can't be reached is dropped from
// the list, it registers again with /connect when it comes back.
func (w *Worker) runPeersOperation() {
	w.evHandler("worker: runPeersOperation: started")
	defer w.evHandler("worker: runPeersOperation: completed")

	for _, peer := range w.state.RetrieveKnownPeers() {
		if err := w.state.NetRequestPeerList(w.ctx, peer); err != nil {
			w.evHandler("worker: runPeersOperation: requestPeerList: %s: WARNING: %s", peer.Host, err)
			if errors.Is(err, network.ErrPeerUnreachable) {
				w.state.RemoveKnownPeer(peer)
			}
		}
	}
}
