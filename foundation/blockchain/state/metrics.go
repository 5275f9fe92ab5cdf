package state

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	blocksMined = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ledger",
		Name:      "blocks_mined_total",
		Help:      "Number of blocks mined by this node.",
	})

	externalBlocks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Name:      "external_blocks_total",
		Help:      "Number of blocks received from peers by result.",
	}, []string{"result"})

	miningCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ledger",
		Name:      "mining_rounds_cancelled_total",
		Help:      "Number of mining rounds cancelled before a block was found.",
	})

	hashAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ledger",
		Name:      "hash_attempts_total",
		Help:      "Number of nonces evaluated by successful mining rounds.",
	})

	chainHeight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ledger",
		Name:      "chain_height",
		Help:      "Number of blocks in the local chain.",
	})

	pendingBlocks = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ledger",
		Name:      "pending_blocks",
		Help:      "Number of pending blocks waiting to be mined.",
	})

	pendingTrans = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ledger",
		Name:      "pending_transactions",
		Help:      "Number of transactions waiting to be batched.",
	})
)

// updatePendingMetrics records the current size of the mempool.
func (s *State) updatePendingMetrics() {
	trans, blocks := s.mempool.Count()
	pendingTrans.Set(float64(trans))
	pendingBlocks.Set(float64(blocks))
}
