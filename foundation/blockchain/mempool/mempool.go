// Package mempool maintains the queue of pending work for the blockchain:
// raw transactions waiting to be batched and the FIFO of pending blocks
// waiting to be mined.
package mempool

import (
	"sync"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// PendingBlock represents a batch of transactions assembled but not yet
// mined. Once handed to the POW engine its transactions are never modified.
type PendingBlock struct {
	ID    uint64        `json:"id"`
	Trans []database.Tx `json:"trans"`
}

// Mempool represents the pending work of a node. All batching and dequeuing
// happens under a single lock so a batch can't be double counted and no
// transaction can be lost to a concurrent submission.
type Mempool struct {
	mu            sync.Mutex
	transPerBlock int
	pending       []database.Tx
	blocks        []PendingBlock
	nextID        uint64
}

// New constructs a mempool that batches transPerBlock transactions into
// each pending block.
func New(transPerBlock int) *Mempool {
	if transPerBlock <= 0 {
		transPerBlock = 1
	}

	return &Mempool{
		transPerBlock: transPerBlock,
	}
}

// Upsert adds a transaction to the pending list. When transPerBlock
// transactions are pending, exactly that many are moved into a new pending
// block at the back of the queue. The number of queued pending blocks is
// returned along with whether a batch was created.
func (mp *Mempool) Upsert(tx database.Tx) (batched bool, queued int) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pending = append(mp.pending, tx)

	if len(mp.pending) >= mp.transPerBlock {
		mp.enqueue(mp.transPerBlock)
		batched = true
	}

	return batched, len(mp.blocks)
}

// NextWork returns the pending block at the head of the queue. When no block
// is queued but raw transactions are pending, all of them are moved into a new
// pending block at the head of the queue so they can be mined.
func (mp *Mempool) NextWork() (PendingBlock, bool) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if len(mp.blocks) == 0 {
		if len(mp.pending) == 0 {
			return PendingBlock{}, false
		}
		mp.enqueue(len(mp.pending))
	}

	return mp.blocks[0], true
}

// Remove removes the pending block at the head of the queue if it has the
// specified id. It reports false if the head is a different block or the
// queue is empty.
func (mp *Mempool) Remove(id uint64) bool {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if len(mp.blocks) == 0 || mp.blocks[0].ID != id {
		return false
	}

	mp.blocks = mp.blocks[1:]
	return true
}

// RemoveHead removes the pending block at the head of the queue. Removing from
// an empty queue is a no-op since duplicate block notifications are expected.
func (mp *Mempool) RemoveHead() (PendingBlock, bool) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if len(mp.blocks) == 0 {
		return PendingBlock{}, false
	}

	head := mp.blocks[0]
	mp.blocks = mp.blocks[1:]

	return head, true
}

// HasWork reports if there is anything left to mine.
func (mp *Mempool) HasWork() bool {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	return len(mp.blocks) > 0 || len(mp.pending) > 0
}

// Count returns the number of raw pending transactions and the number of
// queued pending blocks.
func (mp *Mempool) Count() (trans int, blocks int) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	return len(mp.pending), len(mp.blocks)
}

// Copy returns a copy of the raw pending transactions and the pending blocks.
func (mp *Mempool) Copy() ([]database.Tx, []PendingBlock) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	trans := make([]database.Tx, len(mp.pending))
	copy(trans, mp.pending)

	blocks := make([]PendingBlock, len(mp.blocks))
	copy(blocks, mp.blocks)

	return trans, blocks
}

// =============================================================================

// enqueue moves the first n pending transactions into a new pending block.
// The caller must hold the lock.
func (mp *Mempool) enqueue(n int) {
	trans := make([]database.Tx, n)
	copy(trans, mp.pending[:n])

	rest := make([]database.Tx, len(mp.pending)-n)
	copy(rest, mp.pending[n:])
	mp.pending = rest

	mp.nextID++
	mp.blocks = append(mp.blocks, PendingBlock{ID: mp.nextID, Trans: trans})
}
