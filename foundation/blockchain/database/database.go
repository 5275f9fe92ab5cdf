// Package database handles all the lower level support for maintaining the
// blockchain in memory: the block format, the proof of work engine and the
// single writer store for the chain.
package database

import (
	"errors"
	"sync"
)

// Database is the single writer store for the chain. Every append and replace
// is serialized so blocks from the mining G and blocks from peers are totally
// ordered.
type Database struct {
	mu         sync.RWMutex
	difficulty uint
	chain      Chain
	evHandler  func(v string, args ...any)
}

// New constructs a database for a chain at the specified difficulty. The
// chain is not initialized until Genesis or Replace is called.
func New(difficulty uint, evHandler func(v string, args ...any)) *Database {
	ev := func(v string, args ...any) {}
	if evHandler != nil {
		ev = evHandler
	}

	return &Database{
		difficulty: difficulty,
		evHandler:  ev,
	}
}

// Difficulty returns the difficulty every block is validated against.
func (db *Database) Difficulty() uint {
	return db.difficulty
}

// Genesis creates a brand new chain holding only the genesis block and makes
// it the local chain.
func (db *Database) Genesis() (Block, error) {
	chain, err := Genesis(db.difficulty)
	if err != nil {
		return Block{}, err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	db.chain = chain
	db.evHandler("database: Genesis: created: blk[%s]", chain[0].Hash)

	return chain[0], nil
}

// Append validates the block against the latest block and extends the chain.
// A LinkageError is returned when validation fails.
func (db *Database) Append(block Block) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	chain, err := db.chain.Append(block, db.difficulty)
	if err != nil {
		return err
	}
	db.chain = chain

	db.evHandler("database: Append: blk[%d]: hash[%s]: numTrans[%d]", block.Index, block.Hash, len(block.Trans))

	return nil
}

// Replace unconditionally substitutes the local chain. It is only used when
// a chain is adopted from the network at join time.
func (db *Database) Replace(chain Chain) error {
	if len(chain) == 0 {
		return errors.New("can't replace with an empty chain")
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	db.chain = chain.Copy()
	db.evHandler("database: Replace: height[%d]", len(chain))

	return nil
}

// Blocks returns a copy of the chain.
func (db *Database) Blocks() (Chain, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if len(db.chain) == 0 {
		return nil, ErrChainNotInitialized
	}

	return db.chain.Copy(), nil
}

// LatestBlock returns the latest block.
func (db *Database) LatestBlock() (Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	latest, exists := db.chain.Latest()
	if !exists {
		return Block{}, ErrChainNotInitialized
	}

	return latest, nil
}

// Height returns the number of blocks in the chain.
func (db *Database) Height() int {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return len(db.chain)
}

// BlockAt returns the block stored at the specified index.
func (db *Database) BlockAt(index uint64) (Block, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if index >= uint64(len(db.chain)) {
		return Block{}, false
	}

	return db.chain[index], true
}
