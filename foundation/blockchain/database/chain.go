package database

import (
	"context"
	"errors"

	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
)

// Chain represents an ordered sequence of blocks where index 0 is genesis.
type Chain []Block

// Genesis mines a new chain of length one. The genesis block references the
// zero hash and carries no transactions. Since the block hash doesn't cover
// the timestamp, every node mining genesis at the same difficulty produces
// the same genesis hash.
func Genesis(difficulty uint) (Chain, error) {
	block, err := POW(context.Background(), POWArgs{
		Index:      0,
		PrevHash:   signature.ZeroHash,
		Difficulty: difficulty,
	})
	if err != nil {
		return nil, err
	}

	return Chain{block}, nil
}

// Latest returns the last block in the chain.
func (c Chain) Latest() (Block, bool) {
	if len(c) == 0 {
		return Block{}, false
	}
	return c[len(c)-1], true
}

// Append validates the block against the end of the chain and returns the
// extended chain. The receiver is never modified.
func (c Chain) Append(block Block, difficulty uint) (Chain, error) {
	latest, exists := c.Latest()
	if !exists {
		return nil, ErrChainNotInitialized
	}

	if err := block.ValidateBlock(latest, difficulty); err != nil {
		return nil, err
	}

	nc := make(Chain, len(c), len(c)+1)
	copy(nc, c)

	return append(nc, block), nil
}

// Validate performs a full audit of the chain: genesis, linkage and the
// difficulty of every block.
func (c Chain) Validate(difficulty uint) error {
	if len(c) == 0 {
		return errors.New("empty chain")
	}

	if err := c[0].ValidateGenesis(difficulty); err != nil {
		return err
	}

	for i := 1; i < len(c); i++ {
		if err := c[i].ValidateBlock(c[i-1], difficulty); err != nil {
			return err
		}
	}

	return nil
}

// Copy returns a copy of the chain that is safe to hand out.
func (c Chain) Copy() Chain {
	if c == nil {
		return nil
	}

	nc := make(Chain, len(c))
	copy(nc, c)
	return nc
}

// ToBlockData converts the chain into its wire representation.
func (c Chain) ToBlockData() []BlockData {
	data := make([]BlockData, len(c))
	for i, block := range c {
		data[i] = NewBlockData(block)
	}
	return data
}

// ToChain converts the wire representation back into a chain.
func ToChain(data []BlockData) (Chain, error) {
	chain := make(Chain, len(data))
	for i, bd := range data {
		block, err := ToBlock(bd)
		if err != nil {
			return nil, err
		}
		chain[i] = block
	}
	return chain, nil
}
