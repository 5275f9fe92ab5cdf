package consensus

import (
	"math/big"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
)

// firstResponderSelect adopts the chain of the first candidate. No length,
// work or validity comparison is performed. This is the documented policy
// of the network and is known to trust whichever peer answers first.
func firstResponderSelect(candidates []Candidate, difficulty uint) (database.Chain, error) {
	chain := candidates[0].Chain
	if len(chain) == 0 {
		return nil, ErrNoValidChain
	}

	return chain.Copy(), nil
}

// cumulativeWorkSelect audits every candidate and adopts the valid chain
// with the greatest cumulative work. Ties go to the longer chain, then to
// the earlier candidate.
func cumulativeWorkSelect(candidates []Candidate, difficulty uint) (database.Chain, error) {
	var best database.Chain
	var bestWork *big.Int

	for _, c := range candidates {
		if err := c.Chain.Validate(difficulty); err != nil {
			continue
		}

		work := ChainWork(c.Chain)

		switch {
		case bestWork == nil:
		case work.Cmp(bestWork) > 0:
		case work.Cmp(bestWork) == 0 && len(c.Chain) > len(best):
		default:
			continue
		}

		best = c.Chain
		bestWork = work
	}

	if best == nil {
		return nil, ErrNoValidChain
	}

	return best.Copy(), nil
}

// ChainWork returns the work demonstrated by the chain. Each block
// contributes 2^n where n is the number of leading zero bits in its hash.
func ChainWork(chain database.Chain) *big.Int {
	total := new(big.Int)
	for _, block := range chain {
		bits := signature.LeadingZeroBits(block.Hash)
		total.Add(total, new(big.Int).Lsh(big.NewInt(1), bits))
	}
	return total
}
