// Package consensus provides the different algorithms a joining node can
// use to pick the canonical chain from the chains reported by its peers.
package consensus

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/peer"
)

// ErrNoValidChain is returned when none of the candidate chains can be used.
var ErrNoValidChain = errors.New("no valid candidate chain")

// ErrUnknownStrategy is returned when the strategy name is not registered.
var ErrUnknownStrategy = errors.New("unknown strategy")

// List of different select strategies.
const (
	StrategyFirstResponder = "FirstResponder"
	StrategyCumulativeWork = "CumulativeWork"
)

// Map of different select strategies with functions.
var strategies = map[string]Func{
	StrategyFirstResponder: firstResponderSelect,
	StrategyCumulativeWork: cumulativeWorkSelect,
}

// Candidate is a chain reported by a peer at join time.
type Candidate struct {
	Peer  peer.Peer
	Chain database.Chain
}

// Func defines a function that picks the canonical chain from a non-empty
// set of candidates. Candidates are in the order peers responded.
type Func func(candidates []Candidate, difficulty uint) (database.Chain, error)

// Retrieve returns the specified select strategy function.
func Retrieve(strategy string) (Func, error) {
	fn, exists := strategies[strategy]
	if !exists {
		return nil, fmt.Errorf("strategy %q: %w", strategy, ErrUnknownStrategy)
	}
	return fn, nil
}

// Select chooses the chain a joining node adopts. With no candidates this
// node is the first in the network and a brand new genesis chain is created.
func Select(fn Func, candidates []Candidate, difficulty uint) (database.Chain, error) {
	if len(candidates) == 0 {
		return database.Genesis(difficulty)
	}

	return fn(candidates, difficulty)
}
