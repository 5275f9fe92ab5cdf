package state

import (
	"context"
	"errors"

	"github.com/ardanlabs/ledger/foundation/blockchain/consensus"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// Sync gathers the chain of every reachable peer and joins the network with
// them as candidates. Unreachable peers are logged and skipped.
func (s *State) Sync(ctx context.Context) error {
	s.evHandler("state: Sync: started")
	defer s.evHandler("state: Sync: completed")

	var candidates []consensus.Candidate

	if s.gateway != nil {
		for _, pr := range s.gateway.ListPeers(ctx) {
			if pr.Match(s.host) {
				continue
			}

			chain, err := s.gateway.FetchChain(ctx, pr)
			if err != nil {
				s.evHandler("state: Sync: fetchChain: %s: WARNING: %s", pr, err)
				continue
			}

			s.evHandler("state: Sync: fetchChain: %s: height[%d]", pr, len(chain))
			candidates = append(candidates, consensus.Candidate{Peer: pr, Chain: chain})
		}
	}

	return s.Join(candidates)
}

// Join selects the canonical chain from the candidates using the configured
// strategy and makes it the local chain. With no candidates, or none the
// strategy accepts, this node starts a brand new chain.
func (s *State) Join(candidates []consensus.Candidate) error {
	s.evHandler("state: Join: started: candidates[%d]", len(candidates))
	defer s.evHandler("state: Join: completed")

	difficulty := s.db.Difficulty()

	chain, err := consensus.Select(s.selectFn, candidates, difficulty)
	if err != nil {
		if !errors.Is(err, consensus.ErrNoValidChain) {
			return err
		}

		s.evHandler("state: Join: WARNING: %s: creating genesis", err)
		if chain, err = database.Genesis(difficulty); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.Replace(chain); err != nil {
		return err
	}

	chainHeight.Set(float64(len(chain)))
	latest, _ := chain.Latest()
	s.evHandler("state: Join: adopted chain: height[%d]: latest[%s]", len(chain), latest.Hash)

	return nil
}
