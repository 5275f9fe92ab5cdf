package state_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/consensus"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/peer"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/stretchr/testify/require"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// fakeWorker records the signals sent by the state package.
type fakeWorker struct {
	mu          sync.Mutex
	startMining int
	sharedTx    []database.Tx
}

func (fw *fakeWorker) Shutdown() {}

func (fw *fakeWorker) SignalStartMining() {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	fw.startMining++
}

func (fw *fakeWorker) SignalShareTx(tx database.Tx) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	fw.sharedTx = append(fw.sharedTx, tx)
}

func (fw *fakeWorker) SignalShareBlock(block database.Block) {}

func (fw *fakeWorker) starts() int {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.startMining
}

// fakeGateway serves canned chains for a set of peers.
type fakeGateway struct {
	peers  []peer.Peer
	chains map[string]database.Chain
}

func (fg *fakeGateway) ListPeers(ctx context.Context) []peer.Peer {
	return fg.peers
}

func (fg *fakeGateway) FetchPeers(ctx context.Context, pr peer.Peer) ([]peer.Peer, error) {
	return fg.peers, nil
}

func (fg *fakeGateway) FetchChain(ctx context.Context, pr peer.Peer) (database.Chain, error) {
	chain, exists := fg.chains[pr.Host]
	if !exists {
		return nil, fmt.Errorf("%s: unreachable", pr.Host)
	}
	return chain, nil
}

func (fg *fakeGateway) BroadcastBlock(ctx context.Context, block database.Block) {}

func (fg *fakeGateway) BroadcastTransaction(ctx context.Context, tx database.Tx) {}

// =============================================================================

func newState(t *testing.T, role state.Role, pow state.POWFunc) (*state.State, *fakeWorker) {
	t.Helper()

	st, err := state.New(state.Config{
		Role:    role,
		Genesis: genesis.Genesis{Difficulty: 0, TransPerBlock: 10},
		Host:    "localhost:9080",
		POW:     pow,
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the state: %s", failed, err)
	}

	fw := fakeWorker{}
	st.Worker = &fw

	if err := st.Join(nil); err != nil {
		t.Fatalf("\t%s\tShould be able to join with no peers: %s", failed, err)
	}

	return st, &fw
}

func txs(t *testing.T, n int) []database.Tx {
	t.Helper()

	out := make([]database.Tx, n)
	for i := range out {
		tx, err := database.NewTx([]byte(fmt.Sprintf(`{"id":%d}`, i)))
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct tx: %s", failed, err)
		}
		out[i] = tx
	}
	return out
}

func nextBlock(t *testing.T, prev database.Block, trans []database.Tx) database.Block {
	t.Helper()

	block, err := database.POW(context.Background(), database.POWArgs{
		Index:    prev.Index + 1,
		PrevHash: prev.Hash,
		Trans:    trans,
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to mine a block: %s", failed, err)
	}
	return block
}

// blockingPOW never solves the puzzle. It waits for cancellation and tracks
// how many searches are running at once.
type blockingPOW struct {
	active  atomic.Int32
	maxSeen atomic.Int32
	calls   atomic.Int32
}

func (bp *blockingPOW) pow(ctx context.Context, args database.POWArgs) (database.Block, error) {
	bp.calls.Add(1)
	n := bp.active.Add(1)
	defer bp.active.Add(-1)

	for {
		seen := bp.maxSeen.Load()
		if n <= seen || bp.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	<-ctx.Done()
	return database.Block{}, ctx.Err()
}

// =============================================================================

func Test_MineTenTransactions(t *testing.T) {
	t.Log("Given the need for a miner to batch and mine ten transactions.")
	{
		st, fw := newState(t, state.RoleMiner, nil)

		for _, tx := range txs(t, 10) {
			if err := st.SubmitTransaction(tx); err != nil {
				t.Fatalf("\t%s\tShould be able to submit a transaction: %s", failed, err)
			}
		}
		t.Logf("\t%s\tShould be able to submit ten transactions.", success)

		if fw.starts() != 1 {
			t.Fatalf("\t%s\tShould signal mining once, got %d.", failed, fw.starts())
		}
		t.Logf("\t%s\tShould signal mining once.", success)

		block, err := st.MineNewBlock(context.Background())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to mine the block: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to mine the block.", success)

		if block.Nonce != 0 || len(block.Trans) != 10 {
			t.Fatalf("\t%s\tShould get nonce 0 with 10 transactions, got nonce %d with %d.", failed, block.Nonce, len(block.Trans))
		}
		t.Logf("\t%s\tShould get nonce 0 with 10 transactions.", success)

		chain, err := st.QueryChain()
		if err != nil || len(chain) != 2 {
			t.Fatalf("\t%s\tShould have a chain of length 2, got %d: %v", failed, len(chain), err)
		}
		t.Logf("\t%s\tShould have a chain of length 2.", success)

		if trans, blocks := st.QueryMempoolLength(); trans != 0 || blocks != 0 {
			t.Fatalf("\t%s\tShould have an empty mempool, got %d/%d.", failed, trans, blocks)
		}
		t.Logf("\t%s\tShould have an empty mempool.", success)

		if st.QueryMiningStatus() != state.MiningIdle {
			t.Fatalf("\t%s\tShould be idle after mining, got %s.", failed, st.QueryMiningStatus())
		}
		t.Logf("\t%s\tShould be idle after mining.", success)
	}
}

func Test_FollowerSubmit(t *testing.T) {
	t.Log("Given the need for a follower to refuse transactions for mining.")
	{
		st, fw := newState(t, state.RoleFollower, nil)

		tx := txs(t, 1)[0]

		err := st.SubmitTransaction(tx)
		if !errors.Is(err, state.ErrRole) {
			t.Fatalf("\t%s\tShould get ErrRole, got %v.", failed, err)
		}
		t.Logf("\t%s\tShould get ErrRole.", success)

		if _, err := st.MineNewBlock(context.Background()); !errors.Is(err, state.ErrRole) {
			t.Fatalf("\t%s\tShould get ErrRole when mining, got %v.", failed, err)
		}
		t.Logf("\t%s\tShould get ErrRole when mining.", success)

		chain, _ := st.QueryChain()
		if len(chain) != 1 {
			t.Fatalf("\t%s\tShould leave the chain unchanged, got length %d.", failed, len(chain))
		}
		t.Logf("\t%s\tShould leave the chain unchanged.", success)

		if err := st.AddTransaction(tx); err != nil {
			t.Fatalf("\t%s\tShould accept a transaction to share: %s", failed, err)
		}
		if len(fw.sharedTx) != 1 {
			t.Fatalf("\t%s\tShould share the transaction with peers.", failed)
		}
		t.Logf("\t%s\tShould share the transaction with peers.", success)
	}
}

func Test_ElevenTransactions(t *testing.T) {
	t.Log("Given the need to batch exactly ten transactions.")
	{
		st, fw := newState(t, state.RoleMiner, nil)

		for _, tx := range txs(t, 11) {
			if err := st.SubmitTransaction(tx); err != nil {
				t.Fatalf("\t%s\tShould be able to submit a transaction: %s", failed, err)
			}
		}

		trans, blocks := st.QueryMempoolLength()
		if trans != 1 || blocks != 1 {
			t.Fatalf("\t%s\tShould have 1 pending block and 1 leftover, got %d/%d.", failed, blocks, trans)
		}
		t.Logf("\t%s\tShould have 1 pending block and 1 leftover.", success)

		if fw.starts() != 1 {
			t.Fatalf("\t%s\tShould signal exactly one mining round, got %d.", failed, fw.starts())
		}
		t.Logf("\t%s\tShould signal exactly one mining round.", success)
	}
}

func Test_SingleActiveMiner(t *testing.T) {
	t.Log("Given the need to never run two mining rounds at once.")
	{
		var bp blockingPOW
		st, _ := newState(t, state.RoleMiner, bp.pow)

		for _, tx := range txs(t, 20) {
			st.SubmitTransaction(tx)
		}

		errCh := make(chan error, 1)
		go func() {
			_, err := st.MineNewBlock(context.Background())
			errCh <- err
		}()

		require.Eventually(t, func() bool {
			return st.QueryMiningStatus() == state.MiningActive
		}, 5*time.Second, 10*time.Millisecond)
		t.Logf("\t%s\tShould enter the mining state.", success)

		if _, err := st.MineNewBlock(context.Background()); !errors.Is(err, state.ErrMiningActive) {
			t.Fatalf("\t%s\tShould refuse a second round, got %v.", failed, err)
		}
		t.Logf("\t%s\tShould refuse a second round.", success)

		genesisBlock, _ := st.QueryLatestBlock()
		external := nextBlock(t, genesisBlock, txs(t, 10))

		if err := st.ProcessFoundBlock(external); err != nil {
			t.Fatalf("\t%s\tShould accept the peer's block: %s", failed, err)
		}
		t.Logf("\t%s\tShould accept the peer's block.", success)

		select {
		case err := <-errCh:
			if !errors.Is(err, context.Canceled) {
				t.Fatalf("\t%s\tShould cancel the superseded round, got %v.", failed, err)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("\t%s\tShould cancel the superseded round in time.", failed)
		}
		t.Logf("\t%s\tShould cancel the superseded round.", success)

		if bp.maxSeen.Load() != 1 || bp.calls.Load() != 1 {
			t.Fatalf("\t%s\tShould run one search at a time, max %d calls %d.", failed, bp.maxSeen.Load(), bp.calls.Load())
		}
		t.Logf("\t%s\tShould run one search at a time.", success)

		if _, blocks := st.QueryMempoolLength(); blocks != 1 {
			t.Fatalf("\t%s\tShould drop the superseded pending block, got %d left.", failed, blocks)
		}
		t.Logf("\t%s\tShould drop the superseded pending block.", success)

		if st.QueryMiningStatus() != state.MiningIdle {
			t.Fatalf("\t%s\tShould be idle after the round ends, got %s.", failed, st.QueryMiningStatus())
		}
		t.Logf("\t%s\tShould be idle after the round ends.", success)
	}
}

func Test_DuplicateFoundBlock(t *testing.T) {
	t.Log("Given the need to ignore duplicate found block notifications.")
	{
		st, _ := newState(t, state.RoleMiner, nil)

		for _, tx := range txs(t, 30) {
			st.SubmitTransaction(tx)
		}

		genesisBlock, _ := st.QueryLatestBlock()
		external := nextBlock(t, genesisBlock, txs(t, 10))

		if err := st.ProcessFoundBlock(external); err != nil {
			t.Fatalf("\t%s\tShould accept the first notification: %s", failed, err)
		}
		t.Logf("\t%s\tShould accept the first notification.", success)

		trans, blocks := st.QueryMempoolLength()
		if blocks != 2 {
			t.Fatalf("\t%s\tShould remove the head pending block, got %d left.", failed, blocks)
		}

		if err := st.ProcessFoundBlock(external); err != nil {
			t.Fatalf("\t%s\tShould ignore the second notification: %s", failed, err)
		}
		t.Logf("\t%s\tShould ignore the second notification.", success)

		trans2, blocks2 := st.QueryMempoolLength()
		if trans2 != trans || blocks2 != blocks {
			t.Fatalf("\t%s\tShould leave the mempool unchanged, got %d/%d exp %d/%d.", failed, trans2, blocks2, trans, blocks)
		}
		t.Logf("\t%s\tShould leave the mempool unchanged.", success)

		chain, _ := st.QueryChain()
		if len(chain) != 2 {
			t.Fatalf("\t%s\tShould have a chain of length 2, got %d.", failed, len(chain))
		}
		t.Logf("\t%s\tShould have a chain of length 2.", success)
	}
}

func Test_SupersedeEmptyQueue(t *testing.T) {
	t.Log("Given the need to tolerate a found block with nothing queued.")
	{
		st, fw := newState(t, state.RoleMiner, nil)

		genesisBlock, _ := st.QueryLatestBlock()
		external := nextBlock(t, genesisBlock, txs(t, 10))

		if err := st.ProcessFoundBlock(external); err != nil {
			t.Fatalf("\t%s\tShould accept the block: %s", failed, err)
		}
		t.Logf("\t%s\tShould accept the block.", success)

		if fw.starts() != 0 {
			t.Fatalf("\t%s\tShould not signal mining with no work, got %d.", failed, fw.starts())
		}
		t.Logf("\t%s\tShould not signal mining with no work.", success)
	}
}

func Test_SupersedeLeftover(t *testing.T) {
	t.Log("Given the need to restart mining for leftover transactions after a found block.")
	{
		st, fw := newState(t, state.RoleMiner, nil)

		for _, tx := range txs(t, 11) {
			if err := st.SubmitTransaction(tx); err != nil {
				t.Fatalf("\t%s\tShould be able to submit a transaction: %s", failed, err)
			}
		}

		if fw.starts() != 1 {
			t.Fatalf("\t%s\tShould signal mining once for the batch, got %d.", failed, fw.starts())
		}
		t.Logf("\t%s\tShould signal mining once for the batch.", success)

		genesisBlock, _ := st.QueryLatestBlock()
		external := nextBlock(t, genesisBlock, txs(t, 10))

		if err := st.ProcessFoundBlock(external); err != nil {
			t.Fatalf("\t%s\tShould accept the block: %s", failed, err)
		}
		t.Logf("\t%s\tShould accept the block.", success)

		if trans, blocks := st.QueryMempoolLength(); trans != 1 || blocks != 0 {
			t.Fatalf("\t%s\tShould keep only the leftover, got %d/%d.", failed, trans, blocks)
		}
		t.Logf("\t%s\tShould keep only the leftover.", success)

		if fw.starts() != 2 {
			t.Fatalf("\t%s\tShould signal mining for the leftover, got %d.", failed, fw.starts())
		}
		t.Logf("\t%s\tShould signal mining for the leftover.", success)

		block, err := st.MineNewBlock(context.Background())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to mine the leftover: %s", failed, err)
		}
		if block.Index != 2 || len(block.Trans) != 1 {
			t.Fatalf("\t%s\tShould mine block 2 with 1 transaction, got %d with %d.", failed, block.Index, len(block.Trans))
		}
		t.Logf("\t%s\tShould mine block 2 with the leftover transaction.", success)
	}
}

func Test_LinkageError(t *testing.T) {
	t.Log("Given the need to reject blocks that don't link to the chain.")
	{
		st, _ := newState(t, state.RoleFollower, nil)

		genesisBlock, _ := st.QueryLatestBlock()
		bad := nextBlock(t, genesisBlock, txs(t, 2))
		bad.Trans = bad.Trans[:1]

		err := st.ProcessFoundBlock(bad)
		if !database.IsLinkageError(err) {
			t.Fatalf("\t%s\tShould get a LinkageError, got %v.", failed, err)
		}
		t.Logf("\t%s\tShould get a LinkageError.", success)

		chain, _ := st.QueryChain()
		if len(chain) != 1 {
			t.Fatalf("\t%s\tShould leave the chain unchanged, got length %d.", failed, len(chain))
		}
		t.Logf("\t%s\tShould leave the chain unchanged.", success)
	}
}

func Test_ChainNotInitialized(t *testing.T) {
	t.Log("Given the need to refuse chain work before joining.")
	{
		st, err := state.New(state.Config{
			Role:    state.RoleMiner,
			Genesis: genesis.Genesis{Difficulty: 0, TransPerBlock: 10},
		})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the state: %s", failed, err)
		}

		if _, err := st.QueryChain(); !errors.Is(err, database.ErrChainNotInitialized) {
			t.Fatalf("\t%s\tShould get ErrChainNotInitialized reading, got %v.", failed, err)
		}
		t.Logf("\t%s\tShould get ErrChainNotInitialized reading.", success)

		if err := st.ProcessFoundBlock(database.Block{Index: 1}); !errors.Is(err, database.ErrChainNotInitialized) {
			t.Fatalf("\t%s\tShould get ErrChainNotInitialized appending, got %v.", failed, err)
		}
		t.Logf("\t%s\tShould get ErrChainNotInitialized appending.", success)
	}
}

func Test_Sync(t *testing.T) {
	t.Log("Given the need to join a network of peers.")
	{
		short, err := database.Genesis(0)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to create genesis: %s", failed, err)
		}
		for len(short) < 3 {
			latest, _ := short.Latest()
			short = append(short, nextBlock(t, latest, txs(t, 1)))
		}

		// The long chain extends the short one so it always carries more work.
		long := short.Copy()
		for len(long) < 7 {
			latest, _ := long.Latest()
			long = append(long, nextBlock(t, latest, txs(t, 2)))
		}

		gw := fakeGateway{
			peers: []peer.Peer{peer.New("down:9080"), peer.New("a:9080"), peer.New("b:9080"), peer.New("localhost:9080")},
			chains: map[string]database.Chain{
				"a:9080": short,
				"b:9080": long,
			},
		}

		for _, strategy := range []struct {
			name   string
			height int
		}{
			{consensus.StrategyFirstResponder, 3},
			{consensus.StrategyCumulativeWork, 7},
		} {
			st, err := state.New(state.Config{
				Role:     state.RoleMiner,
				Genesis:  genesis.Genesis{Difficulty: 0, TransPerBlock: 10},
				Host:     "localhost:9080",
				Strategy: strategy.name,
				Gateway:  &gw,
			})
			if err != nil {
				t.Fatalf("\t%s\t%s:\tShould be able to construct the state: %s", failed, strategy.name, err)
			}

			if err := st.Sync(context.Background()); err != nil {
				t.Fatalf("\t%s\t%s:\tShould be able to sync: %s", failed, strategy.name, err)
			}
			t.Logf("\t%s\t%s:\tShould be able to sync skipping the unreachable peer.", success, strategy.name)

			chain, _ := st.QueryChain()
			if len(chain) != strategy.height {
				t.Fatalf("\t%s\t%s:\tShould adopt a chain of length %d, got %d.", failed, strategy.name, strategy.height, len(chain))
			}
			t.Logf("\t%s\t%s:\tShould adopt a chain of length %d.", success, strategy.name, strategy.height)
		}

		if _, err := state.New(state.Config{Strategy: "Longest"}); !errors.Is(err, consensus.ErrUnknownStrategy) {
			t.Fatalf("\t%s\tShould reject an unknown strategy, got %v.", failed, err)
		}
		t.Logf("\t%s\tShould reject an unknown strategy.", success)
	}
}
