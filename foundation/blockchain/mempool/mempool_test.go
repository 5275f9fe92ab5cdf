package mempool_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/mempool"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func tx(i int) database.Tx {
	return database.Tx(fmt.Sprintf(`{"id":%d}`, i))
}

func TestBatching(t *testing.T) {
	t.Log("Given the need to batch transactions into pending blocks.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen submitting 11 transactions.", testID)
		{
			mp := mempool.New(10)

			var batches int
			for i := 1; i <= 11; i++ {
				batched, _ := mp.Upsert(tx(i))
				if batched {
					batches++
					if i != 10 {
						t.Fatalf("\t%s\tTest %d:\tShould batch on the 10th transaction, batched on %d.", failed, testID, i)
					}
				}
			}

			if batches != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould create exactly one batch, got %d.", failed, testID, batches)
			}
			t.Logf("\t%s\tTest %d:\tShould create exactly one batch.", success, testID)

			trans, blocks := mp.Copy()
			if len(blocks) != 1 || len(blocks[0].Trans) != 10 {
				t.Fatalf("\t%s\tTest %d:\tShould hold one pending block of 10.", failed, testID)
			}
			for i, tx := range blocks[0].Trans {
				if exp := fmt.Sprintf(`{"id":%d}`, i+1); tx.String() != exp {
					t.Fatalf("\t%s\tTest %d:\tShould keep submission order, got %s, exp %s.", failed, testID, tx, exp)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould hold the first 10 in order.", success, testID)

			if len(trans) != 1 || trans[0].String() != `{"id":11}` {
				t.Fatalf("\t%s\tTest %d:\tShould leave the 11th pending, got %v.", failed, testID, trans)
			}
			t.Logf("\t%s\tTest %d:\tShould leave the 11th pending.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen asking for work with only leftovers pending.", testID)
		{
			mp := mempool.New(10)
			mp.Upsert(tx(1))
			mp.Upsert(tx(2))

			work, ok := mp.NextWork()
			if !ok || len(work.Trans) != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould batch the leftovers.", failed, testID)
			}

			trans, blocks := mp.Count()
			if trans != 0 || blocks != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould move the leftovers to the queue, got %d/%d.", failed, testID, trans, blocks)
			}
			t.Logf("\t%s\tTest %d:\tShould move the leftovers to the head of the queue.", success, testID)

			if !mp.Remove(work.ID) || mp.HasWork() {
				t.Fatalf("\t%s\tTest %d:\tShould be able to remove the mined work.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to remove the mined work.", success, testID)
		}
	}
}

func TestRemoveHead(t *testing.T) {
	mp := mempool.New(2)
	for i := 0; i < 4; i++ {
		mp.Upsert(tx(i))
	}

	head, _ := mp.NextWork()

	if _, ok := mp.RemoveHead(); !ok {
		t.Fatalf("\t%s\tShould remove the head.", failed)
	}

	if mp.Remove(head.ID) {
		t.Fatalf("\t%s\tShould not remove a block that is no longer the head.", failed)
	}
	t.Logf("\t%s\tShould only remove the head by id.", success)

	mp.RemoveHead()

	before, _ := mp.Count()
	for i := 0; i < 3; i++ {
		if _, ok := mp.RemoveHead(); ok {
			t.Fatalf("\t%s\tShould report nothing removed from an empty queue.", failed)
		}
	}
	after, _ := mp.Count()
	if before != after {
		t.Fatalf("\t%s\tShould leave the queue unchanged.", failed)
	}
	t.Logf("\t%s\tShould treat removing from an empty queue as a no-op.", success)
}

func TestConcurrentUpsert(t *testing.T) {
	const goroutines = 8
	const perG = 125

	mp := mempool.New(10)

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perG; i++ {
				mp.Upsert(tx(g*perG + i))
			}
		}(g)
	}
	wg.Wait()

	trans, blocks := mp.Copy()

	total := len(trans)
	seen := make(map[string]bool)
	for _, b := range blocks {
		if len(b.Trans) != 10 {
			t.Fatalf("\t%s\tShould only hold full batches, got %d.", failed, len(b.Trans))
		}
		for _, tx := range b.Trans {
			seen[tx.String()] = true
		}
		total += len(b.Trans)
	}
	for _, tx := range trans {
		seen[tx.String()] = true
	}

	if total != goroutines*perG || len(seen) != goroutines*perG {
		t.Fatalf("\t%s\tShould not lose or duplicate transactions, got %d unique of %d.", failed, len(seen), total)
	}
	t.Logf("\t%s\tShould not lose or duplicate transactions.", success)
}
