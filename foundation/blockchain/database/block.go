package database

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
)

// Version is the current version of the block wire schema.
const Version uint16 = 1

// MaxDifficulty is the largest difficulty a 256 bit hash can satisfy.
const MaxDifficulty = 256

// ErrUnsupportedVersion is returned when block data arrives using a wire
// schema this node doesn't understand.
var ErrUnsupportedVersion = errors.New("unsupported block data version")

// ErrNonceExhausted is returned when the entire nonce space was searched
// without finding a solution.
var ErrNonceExhausted = errors.New("nonce space exhausted")

// ErrUnhashable is returned when the block content can't be marshaled for
// hashing.
var ErrUnhashable = errors.New("block content can't be hashed")

// =============================================================================

// Block represents a group of transactions batched together and sealed with
// a proof of work.
type Block struct {
	Index     uint64 `json:"index"`
	Trans     []Tx   `json:"trans"`
	PrevHash  string `json:"prev_hash"`
	Nonce     uint64 `json:"nonce"`
	Hash      string `json:"hash"`
	TimeStamp uint64 `json:"timestamp"`
}

// hashData is the portion of a block covered by the hash. The timestamp is
// not part of it so identical inputs always produce the identical block hash.
type hashData struct {
	Index    uint64 `json:"index"`
	Trans    []Tx   `json:"trans"`
	PrevHash string `json:"prev_hash"`
	Nonce    uint64 `json:"nonce"`
}

// CalculateHash recomputes the hash for the block from its content.
func (b Block) CalculateHash() string {
	return calculateHash(b.Index, b.Trans, b.PrevHash, b.Nonce)
}

// calculateHash implements H(index, transactions, previous_hash, nonce).
func calculateHash(index uint64, trans []Tx, prevHash string, nonce uint64) string {
	if trans == nil {
		trans = []Tx{}
	}

	return signature.Hash(hashData{
		Index:    index,
		Trans:    trans,
		PrevHash: prevHash,
		Nonce:    nonce,
	})
}

// IsHashSolved checks the hash to make sure it complies with the POW rules.
// The hash needs a difficulty number of leading zero bits.
func IsHashSolved(difficulty uint, hash string) bool {
	// The zero hash is what hashing reports for content it can't marshal.
	if hash == signature.ZeroHash {
		return false
	}
	if difficulty > MaxDifficulty {
		return false
	}
	if difficulty == 0 {
		return true
	}

	return signature.LeadingZeroBits(hash) >= difficulty
}

// ValidateBlock takes a block and validates it to be the next block after
// the specified previous block. The hash is always recomputed, a hash provided
// by a peer is never trusted.
func (b Block) ValidateBlock(previousBlock Block, difficulty uint) error {
	if b.Index != previousBlock.Index+1 {
		return &LinkageError{Index: b.Index, Reason: fmt.Sprintf("not the next index, got %d, exp %d", b.Index, previousBlock.Index+1)}
	}

	if b.PrevHash != previousBlock.Hash {
		return &LinkageError{Index: b.Index, Reason: fmt.Sprintf("previous hash doesn't match our latest block, got %s, exp %s", b.PrevHash, previousBlock.Hash)}
	}

	return b.validateHash(difficulty)
}

// ValidateGenesis validates the block is a proper genesis block.
func (b Block) ValidateGenesis(difficulty uint) error {
	if b.Index != 0 {
		return &LinkageError{Index: b.Index, Reason: "genesis block must have index 0"}
	}

	if b.PrevHash != signature.ZeroHash {
		return &LinkageError{Index: b.Index, Reason: "genesis block must reference the zero hash"}
	}

	if len(b.Trans) != 0 {
		return &LinkageError{Index: b.Index, Reason: "genesis block can't carry transactions"}
	}

	return b.validateHash(difficulty)
}

// validateHash recomputes the block hash and checks the difficulty.
func (b Block) validateHash(difficulty uint) error {
	hash := b.CalculateHash()
	if hash != b.Hash {
		return &LinkageError{Index: b.Index, Reason: fmt.Sprintf("hash doesn't match block content, got %s, exp %s", b.Hash, hash)}
	}

	if !IsHashSolved(difficulty, hash) {
		return &LinkageError{Index: b.Index, Reason: fmt.Sprintf("hash %s doesn't satisfy difficulty %d", hash, difficulty)}
	}

	return nil
}

// =============================================================================

// POWArgs represents the set of arguments required to run POW.
type POWArgs struct {
	Index      uint64
	PrevHash   string
	Trans      []Tx
	Difficulty uint
	EvHandler  func(v string, args ...any)
}

// POW constructs a new Block and performs the work to find a nonce that
// solves the cryptographic POW puzzle. The nonce search starts at zero and
// increments by one, so identical arguments always produce the same block.
// The context is checked before every nonce is evaluated.
func POW(ctx context.Context, args POWArgs) (Block, error) {
	ev := func(v string, args ...any) {}
	if args.EvHandler != nil {
		ev = args.EvHandler
	}

	ev("database: POW: MINING: started: blk[%d]: numTrans[%d]: difficulty[%d]", args.Index, len(args.Trans), args.Difficulty)
	defer ev("database: POW: MINING: completed: blk[%d]", args.Index)

	if args.Difficulty > MaxDifficulty {
		return Block{}, fmt.Errorf("difficulty %d is larger than %d", args.Difficulty, MaxDifficulty)
	}

	// The block is immutable once handed to the engine.
	trans := make([]Tx, len(args.Trans))
	copy(trans, args.Trans)

	for nonce := uint64(0); ; nonce++ {
		if nonce > 0 && nonce%1_000_000 == 0 {
			ev("database: POW: MINING: attempts[%d]", nonce)
		}

		if err := ctx.Err(); err != nil {
			ev("database: POW: MINING: CANCELLED: attempts[%d]", nonce)
			return Block{}, err
		}

		hash := calculateHash(args.Index, trans, args.PrevHash, nonce)
		if hash == signature.ZeroHash {
			return Block{}, ErrUnhashable
		}
		if IsHashSolved(args.Difficulty, hash) {
			ev("database: POW: MINING: SOLVED: prevBlk[%s]: newBlk[%s]: attempts[%d]", args.PrevHash, hash, nonce+1)

			b := Block{
				Index:     args.Index,
				Trans:     trans,
				PrevHash:  args.PrevHash,
				Nonce:     nonce,
				Hash:      hash,
				TimeStamp: uint64(time.Now().UTC().UnixMilli()),
			}
			return b, nil
		}

		if nonce == math.MaxUint64 {
			return Block{}, ErrNonceExhausted
		}
	}
}

// =============================================================================

// BlockData represents what is sent across the network for a block. The
// version field lets the schema evolve without breaking older peers.
type BlockData struct {
	Version   uint16 `json:"version"`
	Index     uint64 `json:"index"`
	Trans     []Tx   `json:"trans"`
	PrevHash  string `json:"prev_hash"`
	Nonce     uint64 `json:"nonce"`
	Hash      string `json:"hash"`
	TimeStamp uint64 `json:"timestamp"`
}

// NewBlockData constructs the value to serialize across the network.
func NewBlockData(block Block) BlockData {
	return BlockData{
		Version:   Version,
		Index:     block.Index,
		Trans:     block.Trans,
		PrevHash:  block.PrevHash,
		Nonce:     block.Nonce,
		Hash:      block.Hash,
		TimeStamp: block.TimeStamp,
	}
}

// ToBlock converts a BlockData into a Block.
func ToBlock(blockData BlockData) (Block, error) {
	if blockData.Version != Version {
		return Block{}, fmt.Errorf("version %d: %w", blockData.Version, ErrUnsupportedVersion)
	}

	b := Block{
		Index:     blockData.Index,
		Trans:     blockData.Trans,
		PrevHash:  blockData.PrevHash,
		Nonce:     blockData.Nonce,
		Hash:      blockData.Hash,
		TimeStamp: blockData.TimeStamp,
	}

	return b, nil
}
