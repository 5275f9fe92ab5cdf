package database

import (
	"errors"
	"fmt"
)

// ErrChainNotInitialized is returned when the chain is read or written before
// a genesis block was created or a chain was adopted from the network.
var ErrChainNotInitialized = errors.New("chain not initialized")

// LinkageError is returned when a block fails hash, difficulty or previous
// hash validation. The block is rejected and discarded.
type LinkageError struct {
	Index  uint64
	Reason string
}

// Error implements the error interface.
func (le *LinkageError) Error() string {
	return fmt.Sprintf("block %d rejected: %s", le.Index, le.Reason)
}

// IsLinkageError checks if an error of type LinkageError exists.
func IsLinkageError(err error) bool {
	var le *LinkageError
	return errors.As(err, &le)
}
