package state

import (
	"errors"
	"fmt"
)

// Set of errors the state API returns to its callers.
var (
	ErrRole               = errors.New("operation not permitted for this node's role")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrNoTransactions     = errors.New("no transactions in mempool")
	ErrMiningActive       = errors.New("mining round already active")
	ErrPOWPanic           = errors.New("pow panic")
)

// Role represents the part a node plays in the network.
type Role int

// Set of roles a node can have.
const (
	RoleFollower Role = iota
	RoleMiner
)

// ParseRole converts the string into a role.
func ParseRole(s string) (Role, error) {
	switch s {
	case "miner", "Miner":
		return RoleMiner, nil
	case "follower", "Follower":
		return RoleFollower, nil
	}
	return RoleFollower, fmt.Errorf("unknown role %q", s)
}

// String implements the fmt.Stringer interface.
func (r Role) String() string {
	if r == RoleMiner {
		return "Miner"
	}
	return "Follower"
}

// =============================================================================

// MiningStatus represents where the node is in the mining state machine.
type MiningStatus int

// Set of mining states.
const (
	MiningIdle MiningStatus = iota
	MiningActive
	MiningSuperseded
)

// String implements the fmt.Stringer interface.
func (ms MiningStatus) String() string {
	switch ms {
	case MiningActive:
		return "Mining"
	case MiningSuperseded:
		return "Superseded"
	}
	return "Idle"
}
