package network

import "github.com/ardanlabs/ledger/foundation/blockchain/database"

// ConnectRequest registers a node with a peer.
type ConnectRequest struct {
	Port string `json:"port" validate:"required,hostname_port"`
}

// ListResponse is the set of nodes a peer knows about.
type ListResponse struct {
	Nodes []string `json:"nodes"`
}

// ChainResponse is the chain held by a peer.
type ChainResponse struct {
	Blocks []database.BlockData `json:"blocks"`
}

// FoundRequest notifies a peer about a newly mined block.
type FoundRequest struct {
	Block database.BlockData `json:"block"`
}

// TxRequest carries a transaction to a node.
type TxRequest struct {
	Tx database.Tx `json:"tx" validate:"required"`
}

// StatusResponse is the acknowledgement returned by a node.
type StatusResponse struct {
	Status string `json:"status"`
}
