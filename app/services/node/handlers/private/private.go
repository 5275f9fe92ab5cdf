// Package private maintains the group of handlers for node to node access.
package private

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ardanlabs/ledger/business/sys/validate"
	"github.com/ardanlabs/ledger/business/web/errs"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/network"
	"github.com/ardanlabs/ledger/foundation/blockchain/peer"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/ardanlabs/ledger/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node to node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	Book  *peer.AddressBook
	Seen  *network.Seen
}

// Connect registers the calling node as a known peer.
func (h Handlers) Connect(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var req network.ConnectRequest
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	if err := validate.Check(req); err != nil {
		return err
	}

	pr := peer.New(req.Port)
	if h.State.AddKnownPeer(pr) {
		h.Log.Infow("connect", "traceid", v.TraceID, "peer", pr.Host)
	}

	if h.Book != nil {
		if err := h.Book.Add(pr); err != nil {
			h.Log.Errorw("connect", "traceid", v.TraceID, "peer", pr.Host, "ERROR", err)
		}
	}

	return web.Respond(ctx, w, network.StatusResponse{Status: "ok"}, http.StatusOK)
}

// List returns every node this node knows about, itself included.
func (h Handlers) List(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := network.ListResponse{
		Nodes: h.State.RetrieveKnownHosts(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Chain returns the local chain.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	chain, err := h.State.QueryChain()
	if err != nil {
		return errs.FromLedger(err)
	}

	resp := network.ChainResponse{
		Blocks: chain.ToBlockData(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Found takes a block found by a peer, validates it and if that passes, adds
// the block to the local chain.
func (h Handlers) Found(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var req network.FoundRequest
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	block, err := database.ToBlock(req.Block)
	if err != nil {
		return errs.FromLedger(err)
	}

	if h.Seen != nil && h.Seen.Contains(block.Hash) {
		h.Log.Infow("found", "traceid", v.TraceID, "status", "duplicate", "blk", block.Index, "hash", block.Hash)
		return web.Respond(ctx, w, network.StatusResponse{Status: "ok"}, http.StatusOK)
	}

	if err := h.State.ProcessFoundBlock(block); err != nil {
		return errs.FromLedger(err)
	}

	if h.Seen != nil {
		if err := h.Seen.Mark(block.Hash); err != nil {
			h.Log.Errorw("found", "traceid", v.TraceID, "ERROR", err)
		}
	}

	return web.Respond(ctx, w, network.StatusResponse{Status: "ok"}, http.StatusOK)
}

// Added accepts a transaction shared by a peer. The transaction is not
// shared again.
func (h Handlers) Added(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req network.TxRequest
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	if err := validate.Check(req); err != nil {
		return err
	}

	if err := h.State.SubmitTransaction(req.Tx); err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, network.StatusResponse{Status: "ok"}, http.StatusOK)
}

// Status returns the current status of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.QueryStatus(), http.StatusOK)
}
