// Package network implements the node to node communication for the
// blockchain: the HTTP client other packages use to reach peers, the
// sequence for joining the network and a filter for duplicate notifications.
package network

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/peer"
)

// ErrPeerUnreachable is returned when a peer can't be reached in time.
var ErrPeerUnreachable = errors.New("peer unreachable")

// DefaultTimeout is used when no timeout is configured.
const DefaultTimeout = 5 * time.Second

// Config represents the configuration required to talk to peers.
type Config struct {
	Host      string
	Peers     *peer.PeerSet
	Timeout   time.Duration
	EvHandler func(v string, args ...any)
}

// Client provides access to the other nodes in the network.
type Client struct {
	host      string
	peers     *peer.PeerSet
	http      *http.Client
	evHandler func(v string, args ...any)
}

// NewClient constructs a client for talking to peers.
func NewClient(cfg Config) *Client {
	ev := func(v string, args ...any) {}
	if cfg.EvHandler != nil {
		ev = cfg.EvHandler
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	peers := cfg.Peers
	if peers == nil {
		peers = peer.NewPeerSet()
	}

	return &Client{
		host:      cfg.Host,
		peers:     peers,
		http:      &http.Client{Timeout: timeout},
		evHandler: ev,
	}
}

// Host returns the address this node is reachable at.
func (c *Client) Host() string {
	return c.host
}

// ListPeers returns the known peers excluding this node.
func (c *Client) ListPeers(ctx context.Context) []peer.Peer {
	return c.peers.Copy(c.host)
}

// Connect registers this node with the peer.
func (c *Client) Connect(ctx context.Context, pr peer.Peer) error {
	c.evHandler("network: Connect: started: %s", pr)
	defer c.evHandler("network: Connect: completed: %s", pr)

	return c.send(ctx, http.MethodPost, url(pr, "/connect"), ConnectRequest{Port: c.host}, nil)
}

// FetchPeers asks the peer for every node it knows about.
func (c *Client) FetchPeers(ctx context.Context, pr peer.Peer) ([]peer.Peer, error) {
	var resp ListResponse
	if err := c.send(ctx, http.MethodGet, url(pr, "/list"), nil, &resp); err != nil {
		return nil, err
	}

	peers := make([]peer.Peer, 0, len(resp.Nodes))
	for _, host := range resp.Nodes {
		if host != "" {
			peers = append(peers, peer.New(host))
		}
	}

	c.evHandler("network: FetchPeers: %s: peers[%d]", pr, len(peers))

	return peers, nil
}

// FetchChain retrieves the chain held by the peer.
func (c *Client) FetchChain(ctx context.Context, pr peer.Peer) (database.Chain, error) {
	var resp ChainResponse
	if err := c.send(ctx, http.MethodGet, url(pr, "/chain"), nil, &resp); err != nil {
		return nil, err
	}

	chain, err := database.ToChain(resp.Blocks)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", pr, err)
	}

	c.evHandler("network: FetchChain: %s: height[%d]", pr, len(chain))

	return chain, nil
}

// BroadcastBlock sends the block to every known peer except this node.
// Failures are logged and the peer is skipped.
func (c *Client) BroadcastBlock(ctx context.Context, block database.Block) {
	req := FoundRequest{Block: database.NewBlockData(block)}

	for _, pr := range c.ListPeers(ctx) {
		if err := c.send(ctx, http.MethodPost, url(pr, "/found"), req, nil); err != nil {
			c.evHandler("network: BroadcastBlock: %s: WARNING: %s", pr, err)
			continue
		}
		c.evHandler("network: BroadcastBlock: sent to peer[%s]: blk[%d]", pr, block.Index)
	}
}

// BroadcastTransaction sends the transaction to every known peer except
// this node. Failures are logged and the peer is skipped.
func (c *Client) BroadcastTransaction(ctx context.Context, tx database.Tx) {
	req := TxRequest{Tx: tx}

	for _, pr := range c.ListPeers(ctx) {
		if err := c.send(ctx, http.MethodPost, url(pr, "/added"), req, nil); err != nil {
			c.evHandler("network: BroadcastTransaction: %s: WARNING: %s", pr, err)
		}
	}
}

// =============================================================================

// url constructs the url for the route on the peer.
func url(pr peer.Peer, path string) string {
	return fmt.Sprintf("http://%s%s", pr.Host, path)
}

// send is a helper function to send an HTTP request to a node.
func (c *Client) send(ctx context.Context, method string, url string, dataSend any, dataRecv any) error {
	var body io.Reader
	if dataSend != nil {
		data, err := json.Marshal(dataSend)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w: %s", url, ErrPeerUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if resp.StatusCode != http.StatusOK {
		msg, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		return fmt.Errorf("%s: status[%d]: %s", url, resp.StatusCode, bytes.TrimSpace(msg))
	}

	if dataRecv != nil {
		if err := json.NewDecoder(resp.Body).Decode(dataRecv); err != nil {
			return err
		}
	}

	return nil
}
