package network

import (
	"context"
	"math/rand"

	"github.com/ardanlabs/ledger/foundation/blockchain/peer"
)

// Join registers this node with the network. The bootstrap addresses and the
// addresses remembered in the book are tried in random order until one
// accepts the connection. Every node that peer knows about is added to the
// peer set and remembered in the book. Finding no peer is not an error, the
// node is the first in the network.
func Join(ctx context.Context, c *Client, book *peer.AddressBook, bootstrap []string) error {
	c.evHandler("network: Join: started")
	defer c.evHandler("network: Join: completed")

	self := peer.New(c.host)
	c.peers.Add(self)
	if err := book.Add(self); err != nil {
		return err
	}

	known, err := book.Peers()
	if err != nil {
		return err
	}

	for _, pr := range candidates(self, bootstrap, known) {
		if err := c.Connect(ctx, pr); err != nil {
			c.evHandler("network: Join: connect: %s: WARNING: %s", pr, err)
			continue
		}

		peers, err := c.FetchPeers(ctx, pr)
		if err != nil {
			c.evHandler("network: Join: list: %s: WARNING: %s", pr, err)
			continue
		}

		for _, np := range append(peers, pr) {
			if c.peers.Add(np) {
				c.evHandler("network: Join: add peer-node %s", np)
			}
			if err := book.Add(np); err != nil {
				c.evHandler("network: Join: book: %s: WARNING: %s", np, err)
			}
		}

		return nil
	}

	c.evHandler("network: Join: no bootstrap peer reachable, first node in the network")

	return nil
}

// candidates returns the unique set of bootstrap peers in random order,
// excluding this node.
func candidates(self peer.Peer, bootstrap []string, known []peer.Peer) []peer.Peer {
	unique := make(map[peer.Peer]struct{})
	var out []peer.Peer

	add := func(pr peer.Peer) {
		if pr.Host == "" || pr.Match(self.Host) {
			return
		}
		if _, exists := unique[pr]; exists {
			return
		}
		unique[pr] = struct{}{}
		out = append(out, pr)
	}

	for _, host := range bootstrap {
		add(peer.New(host))
	}
	for _, pr := range known {
		add(pr)
	}

	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })

	return out
}
