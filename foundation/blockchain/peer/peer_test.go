package peer_test

import (
	"testing"

	"github.com/ardanlabs/ledger/foundation/blockchain/peer"
)

func Test_CRUD(t *testing.T) {
	type table struct {
		name  string
		peers []peer.Peer
	}

	tt := []table{
		{
			name:  "basic",
			peers: []peer.Peer{{Host: "host1"}, {Host: "host2"}, {Host: "host3"}},
		},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			ps := peer.NewPeerSet()

			for _, peer := range tst.peers {
				ps.Add(peer)
			}

			peers := ps.Copy("")
			if len(peers) != len(tst.peers) {
				t.Logf("Test %s:\tgot: %d", tst.name, len(peers))
				t.Logf("Test %s:\texp: %d", tst.name, len(tst.peers)-1)
				t.Fatalf("Test %s:\tShould get back the right peers.", tst.name)
			}

			peers = ps.Copy("host2")
			if len(peers) != len(tst.peers)-1 {
				t.Logf("Test %s:\tgot: %d", tst.name, len(peers))
				t.Logf("Test %s:\texp: %d", tst.name, len(tst.peers)-1)
				t.Fatalf("Test %s:\tShould get back the right peers.", tst.name)
			}
		}

		t.Run(tst.name, f)
	}
}

func Test_Hosts(t *testing.T) {
	ps := peer.NewPeerSet()

	if ps.Add(peer.New("")) {
		t.Fatal("Should not add a peer without a host.")
	}

	ps.Add(peer.New("localhost:5002"))
	ps.Add(peer.New("localhost:5001"))
	if ps.Add(peer.New("localhost:5001")) {
		t.Fatal("Should not add the same peer twice.")
	}

	hosts := ps.Hosts()
	if len(hosts) != 2 || hosts[0] != "localhost:5001" || hosts[1] != "localhost:5002" {
		t.Fatalf("Should get back the sorted hosts, got %v", hosts)
	}
}
