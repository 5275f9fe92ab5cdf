package peer

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/boltdb/bolt"
)

// peersBucket is the bolt bucket holding one key per known peer host.
const peersBucket = "peers"

// AddressBook is the persisted store of peer addresses a node uses to find
// a bootstrap peer when it starts. Only addresses are persisted, never the
// ledger itself.
type AddressBook struct {
	db *bolt.DB
}

// OpenAddressBook opens or creates the address book at the specified path.
func OpenAddressBook(path string) (*AddressBook, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating address book folder: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening address book: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(peersBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating peers bucket: %w", err)
	}

	return &AddressBook{db: db}, nil
}

// Add records the peer along with the time it was last seen.
func (ab *AddressBook) Add(peer Peer) error {
	if peer.Host == "" {
		return nil
	}

	return ab.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(peersBucket))
		seen := strconv.FormatInt(time.Now().UTC().Unix(), 10)
		return b.Put([]byte(peer.Host), []byte(seen))
	})
}

// Remove deletes the peer from the address book.
func (ab *AddressBook) Remove(peer Peer) error {
	return ab.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(peersBucket)).Delete([]byte(peer.Host))
	})
}

// Peers returns every peer recorded in the address book.
func (ab *AddressBook) Peers() ([]Peer, error) {
	var peers []Peer

	err := ab.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(peersBucket)).ForEach(func(k, _ []byte) error {
			peers = append(peers, New(string(k)))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return peers, nil
}

// Close closes the underlying database file.
func (ab *AddressBook) Close() error {
	return ab.db.Close()
}
