package database

import (
	"encoding/json"
	"errors"
)

// Tx represents an opaque application payload that is batched into blocks.
// The node never interprets the payload beyond requiring valid JSON.
type Tx json.RawMessage

// NewTx constructs a transaction from the raw JSON payload.
func NewTx(data []byte) (Tx, error) {
	if len(data) == 0 || !json.Valid(data) {
		return nil, errors.New("transaction payload is not valid json")
	}

	tx := make(Tx, len(data))
	copy(tx, data)

	return tx, nil
}

// MarshalJSON implements the json.Marshaler interface.
func (tx Tx) MarshalJSON() ([]byte, error) {
	if len(tx) == 0 {
		return []byte("null"), nil
	}
	return tx, nil
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (tx *Tx) UnmarshalJSON(data []byte) error {
	if tx == nil {
		return errors.New("database.Tx: UnmarshalJSON on nil pointer")
	}
	*tx = append((*tx)[0:0], data...)
	return nil
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	return string(tx)
}
