// Package genesis maintains access to the genesis file which holds the
// parameters every node on the network must agree on.
package genesis

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
)

// Default values used when no genesis file exists.
const (
	DefaultDifficulty    = 20
	DefaultTransPerBlock = 10
)

// Genesis represents the genesis file.
type Genesis struct {
	Date          time.Time `json:"date"`
	Difficulty    uint16    `json:"difficulty"`      // Number of leading zero bits needed to solve the hash solution.
	TransPerBlock uint16    `json:"trans_per_block"` // The number of transactions batched into a pending block.
}

// Default returns the genesis values used by the network when no file
// is provided.
func Default() Genesis {
	return Genesis{
		Date:          time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		Difficulty:    DefaultDifficulty,
		TransPerBlock: DefaultTransPerBlock,
	}
}

// =============================================================================

// Load opens and consumes the genesis file. If the file doesn't exist the
// default values are returned.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Genesis{}, err
	}

	genesis := Default()
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, fmt.Errorf("decoding %s: %w", path, err)
	}

	if genesis.Difficulty > 256 {
		return Genesis{}, fmt.Errorf("difficulty %d is larger than 256", genesis.Difficulty)
	}

	if genesis.TransPerBlock == 0 {
		return Genesis{}, errors.New("trans_per_block must be greater than zero")
	}

	return genesis, nil
}
