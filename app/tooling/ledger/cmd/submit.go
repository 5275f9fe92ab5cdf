package cmd

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/network"
	"github.com/spf13/cobra"
)

var submitCmd = &cobra.Command{
	Use:   "submit <json>",
	Short: "Submit a transaction to the node and its peers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := txBody(args[0])
		if err != nil {
			return err
		}
		return call(cmd, http.MethodPost, endpoint(publicURL, "/add"), body)
	},
}

var addedCmd = &cobra.Command{
	Use:   "added <json>",
	Short: "Submit a transaction to the node only, without sharing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := txBody(args[0])
		if err != nil {
			return err
		}
		return call(cmd, http.MethodPost, endpoint(privateURL, "/added"), body)
	},
}

func txBody(payload string) ([]byte, error) {
	tx, err := database.NewTx([]byte(payload))
	if err != nil {
		return nil, errors.New("transaction must be a json document")
	}

	return json.Marshal(network.TxRequest{Tx: tx})
}

func init() {
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(addedCmd)
}
