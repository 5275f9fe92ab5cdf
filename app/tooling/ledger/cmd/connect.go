package cmd

import (
	"encoding/json"
	"net/http"

	"github.com/ardanlabs/ledger/foundation/blockchain/network"
	"github.com/spf13/cobra"
)

var connectCmd = &cobra.Command{
	Use:   "connect <addr>",
	Short: "Register the address of a node with the node",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := json.Marshal(network.ConnectRequest{Port: args[0]})
		if err != nil {
			return err
		}
		return call(cmd, http.MethodPost, endpoint(privateURL, "/connect"), body)
	},
}

func init() {
	rootCmd.AddCommand(connectCmd)
}
