package cmd

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"
)

var chainCmd = &cobra.Command{
	Use:   "chain [index]",
	Short: "Show the chain of the node, or a single block",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return call(cmd, http.MethodGet, endpoint(publicURL, "/chain"), nil)
		}

		index, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid block index %q", args[0])
		}
		return call(cmd, http.MethodGet, endpoint(publicURL, fmt.Sprintf("/chain/%d", index)), nil)
	},
}

var peersCmd = &cobra.Command{
	Use:   "peers",
	Short: "List the peers known to the node",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd, http.MethodGet, endpoint(publicURL, "/list"), nil)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the mining status of the node",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd, http.MethodGet, endpoint(publicURL, "/status"), nil)
	},
}

var mempoolCmd = &cobra.Command{
	Use:   "mempool",
	Short: "Show the work waiting to be mined",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd, http.MethodGet, endpoint(publicURL, "/mempool"), nil)
	},
}

func init() {
	rootCmd.AddCommand(chainCmd)
	rootCmd.AddCommand(peersCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(mempoolCmd)
}
