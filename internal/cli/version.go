package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/protsearch/internal/version"
)

// NewVersionCmd creates the 'version' command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of protsearch-cli",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "protsearch-cli %s\n", version.String())
		},
	}
}
