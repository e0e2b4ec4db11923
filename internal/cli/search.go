package cli

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/protsearch"
)

// NewSearchCmd creates the 'search' command.
func NewSearchCmd(a *app) *cobra.Command {
	var (
		k             int
		anotherSource bool
		jsonOutput    bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search proteins and genes",
		Long:  `Run one search and print the hits in the order the service ranked them.`,
		Example: `  protsearch-cli search p53
  protsearch-cli search --k 20 "insulin receptor"
  protsearch-cli search --another-source --json BRCA1`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.newClient(a.v)
			if err != nil {
				return err
			}
			defer c.Close()

			p := protsearch.Params{
				Query:             strings.Join(args, " "),
				K:                 k,
				FromAnotherSource: anotherSource,
			}
			rows, err := c.Search(cmd.Context(), p)
			if err != nil {
				return explain(errors.Wrap(err, "search"), a.v.GetString(keyUpstream))
			}

			if jsonOutput {
				if rows == nil {
					rows = []protsearch.Row{}
				}
				return writeJSON(cmd.OutOrStdout(), rows)
			}
			printRows(cmd.OutOrStdout(), rows)
			return nil
		},
	}

	cmd.Flags().IntVar(&k, "k", 5, "number of results")
	cmd.Flags().BoolVar(&anotherSource, "another-source", false, "search the alternative data source")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "output as JSON")
	return cmd
}
