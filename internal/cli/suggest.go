package cli

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

// NewSuggestCmd creates the 'suggest' command.
func NewSuggestCmd(a *app) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "suggest <partial query>",
		Short: "Show autocomplete suggestions",
		Long:  `List suggestions grouped by category. Matched text is shown in brackets.`,
		Example: `  protsearch-cli suggest tp5
  protsearch-cli suggest --json insul`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.newClient(a.v)
			if err != nil {
				return err
			}
			defer c.Close()

			q := strings.Join(args, " ")
			set, err := c.Suggest(cmd.Context(), q)
			if err != nil {
				return explain(errors.Wrap(err, "suggest"), a.v.GetString(keyUpstream))
			}

			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), set)
			}
			printEntries(cmd.OutOrStdout(), set.Flatten(), q)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "output as JSON")
	return cmd
}
