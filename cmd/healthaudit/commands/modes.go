package commands

import (
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"healthaudit/pkg/core"
)

func newModesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "modes",
		Short: "List the built-in failure modes",
		RunE: func(cmd *cobra.Command, args []string) error {
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header([]string{"ID", "Label", "Category", "Dataset"})
			for _, mode := range core.BuiltinFailureModes {
				source := mode.DatasetSource
				if source == "" {
					source = "-"
				}
				table.Append([]string{mode.ID, mode.Label, string(mode.Category), source})
			}
			table.Render()
			return nil
		},
	}
}
