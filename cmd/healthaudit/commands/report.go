package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"healthaudit/pkg/reporter"
	"healthaudit/pkg/snapshot"
)

func newReportCommand() *cobra.Command {
	var (
		format     string
		outputPath string
	)

	cmd := &cobra.Command{
		Use:   "report <snapshot.json>",
		Short: "Re-render the report from a stored snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := snapshot.Read(args[0])
			if err != nil {
				return err
			}
			if snap.Report == nil {
				return fmt.Errorf("snapshot %s has no report", args[0])
			}

			writer := cmd.OutOrStdout()
			if outputPath != "" {
				file, err := os.Create(outputPath)
				if err != nil {
					return err
				}
				defer file.Close()
				writer = file
			}

			rep, err := buildReporter(resolveString(format, firstNonEmpty(appConfig.Format, reporter.FormatTable)), writer)
			if err != nil {
				return err
			}
			return rep.Report(*snap.Report)
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "output format (table, json, markdown)")
	cmd.Flags().StringVar(&outputPath, "output", "", "output file path")

	return cmd
}
