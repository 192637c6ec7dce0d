// Package status provides the status command showing the build rollup.
package status

import (
	"github.com/buildboard/buildboard/cmd/output"
	"github.com/buildboard/buildboard/cmd/utils"
	"github.com/spf13/cobra"
)

// NewCmdStatus creates the status command
func NewCmdStatus(getApp utils.AppProvider) *cobra.Command {
	var versions []string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the aggregated build status",
		Long: `Show the overall build status, the status of every version and the
project shown for each (version, database, category) cell.

Projects excluded from the status are listed but do not affect any rollup.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()

			tree, err := a.Rollup(versions...)
			if err != nil {
				return utils.CommandError("computing status", err)
			}

			out, err := output.PrintStatusTree(tree, a.Categories)
			if err != nil {
				return utils.CommandError("printing status", err)
			}
			_, err = cmd.OutOrStdout().Write([]byte(out))
			return err
		},
	}

	cmd.Flags().StringSliceVarP(&versions, "version", "v", nil, "Only show these versions (repeatable or comma separated)")
	return cmd
}
