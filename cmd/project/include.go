package project

import (
	"fmt"

	"github.com/buildboard/buildboard/cmd/output"
	"github.com/buildboard/buildboard/cmd/utils"
	"github.com/buildboard/buildboard/ingest"
	"github.com/buildboard/buildboard/repository"
	"github.com/spf13/cobra"
)

func NewCmdProjectInclude(getApp utils.AppProvider) *cobra.Command {
	return newCmdSetIncluded(getApp, true)
}

func NewCmdProjectExclude(getApp utils.AppProvider) *cobra.Command {
	return newCmdSetIncluded(getApp, false)
}

func newCmdSetIncluded(getApp utils.AppProvider, included bool) *cobra.Command {
	var serverName string

	use, short, operation, verb := "include NAME", "Count a project towards the status rollup", "including project", "included in"
	if !included {
		use, short, operation, verb = "exclude NAME", "Stop counting a project towards the status rollup", "excluding project", "excluded from"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()
			name := args[0]

			server, err := a.Servers.FindByName(ingest.ServerKey(serverName))
			if err != nil {
				return utils.CommandError(operation, fmt.Errorf("server %q: %w", serverName, err), "server_name", serverName)
			}

			err = a.Projects.Transaction(func(projects repository.ProjectRepository) error {
				p, err := projects.FindByIdentity(name, server.ID)
				if err != nil {
					return fmt.Errorf("project %q: %w", name, err)
				}
				p.IncludedInStatus = included
				return projects.Update(p)
			})
			if err != nil {
				return utils.CommandError(operation, err, "project_name", name, "server_name", server.Name)
			}

			return output.Fprint(cmd.OutOrStdout(), output.Success, "%s on %s is now %s the status", name, server.Name, verb)
		},
	}

	cmd.Flags().StringVarP(&serverName, "server", "s", "default", "Server that reports the project")
	return cmd
}
