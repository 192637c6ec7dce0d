package project

import (
	"fmt"

	"github.com/buildboard/buildboard/cmd/output"
	"github.com/buildboard/buildboard/cmd/utils"
	"github.com/buildboard/buildboard/domain"
	"github.com/buildboard/buildboard/ingest"
	"github.com/spf13/cobra"
)

func NewCmdProjectList(getApp utils.AppProvider) *cobra.Command {
	var (
		versions   []string
		serverName string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored projects",
		Long: `Display every stored project record with its parsed version, database
and category, its latest status and whether it counts towards the rollup.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()

			servers, err := a.Servers.List()
			if err != nil {
				return utils.CommandError("listing servers", err)
			}
			names := make(map[string]string, len(servers))
			for _, s := range servers {
				names[s.ID.String()] = s.Name
			}

			var projects []*domain.Project
			if serverName != "" {
				server, err := a.Servers.FindByName(ingest.ServerKey(serverName))
				if err != nil {
					return utils.CommandError("finding server", fmt.Errorf("server %q: %w", serverName, err), "server_name", serverName)
				}
				projects, err = a.Projects.ListByServer(server.ID)
				if err != nil {
					return utils.CommandError("listing projects", err)
				}
				projects = filterVersions(projects, versions)
			} else {
				projects, err = a.Projects.ListByVersions(versions...)
				if err != nil {
					return utils.CommandError("listing projects", err)
				}
			}

			out, err := output.PrintProjectList(projects, names)
			if err != nil {
				return utils.CommandError("printing project list table", err)
			}
			_, err = cmd.OutOrStdout().Write([]byte(out))
			return err
		},
	}

	cmd.Flags().StringSliceVarP(&versions, "version", "v", nil, "Only list these versions")
	cmd.Flags().StringVarP(&serverName, "server", "s", "", "Only list projects reported by this server")
	return cmd
}

func filterVersions(projects []*domain.Project, versions []string) []*domain.Project {
	if len(versions) == 0 {
		return projects
	}
	keep := make(map[string]bool, len(versions))
	for _, v := range versions {
		keep[v] = true
	}
	var filtered []*domain.Project
	for _, p := range projects {
		if keep[p.Version] {
			filtered = append(filtered, p)
		}
	}
	return filtered
}
