// Package server provides commands for inspecting registered CI servers.
package server

import (
	"github.com/buildboard/buildboard/cmd/output"
	"github.com/buildboard/buildboard/cmd/utils"
	"github.com/spf13/cobra"
)

func NewCmdServer(getApp utils.AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Manage CI servers that send reports",
	}

	cmd.AddCommand(NewCmdServerList(getApp))
	return cmd
}

func NewCmdServerList(getApp utils.AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			servers, err := getApp().Servers.List()
			if err != nil {
				return utils.CommandError("listing servers", err)
			}

			out, err := output.PrintServerList(servers)
			if err != nil {
				return utils.CommandError("printing server list table", err)
			}
			_, err = cmd.OutOrStdout().Write([]byte(out))
			return err
		},
	}
}
