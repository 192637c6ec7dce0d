// Package project provides commands for inspecting and curating project records.
package project

import (
	"github.com/buildboard/buildboard/cmd/utils"
	"github.com/spf13/cobra"
)

func NewCmdProject(getApp utils.AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage reported projects",
	}

	cmd.AddCommand(NewCmdProjectList(getApp))
	cmd.AddCommand(NewCmdProjectInclude(getApp))
	cmd.AddCommand(NewCmdProjectExclude(getApp))
	return cmd
}
