// Package ingest provides the command that loads report files into the store.
package ingest

import (
	"fmt"

	"github.com/buildboard/buildboard/cmd/output"
	"github.com/buildboard/buildboard/cmd/utils"
	"github.com/buildboard/buildboard/ingest"
	"github.com/spf13/cobra"
)

func NewCmdIngest(getApp utils.AppProvider) *cobra.Command {
	var (
		serverName string
		serverURL  string
		format     string
	)

	cmd := &cobra.Command{
		Use:   "ingest FILE...",
		Short: "Ingest build reports from files",
		Long: `Read build reports from YAML, JSON or cctray XML files and update the
stored project records of the given server.

Reports whose names cannot be parsed are skipped and listed; the rest of
the file is still ingested.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()

			server, err := ingest.ResolveServer(a.Servers, serverName, serverURL)
			if err != nil {
				return utils.CommandError("resolving server", err, "server_name", serverName)
			}

			for _, path := range args {
				reports, err := loadReports(path, format)
				if err != nil {
					return utils.CommandError("loading reports", err, "file", path)
				}

				result, err := a.Ingest.IngestBatch(cmd.Context(), server.ID, reports)
				if err != nil {
					return utils.CommandError("ingesting reports", err, "file", path)
				}

				if err := output.Fprint(cmd.OutOrStdout(), output.Success,
					"%s: updated %d projects on %s", path, len(result.Updated), server.Name); err != nil {
					return err
				}
				for _, rejected := range result.Rejected {
					if err := output.Fprint(cmd.OutOrStdout(), output.Warning,
						"  skipped %q: %v", rejected.Name, rejected.Err); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&serverName, "server", "s", "default", "Name of the CI server that produced the reports")
	cmd.Flags().StringVar(&serverURL, "server-url", "", "URL recorded when the server is registered")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Report format: yaml or cctray (default: by file extension)")
	return cmd
}

func loadReports(path, format string) ([]ingest.Report, error) {
	switch ingest.Format(format) {
	case "":
		return ingest.LoadReports(path)
	case ingest.FormatYAML, ingest.FormatCCTray:
		return ingest.LoadReportsAs(path, ingest.Format(format))
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}
