// Package root implements the command line interface for buildboard.
package root

import (
	"fmt"
	"os"

	"github.com/buildboard/buildboard/app"
	"github.com/buildboard/buildboard/cmd/ingest"
	"github.com/buildboard/buildboard/cmd/output"
	"github.com/buildboard/buildboard/cmd/project"
	"github.com/buildboard/buildboard/cmd/serve"
	"github.com/buildboard/buildboard/cmd/server"
	"github.com/buildboard/buildboard/cmd/status"
	"github.com/buildboard/buildboard/cmd/version"
	"github.com/buildboard/buildboard/config"
	"github.com/buildboard/buildboard/logging"
	"github.com/spf13/cobra"
)

// skipAppAnnotation marks commands that run without opening the database
const skipAppAnnotation = "skip-app"

func Execute() {
	cmd := NewCmdRoot()
	if err := cmd.Execute(); err != nil {
		_ = output.Fprint(cmd.ErrOrStderr(), output.Error, "Error: %v", err)
		os.Exit(1)
	}
}

func NewCmdRoot() *cobra.Command {
	var (
		configPath  string
		application *app.App
	)
	getApp := func() *app.App { return application }

	cmd := &cobra.Command{
		Use:   "buildboard",
		Short: "Build status rollup for CI servers",
		Long: `buildboard stores the latest build report of every project sent by
CI servers and rolls them up into an overall status, a status per version
and one record per (version, database, category) cell.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewConfig(configPath)
			if err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			// CLI flags override config
			output.InitColors(!cfg.ColorEnabled || output.NoColor.IsSet())
			logging.InitLogging(logging.LogLevel.Resolve(cfg.LogLevel))

			if cmd.Annotations[skipAppAnnotation] == "true" {
				return nil
			}

			application, err = app.New(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if application == nil {
				return nil
			}
			return application.Close()
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file")
	cmd.PersistentFlags().VarP(logging.LogLevel, "log-level", "l", "Set log verbosity level")
	cmd.PersistentFlags().VarP(output.NoColor, "no-color", "c", "Disable colored terminal output")

	cmd.AddCommand(ingest.NewCmdIngest(getApp))
	cmd.AddCommand(status.NewCmdStatus(getApp))
	cmd.AddCommand(project.NewCmdProject(getApp))
	cmd.AddCommand(server.NewCmdServer(getApp))
	cmd.AddCommand(serve.NewCmdServe(getApp))
	cmd.AddCommand(version.NewCmdVersion())
	return cmd
}
