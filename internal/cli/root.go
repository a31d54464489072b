package cli

import (
	"log/slog"
	"os"

	"github.com/me/goplan/internal/logging"
	"github.com/spf13/cobra"
)

var (
	flagServer    string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	logger *slog.Logger
	client *Client
)

// defaultServer returns the default server URL, checking GOPLAN_SERVER env var first.
func defaultServer() string {
	if s := os.Getenv("GOPLAN_SERVER"); s != "" {
		return s
	}
	return "http://localhost:8080"
}

// NewRootCmd creates the root cobra command for the goplan CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "goplan",
		Short: "goplan — calendar-aware task scheduling",
		Long:  "goplan manages tasks and meetings and runs the scheduling engine against a goplan server.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagDebug {
				flagLogLevel = "debug"
			}
			logger = logging.New(logging.ParseLevel(flagLogLevel), flagLogFormat)
			client = NewClient(flagServer, logger)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagServer, "server", defaultServer(), "goplan server URL (or GOPLAN_SERVER env)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newRunCmd(),
		newRunSWOCmd(),
		newTasksCmd(),
		newMeetingsCmd(),
		newSeedCmd(),
		newSnapshotCmd(),
		newHealthCmd(),
	)

	return root
}
