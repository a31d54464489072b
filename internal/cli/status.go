package cli

import (
	"fmt"

	"github.com/me/goplan/pkg/model"
	"github.com/spf13/cobra"
)

func newSnapshotCmd() *cobra.Command {
	var module string

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Show the latest plan snapshot for a module",
		RunE: func(cmd *cobra.Command, args []string) error {
			m := model.Module(module)
			if m != model.ModuleCPLNS && m != model.ModuleSWO {
				return fmt.Errorf("module must be CP_LNS or SWO, got %q", module)
			}
			snapshot, err := client.LatestSnapshot(cmd.Context(), m)
			if err != nil {
				return err
			}
			cmd.Printf("snapshot %s  module=%s  label=%q  created=%s\n",
				snapshot.ID, snapshot.Module, snapshot.Label,
				snapshot.CreatedAt.Format("2006-01-02 15:04:05"))
			for key, value := range snapshot.Metrics {
				cmd.Printf("  %s: %d\n", key, value)
			}
			for _, a := range snapshot.Assignments {
				cmd.Printf("  %s  %s → %s\n", a.TaskID,
					a.ScheduledStart.Format("2006-01-02 15:04"),
					a.ScheduledEnd.Format("15:04"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&module, "module", string(model.ModuleCPLNS), "Scheduler module (CP_LNS or SWO)")
	return cmd
}

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			health, err := client.Health(cmd.Context())
			if err != nil {
				return err
			}
			for key, value := range health {
				cmd.Printf("%s: %v\n", key, value)
			}
			return nil
		},
	}
}
