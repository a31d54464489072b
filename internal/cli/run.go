package cli

import (
	"fmt"
	"time"

	"github.com/me/goplan/pkg/model"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var label, windowStart, windowEnd string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the CP/LNS scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := model.ScheduleRunRequest{Label: label}

			if windowStart != "" || windowEnd != "" {
				if windowStart == "" || windowEnd == "" {
					return fmt.Errorf("--window-start and --window-end must be given together")
				}
				start, err := time.Parse(time.RFC3339, windowStart)
				if err != nil {
					return fmt.Errorf("parse --window-start: %w", err)
				}
				end, err := time.Parse(time.RFC3339, windowEnd)
				if err != nil {
					return fmt.Errorf("parse --window-end: %w", err)
				}
				payload.NeighborhoodWindow = &model.TimeWindow{Start: start, End: end}
			}

			run, err := client.RunSchedule(cmd.Context(), payload)
			if err != nil {
				return err
			}
			printRun(cmd, run)
			return nil
		},
	}

	cmd.Flags().StringVar(&label, "label", "", "Label for the persisted snapshot")
	cmd.Flags().StringVar(&windowStart, "window-start", "", "Neighborhood window start (RFC3339)")
	cmd.Flags().StringVar(&windowEnd, "window-end", "", "Neighborhood window end (RFC3339)")
	return cmd
}

func newRunSWOCmd() *cobra.Command {
	var label string

	cmd := &cobra.Command{
		Use:   "run-swo",
		Short: "Run the SWO scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := client.RunSWOSchedule(cmd.Context(), model.ScheduleRunRequest{Label: label})
			if err != nil {
				return err
			}
			printRun(cmd, run)
			return nil
		},
	}

	cmd.Flags().StringVar(&label, "label", "", "Label for the persisted snapshot")
	return cmd
}

func printRun(cmd *cobra.Command, run *model.ScheduleRunResponse) {
	cmd.Printf("scheduler: %s\n", run.Scheduler)
	if run.ObjectiveValue != nil {
		cmd.Printf("objective: %d\n", *run.ObjectiveValue)
	} else {
		cmd.Println("objective: -")
	}
	cmd.Printf("scheduled: %d  unscheduled: %d  deviation: %dm  tardiness: %dm  runtime: %.1fms\n",
		run.Metrics.ScheduledCount, run.Metrics.UnscheduledCount,
		run.Metrics.TotalDeviationMinutes, run.Metrics.TotalTardinessMinutes, run.RuntimeMS)
	for _, a := range run.Assignments {
		cmd.Printf("  %s  %s → %s\n", a.TaskID,
			a.Start.Format("2006-01-02 15:04"), a.End.Format("15:04"))
	}
	for _, id := range run.UnscheduledTasks {
		cmd.Printf("  unscheduled: %s\n", id)
	}
}
