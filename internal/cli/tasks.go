package cli

import (
	"fmt"
	"time"

	"github.com/me/goplan/pkg/model"
	"github.com/spf13/cobra"
)

func newTasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Manage tasks",
	}
	cmd.AddCommand(newTasksListCmd(), newTasksAddCmd(), newTasksRmCmd())
	return cmd
}

func newTasksListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tasks ordered by earliest start",
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := client.ListTasks(cmd.Context())
			if err != nil {
				return err
			}
			for _, task := range tasks {
				cmd.Printf("%s  p%-2d %4dm  %s → %s  %s\n",
					task.ID, task.Priority, task.DurationMinutes,
					task.EarliestStart.Format("2006-01-02 15:04"),
					task.Due.Format("2006-01-02 15:04"),
					task.Title)
			}
			return nil
		},
	}
}

func newTasksAddCmd() *cobra.Command {
	var (
		duration int
		earliest string
		due      string
		priority int
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			earliestTime, err := time.Parse(time.RFC3339, earliest)
			if err != nil {
				return fmt.Errorf("parse --earliest: %w", err)
			}
			dueTime, err := time.Parse(time.RFC3339, due)
			if err != nil {
				return fmt.Errorf("parse --due: %w", err)
			}

			task, err := client.CreateTask(cmd.Context(), model.TaskCreate{
				Title:           args[0],
				DurationMinutes: duration,
				EarliestStart:   earliestTime,
				Due:             dueTime,
				Priority:        priority,
			})
			if err != nil {
				return err
			}
			cmd.Printf("created task %s\n", task.ID)
			return nil
		},
	}

	cmd.Flags().IntVar(&duration, "duration", 60, "Duration in minutes")
	cmd.Flags().StringVar(&earliest, "earliest", "", "Earliest start (RFC3339)")
	cmd.Flags().StringVar(&due, "due", "", "Due instant (RFC3339)")
	cmd.Flags().IntVar(&priority, "priority", 5, "Priority in [1, 10]")
	cmd.MarkFlagRequired("earliest")
	cmd.MarkFlagRequired("due")
	return cmd
}

func newTasksRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.DeleteTask(cmd.Context(), args[0]); err != nil {
				return err
			}
			cmd.Printf("deleted task %s\n", args[0])
			return nil
		},
	}
}
