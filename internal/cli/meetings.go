package cli

import (
	"fmt"
	"time"

	"github.com/me/goplan/pkg/model"
	"github.com/spf13/cobra"
)

func newMeetingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meetings",
		Short: "Manage meetings",
	}
	cmd.AddCommand(newMeetingsListCmd(), newMeetingsAddCmd(), newMeetingsRmCmd())
	return cmd
}

func newMeetingsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List meetings ordered by start",
		RunE: func(cmd *cobra.Command, args []string) error {
			meetings, err := client.ListMeetings(cmd.Context())
			if err != nil {
				return err
			}
			for _, m := range meetings {
				source := m.Source
				if source == "" {
					source = "local"
				}
				cmd.Printf("%s  %s → %s  [%s]  %s\n",
					m.ID,
					m.StartTime.Format("2006-01-02 15:04"),
					m.EndTime.Format("15:04"),
					source, m.Title)
			}
			return nil
		},
	}
}

func newMeetingsAddCmd() *cobra.Command {
	var start, end string

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a meeting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			startTime, err := time.Parse(time.RFC3339, start)
			if err != nil {
				return fmt.Errorf("parse --start: %w", err)
			}
			endTime, err := time.Parse(time.RFC3339, end)
			if err != nil {
				return fmt.Errorf("parse --end: %w", err)
			}

			meeting, err := client.CreateMeeting(cmd.Context(), model.MeetingCreate{
				Title:     args[0],
				StartTime: startTime,
				EndTime:   endTime,
			})
			if err != nil {
				return err
			}
			cmd.Printf("created meeting %s\n", meeting.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "Start time (RFC3339)")
	cmd.Flags().StringVar(&end, "end", "", "End time (RFC3339)")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("end")
	return cmd
}

func newMeetingsRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a meeting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.DeleteMeeting(cmd.Context(), args[0]); err != nil {
				return err
			}
			cmd.Printf("deleted meeting %s\n", args[0])
			return nil
		},
	}
}
