package cli

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/me/goplan/pkg/model"
	"github.com/spf13/cobra"
)

func newSeedCmd() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create random test tasks (2-6 hour durations)",
		RunE: func(cmd *cobra.Command, args []string) error {
			base := time.Now().UTC().Truncate(24 * time.Hour).Add(9 * time.Hour)

			for i := 1; i <= count; i++ {
				duration := (rand.Intn(5) + 2) * 60
				start := base.Add(time.Duration(i/3)*24*time.Hour + time.Duration(i%3)*2*time.Hour)
				due := start.Add(time.Duration(duration+120) * time.Minute)

				task, err := client.CreateTask(cmd.Context(), model.TaskCreate{
					Title:           fmt.Sprintf("Test %d", i),
					Description:     fmt.Sprintf("Automatically seeded task %d", i),
					DurationMinutes: duration,
					EarliestStart:   start,
					Due:             due,
					Priority:        rand.Intn(5) + 1,
				})
				if err != nil {
					return err
				}
				cmd.Printf("created %s (%dm)\n", task.ID, duration)
			}
			cmd.Printf("seeded %d tasks\n", count)
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 10, "Number of tasks to create")
	return cmd
}
