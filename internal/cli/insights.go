package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/justestif/habit-garden/internal/calendar"
)

func (a *app) insightsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "insights",
		Short: "Show streak statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := a.authenticated(ctx)
			if err != nil {
				return err
			}
			insights, err := sess.Client().Insights(ctx)
			if err != nil {
				return apiFailure("loading insights", err)
			}
			printInsights(cmd.OutOrStdout(), insights)
			return nil
		},
	}
}

func (a *app) calendarCmd() *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Draw the activity heatmap for a year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := a.authenticated(ctx)
			if err != nil {
				return err
			}

			reference := time.Now()
			if year != 0 {
				reference = time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
			}

			days, err := sess.Client().Calendar(ctx)
			if err != nil {
				return apiFailure("loading calendar", err)
			}

			grid := calendar.BuildGrid(days, reference)
			fmt.Fprintln(cmd.OutOrStdout(), calendar.Render(grid))
			fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render(fmt.Sprintf("%d active days in %d", grid.ActiveDays(), grid.Year)))
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "calendar year (default current year)")
	return cmd
}
