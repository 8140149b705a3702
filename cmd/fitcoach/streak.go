package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/carpenike/fitcoach/internal/models"
)

func newStreakCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "streak <username>",
		Short: "Print a user's workout streak",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			user, err := lookupUser(db, args[0])
			if err != nil {
				return err
			}
			now := time.Now().In(user.Location())
			s, err := models.GetStreak(db, user.ID, now)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Current streak: %d days\n", s.CurrentStreak)
			fmt.Fprintf(out, "Longest streak: %d days\n", s.LongestStreak)
			fmt.Fprintf(out, "Total workouts: %s\n", humanize.Comma(int64(s.TotalWorkouts)))
			if s.LastWorkoutDate == "" {
				fmt.Fprintln(out, "Last workout:   never")
				return nil
			}
			last, _ := time.ParseInLocation(models.DateLayout, s.LastWorkoutDate, user.Location())
			today, _ := time.ParseInLocation(models.DateLayout, models.CalendarDate(now), user.Location())
			when := "today"
			if last.Before(today) {
				when = humanize.RelTime(last, today, "ago", "from now")
			}
			fmt.Fprintf(out, "Last workout:   %s (%s)\n", s.LastWorkoutDate, when)
			return nil
		},
	}
}
