package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/antoniostano/claria/internal/ics"
)

var icsCmd = &cobra.Command{
	Use:   "ics",
	Short: "Print a calendar invite",
	Long: `Print an RFC 5545 calendar invite to stdout.

Examples:
  claria ics --title "Junta de ventas" --date 2025-06-01 --time 09:00
  claria ics --title Cita --date 2025-06-01 --time 17:30 --duration 1.5 --location "Oficina centro"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		description, _ := cmd.Flags().GetString("description")
		location, _ := cmd.Flags().GetString("location")
		date, _ := cmd.Flags().GetString("date")
		clock, _ := cmd.Flags().GetString("time")
		hours, _ := cmd.Flags().GetFloat64("duration")
		tz, _ := cmd.Flags().GetString("tz")

		content, err := ics.NewGenerator(tz, time.Hour).Generate(ics.Event{
			Title:         title,
			Description:   description,
			Location:      location,
			Date:          date,
			Time:          clock,
			DurationHours: hours,
		})
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), content)
		return err
	},
}

func init() {
	icsCmd.Flags().String("title", "", "event title (required)")
	icsCmd.Flags().String("description", "", "event description")
	icsCmd.Flags().String("location", "", "event location")
	icsCmd.Flags().String("date", "", "start date as YYYY-MM-DD (required)")
	icsCmd.Flags().String("time", "", "start time as HH:MM (required)")
	icsCmd.Flags().Float64("duration", ics.DefaultHours, "duration in hours")
	icsCmd.Flags().String("tz", ics.DefaultTimezone, "TZID for start and end")
}
