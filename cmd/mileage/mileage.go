// Package mileage provides the "sheetkit mileage" trip-log commands.
package mileage

import (
	"fmt"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gridworks/sheetkit/internal/auth"
	"github.com/gridworks/sheetkit/internal/config"
	"github.com/gridworks/sheetkit/internal/gcal"
	"github.com/gridworks/sheetkit/internal/maps"
	"github.com/gridworks/sheetkit/internal/mileage"
	"github.com/gridworks/sheetkit/internal/output"
	"github.com/gridworks/sheetkit/internal/progress"
	"github.com/gridworks/sheetkit/internal/sheets"
)

// NewCommand returns the mileage command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mileage",
		Short: "Log business trips and summarize deductions",
	}

	cmd.AddCommand(newLogCommand())
	cmd.AddCommand(newPlanCommand())
	cmd.AddCommand(newSummaryCommand())

	return cmd
}

func newLog(cfg *config.Config, client *sheets.Client) *mileage.Log {
	return &mileage.Log{
		Client:        client,
		SpreadsheetID: cfg.SpreadsheetID,
		Sheet:         cfg.Mileage.Sheet,
		RatePerMile:   cfg.Mileage.RatePerMile,
	}
}

func newLogCommand() *cobra.Command {
	var (
		origin      string
		destination string
		purpose     string
		milesFlag   string
		date        string
	)

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Log one trip, with distance looked up or given",
		Long: `Log a trip to the mileage sheet. Distance comes from the distance
matrix when --origin and --destination are given, or directly from
--miles. Round trips double the one-way distance with --round-trip.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			roundTrip, _ := cmd.Flags().GetBool("round-trip")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.SpreadsheetID == "" {
				return fmt.Errorf("no spreadsheet configured — run: sheetkit config set spreadsheet_id <id>")
			}

			when := time.Now()
			if date != "" {
				when, err = time.Parse("2006-01-02", date)
				if err != nil {
					return fmt.Errorf("could not parse --date %q (want YYYY-MM-DD)", date)
				}
			}

			var miles float64
			switch {
			case milesFlag != "":
				miles, err = strconv.ParseFloat(milesFlag, 64)
				if err != nil {
					return fmt.Errorf("could not parse --miles %q", milesFlag)
				}
			case origin != "" && destination != "":
				key, err := config.GetAPIKey("maps")
				if err != nil {
					return err
				}
				spin := progress.NewSpinner("Looking up distance")
				spin.Start()
				trip, err := maps.NewClient(key).Distance(cmd.Context(), origin, destination)
				if err != nil {
					spin.Stop("Lookup failed")
					return err
				}
				spin.Stop(fmt.Sprintf("%s → %s: %.1f mi", trip.Origin, trip.Destination, trip.Miles))
				miles = maps.RoundMiles(trip.Miles)
			default:
				return fmt.Errorf("either --miles, or both --origin and --destination, are required")
			}

			if roundTrip {
				miles = maps.RoundMiles(miles * 2)
			}

			ctx := cmd.Context()
			client, err := auth.RequireAuth(ctx)
			if err != nil {
				return err
			}

			entry := mileage.Entry{
				Date:        when,
				Origin:      origin,
				Destination: destination,
				Purpose:     purpose,
				Miles:       miles,
			}
			if err := newLog(cfg, sheets.NewClient(client)).Append(ctx, entry); err != nil {
				return err
			}

			color.New(color.FgGreen).Printf("Logged %.1f miles (%s)\n", miles, purpose)
			return nil
		},
	}

	cmd.Flags().StringVar(&origin, "origin", "", "Trip origin address")
	cmd.Flags().StringVar(&destination, "destination", "", "Trip destination address")
	cmd.Flags().StringVar(&purpose, "purpose", "", "Business purpose of the trip")
	cmd.Flags().StringVar(&milesFlag, "miles", "", "Miles driven (skips the distance lookup)")
	cmd.Flags().StringVar(&date, "date", "", "Trip date as YYYY-MM-DD (default today)")
	cmd.Flags().Bool("round-trip", false, "Double the one-way distance")
	return cmd
}

func newPlanCommand() *cobra.Command {
	var (
		fromDate string
		toDate   string
		dryRun   bool
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Build trip entries from calendar events with locations",
		Long: `Scan the calendar for events that carry a location, compute the
round-trip distance from the configured home base, and append the
resulting entries to the mileage sheet.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.SpreadsheetID == "" {
				return fmt.Errorf("no spreadsheet configured — run: sheetkit config set spreadsheet_id <id>")
			}

			from := time.Now().AddDate(0, 0, -7)
			to := time.Now()
			if fromDate != "" {
				from, err = time.Parse("2006-01-02", fromDate)
				if err != nil {
					return fmt.Errorf("could not parse --from %q (want YYYY-MM-DD)", fromDate)
				}
			}
			if toDate != "" {
				to, err = time.Parse("2006-01-02", toDate)
				if err != nil {
					return fmt.Errorf("could not parse --to %q (want YYYY-MM-DD)", toDate)
				}
				to = to.AddDate(0, 0, 1) // include the whole end day
			}

			mapsKey, err := config.GetAPIKey("maps")
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			client, err := auth.RequireAuth(ctx)
			if err != nil {
				return err
			}

			spin := progress.NewSpinner("Reading calendar")
			spin.Start()
			events, err := gcal.NewClient(client).Events(ctx, from, to)
			if err != nil {
				spin.Stop("Calendar read failed")
				return err
			}
			located := gcal.WithLocation(events)
			spin.Stop(fmt.Sprintf("%d event(s), %d with locations", len(events), len(located)))

			planner := &mileage.Planner{
				Maps:     maps.NewClient(mapsKey),
				HomeBase: cfg.Mileage.HomeBase,
			}
			entries, err := planner.FromEvents(ctx, events)
			if err != nil {
				return err
			}

			if len(entries) == 0 {
				fmt.Println("No events with locations in the window")
				return nil
			}

			if dryRun {
				fmt.Printf("[DRY-RUN] Would log %d trip(s):\n", len(entries))
				for _, e := range entries {
					fmt.Printf("  %s  %.1f mi  %s\n", e.Date.Format("2006-01-02"), e.Miles, e.Purpose)
				}
				return nil
			}

			log := newLog(cfg, sheets.NewClient(client))
			for _, e := range entries {
				if err := log.Append(ctx, e); err != nil {
					return fmt.Errorf("could not log trip %q: %w", e.Purpose, err)
				}
			}

			color.New(color.FgGreen).Printf("Logged %d trip(s)\n", len(entries))
			return nil
		},
	}

	cmd.Flags().StringVar(&fromDate, "from", "", "Window start as YYYY-MM-DD (default 7 days ago)")
	cmd.Flags().StringVar(&toDate, "to", "", "Window end as YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show trips without logging them")
	return cmd
}

func newSummaryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Summarize logged miles and deductions by month",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.SpreadsheetID == "" {
				return fmt.Errorf("no spreadsheet configured — run: sheetkit config set spreadsheet_id <id>")
			}

			ctx := cmd.Context()
			client, err := auth.RequireAuth(ctx)
			if err != nil {
				return err
			}

			log := newLog(cfg, sheets.NewClient(client))
			entries, err := log.Entries(ctx)
			if err != nil {
				return err
			}
			summaries := mileage.Summarize(entries, cfg.Mileage.RatePerMile)

			jsonFlag, _ := cmd.Flags().GetBool("json")
			if jsonFlag {
				return output.PrintJSON("mileage summary", summaries)
			}

			if len(summaries) == 0 {
				fmt.Println("No trips logged")
				return nil
			}
			fmt.Printf("%-10s %6s %10s %12s\n", "Month", "Trips", "Miles", "Deduction")
			var totalMiles, totalDeduction float64
			for _, s := range summaries {
				fmt.Printf("%-10s %6d %10.1f %12.2f\n", s.Month, s.Trips, s.Miles, s.Deduction)
				totalMiles += s.Miles
				totalDeduction += s.Deduction
			}
			fmt.Printf("%-10s %6s %10.1f %12.2f\n", "Total", "", totalMiles, totalDeduction)
			return nil
		},
	}
}
