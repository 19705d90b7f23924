// Package leads provides the "sheetkit leads" ingestion commands.
package leads

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gridworks/sheetkit/internal/auth"
	"github.com/gridworks/sheetkit/internal/config"
	"github.com/gridworks/sheetkit/internal/leads"
	"github.com/gridworks/sheetkit/internal/mail"
	"github.com/gridworks/sheetkit/internal/output"
	"github.com/gridworks/sheetkit/internal/progress"
	"github.com/gridworks/sheetkit/internal/sheets"
)

// NewCommand returns the leads command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leads",
		Short: "Ingest and list sales leads",
		Long: `Pull lead-notification emails from the inbox, parse out name, email,
phone and source, dedupe against the leads sheet, and append the new rows.`,
	}

	cmd.AddCommand(newIngestCommand())
	cmd.AddCommand(newListCommand())

	return cmd
}

func newIngestCommand() *cobra.Command {
	var (
		fromFilter    string
		subjectFilter string
		sinceDays     int
		limit         int
		markRead      bool
		dryRun        bool
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest leads from unread inbox messages",
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
			mailClient := mail.NewClient(client)

			filter := mail.InboxFilter{
				From:       fromFilter,
				Subject:    subjectFilter,
				UnreadOnly: true,
				Limit:      limit,
			}
			if sinceDays > 0 {
				filter.Since = time.Now().AddDate(0, 0, -sinceDays)
			}

			spin := progress.NewSpinner("Checking inbox")
			spin.Start()
			messages, err := mailClient.ListInbox(ctx, filter)
			if err != nil {
				spin.Stop("Inbox check failed")
				return err
			}
			spin.Stop(fmt.Sprintf("Found %d unread message(s)", len(messages)))

			var candidates []leads.Lead
			for _, msg := range messages {
				body, err := mailClient.GetBody(ctx, msg.ID)
				if err != nil {
					fmt.Fprintf(os.Stderr, "skipping %s: %v\n", msg.ID, err)
					continue
				}
				lead, err := leads.ParseEmailBody(body)
				if err != nil {
					fmt.Fprintf(os.Stderr, "skipping %q: %v\n", msg.Subject, err)
					continue
				}
				lead.Received = msg.Date
				lead.MessageID = msg.ID
				candidates = append(candidates, *lead)
			}

			if len(candidates) == 0 {
				fmt.Println("No parsable leads found")
				return nil
			}

			if dryRun {
				fmt.Printf("[DRY-RUN] Would ingest %d lead(s):\n", len(candidates))
				for _, l := range candidates {
					fmt.Printf("  %s <%s> (%s)\n", l.Name, l.Email, l.Source)
				}
				return nil
			}

			ingestor := &leads.Ingestor{
				Client:        sheets.NewClient(client),
				SpreadsheetID: cfg.SpreadsheetID,
				Sheet:         cfg.Leads.Sheet,
				Range:         cfg.Leads.Sheet + "!" + cfg.Leads.Range,
			}
			added, skipped, err := ingestor.Ingest(ctx, candidates)
			if err != nil {
				return err
			}

			if markRead {
				for _, l := range added {
					if l.MessageID == "" {
						continue
					}
					if err := mailClient.MarkAsRead(ctx, l.MessageID); err != nil {
						fmt.Fprintf(os.Stderr, "could not mark %s as read: %v\n", l.MessageID, err)
					}
				}
			}

			jsonFlag, _ := cmd.Flags().GetBool("json")
			if jsonFlag {
				return output.PrintJSON("leads ingest", map[string]any{
					"added":   added,
					"skipped": skipped,
				})
			}

			color.New(color.FgGreen).Printf("Added %d lead(s), skipped %d duplicate(s)\n", len(added), skipped)
			for _, l := range added {
				fmt.Printf("  %s <%s>\n", l.Name, l.Email)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&fromFilter, "from", "", "Only messages from this sender")
	cmd.Flags().StringVar(&subjectFilter, "subject", "", "Only messages with this subject text")
	cmd.Flags().IntVar(&sinceDays, "since", 7, "Only messages from the last N days")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum messages to scan")
	cmd.Flags().BoolVar(&markRead, "mark-read", false, "Mark ingested messages as read")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Parse and report without touching the sheet")
	return cmd
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the rows of the leads sheet",
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

			rangeA1 := cfg.Leads.Sheet + "!" + cfg.Leads.Range
			rows, err := sheets.NewClient(client).ReadRows(ctx, cfg.SpreadsheetID, rangeA1)
			if err != nil {
				return err
			}

			jsonFlag, _ := cmd.Flags().GetBool("json")
			if jsonFlag {
				return output.PrintJSON("leads list", map[string]any{
					"range": rangeA1,
					"rows":  rows,
				})
			}

			for _, row := range rows {
				fmt.Println(strings.Join(row, "\t"))
			}
			return nil
		},
	}
}
