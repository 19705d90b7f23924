// Package estimate provides the "sheetkit estimate" accounting commands.
package estimate

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gridworks/sheetkit/internal/auth"
	"github.com/gridworks/sheetkit/internal/config"
	"github.com/gridworks/sheetkit/internal/output"
	"github.com/gridworks/sheetkit/internal/progress"
	"github.com/gridworks/sheetkit/internal/qbo"
)

// NewCommand returns the estimate command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Create QuickBooks estimates",
		Long: `Create QuickBooks estimates from priced line items. Lines come from
--line flags or from stdin as tab-separated "description<TAB>qty<TAB>price"
rows, which is the format sheet.read emits.`,
	}

	cmd.AddCommand(newCreateCommand())
	cmd.AddCommand(newCustomerCommand())

	return cmd
}

func qboClient(cmd *cobra.Command) (*qbo.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.QuickBooks.RealmID == "" {
		return nil, fmt.Errorf("no QuickBooks realm configured — run: sheetkit config set quickbooks.realm_id <id>")
	}

	client, err := auth.RequireAuth(cmd.Context())
	if err != nil {
		return nil, err
	}
	return qbo.NewClient(client, cfg.QuickBooks.RealmID, cfg.QuickBooks.Environment), nil
}

func newCreateCommand() *cobra.Command {
	var (
		customer  string
		lineFlags []string
		fromStdin bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an estimate for a customer",
		Example: `  sheetkit estimate create --customer "Ana Soares" --line "Site survey|1|150" --line "Install|4|85"
  sheetkit sheet read --range 'Estimates!A2:C' | sheetkit estimate create --customer "Ana Soares" --stdin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if customer == "" {
				return fmt.Errorf("--customer is required")
			}

			var lines []qbo.Line
			var err error
			switch {
			case fromStdin:
				lines, err = readStdinLines(os.Stdin)
			case len(lineFlags) > 0:
				lines, err = parseLineFlags(lineFlags)
			default:
				return fmt.Errorf("provide line items via --line or --stdin")
			}
			if err != nil {
				return err
			}

			client, err := qboClient(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			spin := progress.NewSpinner("Looking up customer " + customer)
			spin.Start()
			cust, err := client.FindCustomer(ctx, customer)
			if err != nil {
				spin.Stop("Customer lookup failed")
				return err
			}
			spin.Update("Creating estimate for " + cust.DisplayName)

			est, err := client.CreateEstimate(ctx, cust.ID, lines)
			spin.Stop("Estimate created")
			if err != nil {
				return err
			}

			jsonFlag, _ := cmd.Flags().GetBool("json")
			if jsonFlag {
				return output.PrintJSON("estimate create", est)
			}

			color.New(color.FgGreen).Printf("Estimate %s for %s: $%.2f\n",
				est.DocNumber, cust.DisplayName, est.TotalAmt)
			return nil
		},
	}

	cmd.Flags().StringVar(&customer, "customer", "", "QuickBooks customer display name (required)")
	cmd.Flags().StringArrayVar(&lineFlags, "line", nil, `Line item as "description|qty|price" (repeatable)`)
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "Read tab-separated line items from stdin")
	return cmd
}

// parseLineFlags parses "description|qty|price" flag values.
func parseLineFlags(flags []string) ([]qbo.Line, error) {
	lines := make([]qbo.Line, 0, len(flags))
	for _, f := range flags {
		parts := strings.Split(f, "|")
		if len(parts) != 3 {
			return nil, fmt.Errorf("could not parse line %q — want \"description|qty|price\"", f)
		}
		line, err := buildLine(parts[0], parts[1], parts[2])
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// readStdinLines parses tab-separated rows, the sheet.read output format.
func readStdinLines(r *os.File) ([]qbo.Line, error) {
	var lines []qbo.Line
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		parts := strings.Split(text, "\t")
		if len(parts) < 3 {
			return nil, fmt.Errorf("could not parse line %q — want \"description<TAB>qty<TAB>price\"", text)
		}
		line, err := buildLine(parts[0], parts[1], parts[2])
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("no line items on stdin")
	}
	return lines, scanner.Err()
}

func buildLine(desc, qty, price string) (qbo.Line, error) {
	q, err := strconv.ParseFloat(strings.TrimSpace(qty), 64)
	if err != nil {
		return qbo.Line{}, fmt.Errorf("could not parse quantity %q", qty)
	}
	p, err := strconv.ParseFloat(strings.TrimSpace(price), 64)
	if err != nil {
		return qbo.Line{}, fmt.Errorf("could not parse price %q", price)
	}
	return qbo.Line{
		Description: strings.TrimSpace(desc),
		Quantity:    q,
		UnitPrice:   p,
	}, nil
}

func newCustomerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "customer <display-name>",
		Short: "Look up a QuickBooks customer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := qboClient(cmd)
			if err != nil {
				return err
			}

			cust, err := client.FindCustomer(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			jsonFlag, _ := cmd.Flags().GetBool("json")
			if jsonFlag {
				return output.PrintJSON("estimate customer", cust)
			}

			fmt.Printf("%s\t%s\t%s\n", cust.ID, cust.DisplayName, cust.Email.Address)
			return nil
		},
	}
}
