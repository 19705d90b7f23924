// Package draft provides the "sheetkit draft" outreach email commands.
package draft

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gridworks/sheetkit/internal/ai"
	"github.com/gridworks/sheetkit/internal/auth"
	"github.com/gridworks/sheetkit/internal/config"
	"github.com/gridworks/sheetkit/internal/mail"
	"github.com/gridworks/sheetkit/internal/output"
	"github.com/gridworks/sheetkit/internal/progress"
	"github.com/gridworks/sheetkit/internal/template"
)

// NewCommand returns the draft command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Compose and send outreach email",
		Long: `Compose outreach email for a lead, either with an AI provider or from
a saved template, and leave it in the drafts folder for review (or send
it directly with --send).`,
	}

	cmd.AddCommand(newComposeCommand())
	cmd.AddCommand(newSendCommand())
	cmd.AddCommand(newTemplatesCommand())

	return cmd
}

func newComposeCommand() *cobra.Command {
	var (
		name         string
		email        string
		company      string
		source       string
		notes        string
		tone         string
		templateName string
		send         bool
	)

	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Compose a draft email for a lead",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return fmt.Errorf("--email is required")
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			var subject, body string
			var model string

			if templateName != "" {
				subject, body, err = applyTemplate(templateName, map[string]string{
					"name":    name,
					"email":   email,
					"company": company,
					"source":  source,
					"notes":   notes,
				})
				if err != nil {
					return err
				}
			} else {
				key, _ := config.GetAPIKey(cfg.Provider)
				provider, err := ai.NewProvider(cfg.Provider, cfg.Model, key)
				if err != nil {
					return err
				}

				if tone == "" {
					tone = cfg.Leads.Tone
				}

				spin := progress.NewSpinner("Drafting with " + provider.Name())
				spin.Start()
				draft, err := ai.ComposeDraft(cmd.Context(), provider, ai.DraftRequest{
					Name:    name,
					Email:   email,
					Company: company,
					Source:  source,
					Notes:   notes,
					Tone:    tone,
					Sender:  cfg.Sender,
				})
				if err != nil {
					spin.Stop("Draft failed")
					return err
				}
				spin.Stop("Draft composed")
				subject, body, model = draft.Subject, draft.Body, draft.Model
			}

			ctx := cmd.Context()
			client, err := auth.RequireAuth(ctx)
			if err != nil {
				return err
			}
			mailClient := mail.NewClient(client)

			msg := mail.OutgoingMessage{
				To:      []string{email},
				Subject: subject,
				Body:    body,
				HTML:    strings.Contains(body, "<"),
			}

			if send {
				if err := mailClient.Send(ctx, msg); err != nil {
					return err
				}
				color.New(color.FgGreen).Printf("Sent %q to %s\n", subject, email)
				return nil
			}

			created, err := mailClient.CreateDraft(ctx, msg)
			if err != nil {
				return err
			}

			jsonFlag, _ := cmd.Flags().GetBool("json")
			if jsonFlag {
				return output.PrintJSON("draft compose", map[string]any{
					"draftId": created.ID,
					"subject": subject,
					"model":   model,
				})
			}

			color.New(color.FgGreen).Printf("Draft %s created: %q\n", created.ID, subject)
			fmt.Println("Review it in your drafts folder, then: sheetkit draft send --id " + created.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Lead name")
	cmd.Flags().StringVar(&email, "email", "", "Lead email (required)")
	cmd.Flags().StringVar(&company, "company", "", "Lead company")
	cmd.Flags().StringVar(&source, "source", "", "Where the lead came from")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-form lead notes for the draft")
	cmd.Flags().StringVar(&tone, "tone", "", "Draft tone (default from config)")
	cmd.Flags().StringVar(&templateName, "template", "", "Use a saved template instead of AI")
	cmd.Flags().BoolVar(&send, "send", false, "Send immediately instead of saving a draft")
	return cmd
}

// applyTemplate renders a library template, using a "subject" variable
// value as the subject when the template declares one.
func applyTemplate(name string, values map[string]string) (subject, body string, err error) {
	lib, err := template.LoadLibrary(template.DefaultLibraryDir())
	if err != nil {
		return "", "", err
	}
	tmpl, err := lib.Get(name)
	if err != nil {
		return "", "", err
	}

	result, err := template.Apply(tmpl.Path, values)
	if err != nil {
		return "", "", err
	}
	if len(result.MissingNames) > 0 {
		fmt.Fprintf(os.Stderr, "template variables left unfilled: %s\n",
			strings.Join(result.MissingNames, ", "))
	}

	body = result.Body
	subject = "Hello"
	if first, rest, ok := strings.Cut(body, "\n"); ok && strings.HasPrefix(first, "Subject:") {
		subject = strings.TrimSpace(strings.TrimPrefix(first, "Subject:"))
		body = strings.TrimLeft(rest, "\n")
	}
	return subject, body, nil
}

func newSendCommand() *cobra.Command {
	var (
		draftID  string
		to       string
		subject  string
		bodyFile string
		useSMTP  bool
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a saved draft, or a one-off message",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if draftID != "" {
				client, err := auth.RequireAuth(ctx)
				if err != nil {
					return err
				}
				if err := mail.NewClient(client).SendDraft(ctx, draftID); err != nil {
					return err
				}
				color.New(color.FgGreen).Printf("Draft %s sent\n", draftID)
				return nil
			}

			if to == "" || subject == "" || bodyFile == "" {
				return fmt.Errorf("either --id, or all of --to, --subject and --body-file are required")
			}
			body, err := os.ReadFile(bodyFile)
			if err != nil {
				return fmt.Errorf("could not read body file: %w", err)
			}

			if useSMTP {
				smtpCfg, err := mail.LoadSMTPConfig()
				if err != nil {
					return err
				}
				err = mail.SendSMTP(smtpCfg, mail.SMTPMessage{
					To:      []string{to},
					Subject: subject,
					Body:    string(body),
					HTML:    strings.Contains(string(body), "<"),
				})
				if err != nil {
					return err
				}
				color.New(color.FgGreen).Printf("Sent %q to %s via SMTP\n", subject, to)
				return nil
			}

			client, err := auth.RequireAuth(ctx)
			if err != nil {
				return err
			}
			err = mail.NewClient(client).Send(ctx, mail.OutgoingMessage{
				To:      []string{to},
				Subject: subject,
				Body:    string(body),
				HTML:    strings.Contains(string(body), "<"),
			})
			if err != nil {
				return err
			}
			color.New(color.FgGreen).Printf("Sent %q to %s\n", subject, to)
			return nil
		},
	}

	cmd.Flags().StringVar(&draftID, "id", "", "Send an existing draft by ID")
	cmd.Flags().StringVar(&to, "to", "", "Recipient address")
	cmd.Flags().StringVar(&subject, "subject", "", "Message subject")
	cmd.Flags().StringVar(&bodyFile, "body-file", "", "File containing the message body")
	cmd.Flags().BoolVar(&useSMTP, "smtp", false, "Send via SMTP instead of the mail API")
	return cmd
}

func newTemplatesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage saved email templates",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := template.LoadLibrary(template.DefaultLibraryDir())
			if err != nil {
				return err
			}
			templates := lib.List()
			if len(templates) == 0 {
				fmt.Println("No templates saved — add one with: sheetkit draft templates add <name> <file>")
				return nil
			}
			for _, t := range templates {
				vars := make([]string, 0, len(t.Variables))
				for _, v := range t.Variables {
					vars = append(vars, v.Name)
				}
				fmt.Printf("%s\t%s\t{{%s}}\n", t.Name, t.Description, strings.Join(vars, "}} {{"))
			}
			return nil
		},
	})

	var description string
	addCmd := &cobra.Command{
		Use:   "add <name> <file>",
		Short: "Add a template file to the library",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := template.LoadLibrary(template.DefaultLibraryDir())
			if err != nil {
				return err
			}
			tmpl, err := lib.Add(args[0], description, args[1])
			if err != nil {
				return err
			}
			fmt.Printf("Added template %q with %d variable(s)\n", tmpl.Name, len(tmpl.Variables))
			return nil
		},
	}
	addCmd.Flags().StringVar(&description, "description", "", "Template description")
	cmd.AddCommand(addCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a template from the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := template.LoadLibrary(template.DefaultLibraryDir())
			if err != nil {
				return err
			}
			if err := lib.Remove(args[0]); err != nil {
				return err
			}
			fmt.Printf("Removed template %q\n", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "vars <name>",
		Short: "Show the variables a template expects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := template.LoadLibrary(template.DefaultLibraryDir())
			if err != nil {
				return err
			}
			tmpl, err := lib.Get(args[0])
			if err != nil {
				return err
			}
			for _, v := range tmpl.Variables {
				fmt.Printf("{{%s}}\n", v.Name)
			}
			return nil
		},
	})

	return cmd
}
