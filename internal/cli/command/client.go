package command

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/yndnr/stockvoice-go/internal/cli/api"
	"github.com/yndnr/stockvoice-go/internal/cli/output"
)

// ClientCommand returns the client command group.
func ClientCommand() *cli.Command {
	return &cli.Command{
		Name:  "client",
		Usage: "Integration configuration (webhook, plan, WhatsApp JID)",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the integration configuration",
				Action: clientShow,
			},
			{
				Name:  "save",
				Usage: "Create or update the integration configuration",
				Description: "Starts from the stored configuration, then applies --file, then the flags.\n" +
					"The configuration is updated, or created when none exists yet.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "YAML or JSON file with the configuration fields",
					},
					&cli.StringFlag{Name: "jid", Usage: "WhatsApp JID of the bot number"},
					&cli.StringFlag{Name: "company", Usage: "Company name"},
					&cli.StringFlag{Name: "webhook-url", Usage: "Inventory webhook URL"},
					&cli.StringFlag{Name: "webhook-method", Usage: "Webhook method: POST or PUT"},
					&cli.StringFlag{Name: "webhook-format", Usage: "Webhook body: JSON or FORM_DATA"},
					&cli.StringFlag{Name: "api-token", Usage: "Token sent to the webhook"},
					&cli.StringFlag{Name: "plan", Usage: "Plan: free, basic or premium"},
				},
				Action: clientSave,
			},
		},
	}
}

// clientView is the printable form of api.ClientConfig.
type clientView struct {
	api.ClientConfig `yaml:",inline"`
}

func (v clientView) Table(wide bool) *output.Table {
	token := ""
	if v.APIToken != "" {
		token = "***"
		if wide {
			token = v.APIToken
		}
	}
	return output.KeyValue(
		[2]string{"USER ID", v.UserID},
		[2]string{"COMPANY", v.CompanyName},
		[2]string{"WHATSAPP JID", v.WhatsAppJID},
		[2]string{"WEBHOOK URL", v.WebhookURL},
		[2]string{"WEBHOOK METHOD", v.WebhookMethod},
		[2]string{"WEBHOOK FORMAT", v.WebhookFormat},
		[2]string{"API TOKEN", token},
		[2]string{"PLAN", v.Plan},
	)
}

func clientShow(c *cli.Context) error {
	_, svc, err := serviceFrom(c)
	if err != nil {
		return err
	}

	cfg, err := svc.GetClientConfig(c.Context)
	if errors.Is(err, api.ErrNoConfig) {
		fmt.Fprintln(c.App.Writer, "No integration configuration registered. Create one with `stockvoice-cli client save`.")
		return nil
	}
	if err != nil {
		return err
	}
	return render(c, clientView{*cfg})
}

func clientSave(c *cli.Context) error {
	_, svc, err := serviceFrom(c)
	if err != nil {
		return err
	}

	var cfg api.ClientConfig
	current, err := svc.GetClientConfig(c.Context)
	switch {
	case err == nil:
		cfg = *current
	case !errors.Is(err, api.ErrNoConfig):
		return err
	}

	if path := c.String("file"); path != "" {
		if err := readClientFile(path, &cfg); err != nil {
			return err
		}
	}
	applyClientFlags(c, &cfg)

	res, err := svc.SaveClientConfig(c.Context, cfg)
	if err != nil {
		return err
	}

	printMessage(c, res.Message)
	fmt.Fprintf(c.App.Writer, "Integration configuration %s\n", res.Outcome)
	return nil
}

// readClientFile merges the fields present in a YAML or JSON file into cfg.
func readClientFile(path string, cfg *api.ClientConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func applyClientFlags(c *cli.Context, cfg *api.ClientConfig) {
	fields := []struct {
		flag   string
		target *string
	}{
		{"jid", &cfg.WhatsAppJID},
		{"company", &cfg.CompanyName},
		{"webhook-url", &cfg.WebhookURL},
		{"webhook-method", &cfg.WebhookMethod},
		{"webhook-format", &cfg.WebhookFormat},
		{"api-token", &cfg.APIToken},
		{"plan", &cfg.Plan},
	}
	for _, f := range fields {
		if c.IsSet(f.flag) {
			*f.target = c.String(f.flag)
		}
	}
}
