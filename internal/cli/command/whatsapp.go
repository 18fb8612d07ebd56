package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/time/rate"

	"github.com/yndnr/stockvoice-go/internal/cli/api"
	"github.com/yndnr/stockvoice-go/internal/cli/gateway"
	"github.com/yndnr/stockvoice-go/internal/cli/output"
)

// DefaultPollInterval paces whatsapp qr --watch.
const DefaultPollInterval = 5 * time.Second

// WhatsAppCommand returns the whatsapp command group.
func WhatsAppCommand() *cli.Command {
	return &cli.Command{
		Name:    "whatsapp",
		Aliases: []string{"wa"},
		Usage:   "Pair the bot with a WhatsApp number",
		Subcommands: []*cli.Command{
			{
				Name:   "connect",
				Usage:  "Start pairing and show the QR or pairing code",
				Action: whatsappConnect,
			},
			{
				Name:   "disconnect",
				Usage:  "Unlink the WhatsApp number",
				Action: whatsappDisconnect,
			},
			{
				Name:  "qr",
				Usage: "Show the current QR or pairing code",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "watch",
						Usage: "Keep polling until pairing completes",
					},
					&cli.DurationFlag{
						Name:  "interval",
						Usage: "Polling interval with --watch",
						Value: DefaultPollInterval,
					},
				},
				Action: whatsappQR,
			},
		},
	}
}

// artifactView is the structured form of a pairing artifact.
type artifactView struct {
	Kind        string `json:"kind" yaml:"kind"`
	Message     string `json:"message,omitempty" yaml:"message,omitempty"`
	QRCode      string `json:"qrCode,omitempty" yaml:"qrCode,omitempty"`
	PairingCode string `json:"pairingCode,omitempty" yaml:"pairingCode,omitempty"`
}

// showArtifact draws the artifact on a terminal, or prints it structured
// for json and yaml output.
func showArtifact(c *cli.Context, a api.PairingArtifact) error {
	if !tableOutput(c) {
		return render(c, artifactView{
			Kind:        a.Kind().String(),
			Message:     a.Message,
			QRCode:      a.QRCode,
			PairingCode: a.PairingCode,
		})
	}

	w := c.App.Writer
	switch a.Kind() {
	case api.ArtifactPairingCode:
		output.RenderPairingCode(w, a.PairingCode)
	case api.ArtifactQRCode:
		output.RenderQR(w, a.QRCode)
		fmt.Fprintln(w, "Scan the code with WhatsApp > Linked devices > Link a device")
	default:
		if a.Message == "" {
			fmt.Fprintln(w, "No pairing code available: WhatsApp is connected or the code is still being prepared")
			return nil
		}
	}
	printMessage(c, a.Message)
	return nil
}

func whatsappConnect(c *cli.Context) error {
	_, svc, err := serviceFrom(c)
	if err != nil {
		return err
	}

	spin := output.NewSpinner(c.App.ErrWriter, "Requesting pairing code...")
	spin.Start()
	a, err := svc.ConnectWhatsApp(c.Context)
	if err != nil {
		spin.Fail("Pairing request failed")
		return err
	}
	spin.Success("Pairing requested")
	return showArtifact(c, a)
}

func whatsappDisconnect(c *cli.Context) error {
	_, svc, err := serviceFrom(c)
	if err != nil {
		return err
	}

	msg, err := svc.DisconnectWhatsApp(c.Context)
	if err != nil {
		return err
	}
	if msg == "" {
		msg = "WhatsApp disconnected"
	}
	fmt.Fprintln(c.App.Writer, msg)
	return nil
}

func whatsappQR(c *cli.Context) error {
	rt, svc, err := serviceFrom(c)
	if err != nil {
		return err
	}

	if !c.Bool("watch") {
		a, err := svc.FetchPairingArtifact(c.Context)
		if err != nil {
			return err
		}
		return showArtifact(c, a)
	}

	interval := c.Duration("interval")
	if interval <= 0 {
		return fmt.Errorf("--interval must be positive, got %s", interval)
	}

	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	limiter := rate.NewLimiter(rate.Every(interval), 1)

	var last api.PairingArtifact
	seen := false
	for {
		if err := limiter.Wait(ctx); err != nil {
			// Interrupted.
			return nil
		}

		a, err := svc.FetchPairingArtifact(ctx)
		switch {
		case err == nil:
		case errors.Is(err, context.Canceled):
			return nil
		case gateway.IsTransport(err):
			rt.Logger.Warn("pairing poll failed", "error", err)
			fmt.Fprintf(c.App.ErrWriter, "warning: %s, retrying\n", gateway.UserMessage(err))
			continue
		default:
			return err
		}

		if seen && a.Kind() == api.ArtifactNone && last.Kind() != api.ArtifactNone {
			printMessage(c, a.Message)
			fmt.Fprintln(c.App.Writer, "Pairing completed")
			return nil
		}
		if !seen || a != last {
			if err := showArtifact(c, a); err != nil {
				return err
			}
		}
		last, seen = a, true
	}
}
