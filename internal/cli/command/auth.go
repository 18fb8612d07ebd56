package command

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/stockvoice-go/internal/cli/api"
	"github.com/yndnr/stockvoice-go/internal/cli/output"
	"github.com/yndnr/stockvoice-go/internal/cli/session"
)

func emailFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "email",
		Aliases:  []string{"e"},
		Usage:    "Account email",
		Required: true,
	}
}

func passwordFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "password",
		Aliases:  []string{"p"},
		Usage:    "Account password",
		EnvVars:  []string{"STOCKVOICE_PASSWORD"},
		Required: true,
	}
}

// RegisterCommand returns the register command.
func RegisterCommand() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "Create an account and sign in",
		Flags: []cli.Flag{
			emailFlag(),
			passwordFlag(),
			&cli.StringFlag{
				Name:     "confirm-password",
				Usage:    "Repeat the password",
				Required: true,
			},
		},
		Action: registerAction,
	}
}

func registerAction(c *cli.Context) error {
	_, svc, err := serviceFrom(c)
	if err != nil {
		return err
	}

	res, err := svc.Register(c.Context, api.RegisterInput{
		Email:           c.String("email"),
		Password:        c.String("password"),
		ConfirmPassword: c.String("confirm-password"),
	})
	if err != nil {
		return err
	}

	printMessage(c, res.Message)
	if res.Established {
		fmt.Fprintf(c.App.Writer, "Signed in as %s\n", res.Session.UserEmail)
	} else {
		fmt.Fprintln(c.App.Writer, "Account created. Sign in with `stockvoice-cli login`.")
	}
	return nil
}

// LoginCommand returns the login command.
func LoginCommand() *cli.Command {
	return &cli.Command{
		Name:   "login",
		Usage:  "Sign in and store the session",
		Flags:  []cli.Flag{emailFlag(), passwordFlag()},
		Action: loginAction,
	}
}

func loginAction(c *cli.Context) error {
	_, svc, err := serviceFrom(c)
	if err != nil {
		return err
	}

	res, err := svc.Login(c.Context, api.Credentials{
		Email:    c.String("email"),
		Password: c.String("password"),
	})
	if err != nil {
		return err
	}

	printMessage(c, res.Message)
	fmt.Fprintf(c.App.Writer, "Signed in as %s\n", res.Session.UserEmail)
	return nil
}

// LogoutCommand returns the logout command.
func LogoutCommand() *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Forget the stored session",
		Action: logoutAction,
	}
}

func logoutAction(c *cli.Context) error {
	_, svc, err := serviceFrom(c)
	if err != nil {
		return err
	}

	if svc.State() == session.Anonymous {
		fmt.Fprintln(c.App.Writer, "Not signed in")
		return nil
	}
	if err := svc.Logout(); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	fmt.Fprintln(c.App.Writer, "Signed out")
	return nil
}

// WhoamiCommand returns the whoami command.
func WhoamiCommand() *cli.Command {
	return &cli.Command{
		Name:   "whoami",
		Usage:  "Show the stored session",
		Action: whoamiAction,
	}
}

// identityView is the printable form of api.Identity.
type identityView struct {
	State     string     `json:"state" yaml:"state"`
	UserID    string     `json:"userId,omitempty" yaml:"userId,omitempty"`
	Email     string     `json:"email,omitempty" yaml:"email,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty" yaml:"expiresAt,omitempty"`
	Expired   bool       `json:"expired,omitempty" yaml:"expired,omitempty"`
}

func newIdentityView(id api.Identity, now time.Time) identityView {
	v := identityView{
		State:  id.State.String(),
		UserID: id.Session.UserID,
		Email:  id.Session.UserEmail,
	}
	if !id.ExpiresAt.IsZero() {
		exp := id.ExpiresAt
		v.ExpiresAt = &exp
		v.Expired = id.Expired(now)
	}
	return v
}

func (v identityView) Table(bool) *output.Table {
	expires := ""
	if v.ExpiresAt != nil {
		expires = v.ExpiresAt.Local().Format("2006-01-02 15:04")
		if v.Expired {
			expires += " (expired)"
		}
	}
	return output.KeyValue(
		[2]string{"STATE", v.State},
		[2]string{"USER ID", v.UserID},
		[2]string{"EMAIL", v.Email},
		[2]string{"EXPIRES", expires},
	)
}

func whoamiAction(c *cli.Context) error {
	_, svc, err := serviceFrom(c)
	if err != nil {
		return err
	}
	return render(c, newIdentityView(svc.Whoami(), time.Now()))
}

// printMessage prints a backend message when there is one.
func printMessage(c *cli.Context, msg string) {
	if msg != "" {
		fmt.Fprintln(c.App.Writer, msg)
	}
}
