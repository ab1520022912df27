package cli

import (
	"errors"
	"strings"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/iliyamo/seat-booking/internal/api"
	"github.com/iliyamo/seat-booking/internal/client"
)

// ask prompts for value when it was not given as a flag.
func ask(value *string, label string, secret bool) error {
	if *value != "" {
		return nil
	}
	prompt := promptui.Prompt{
		Label: label,
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New(label + " is required")
			}
			return nil
		},
	}
	if secret {
		prompt.Mask = '*'
	}
	v, err := prompt.Run()
	if err != nil {
		return err
	}
	*value = v
	return nil
}

func (a *app) signupCmd() *cobra.Command {
	var req api.SignupRequest
	cmd := &cobra.Command{
		Use:     "signup",
		Aliases: []string{"signin"},
		Short:   "Create an account",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ask(&req.FirstName, "First name", false); err != nil {
				return err
			}
			if err := ask(&req.Email, "Email", false); err != nil {
				return err
			}
			if err := ask(&req.Password, "Password", true); err != nil {
				return err
			}
			ctx, cancel := a.ctx(cmd.Context())
			defer cancel()
			if err := a.api.Signup(ctx, req); err != nil {
				return err
			}
			a.printf("%s account created, run `seatctl login` to continue\n", color.GreenString("✓"))
			return nil
		},
	}
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&req.Email, "email", "", "email address")
	cmd.Flags().StringVar(&req.Password, "password", "", "password (prompted when empty)")
	return cmd
}

func (a *app) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ask(&email, "Email", false); err != nil {
				return err
			}
			if err := ask(&password, "Password", true); err != nil {
				return err
			}
			ctx, cancel := a.ctx(cmd.Context())
			defer cancel()
			sess, err := a.api.Login(ctx, email, password)
			if err != nil {
				if client.IsInvalidCredentials(err) {
					return errors.New("invalid email or password")
				}
				return err
			}
			if err := a.store.Save(sess); err != nil {
				return err
			}
			a.sess = sess
			a.printf("%s logged in as %s\n", color.GreenString("✓"), sess.User.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when empty)")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session and forget it locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.ctx(cmd.Context())
			defer cancel()
			err := a.api.Logout(ctx, a.sess)
			if clearErr := a.store.Clear(); clearErr != nil {
				return clearErr
			}
			if err != nil && !client.IsUnauthorized(err) {
				return err
			}
			a.printf("logged out\n")
			return nil
		},
	}
}
