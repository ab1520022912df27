package cli

import (
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/iliyamo/seat-booking/internal/api"
	"github.com/iliyamo/seat-booking/internal/client"
)

func (a *app) renderUser(u api.User) {
	t := table.NewWriter()
	t.SetOutputMirror(a.out)
	t.AppendRows([]table.Row{
		{"ID", u.ID},
		{"First name", u.FirstName},
		{"Last name", u.LastName},
		{"Email", u.Email},
		{"Country", u.Country},
		{"Contact", u.Contact},
	})
	t.Render()
}

func (a *app) profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show your profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.ctx(cmd.Context())
			defer cancel()
			u, err := a.api.Profile(ctx, a.sess)
			if err != nil {
				return a.check(err)
			}
			a.renderUser(u)
			return nil
		},
	}
	cmd.AddCommand(a.profileUpdateCmd())
	return cmd
}

// profileUpdateCmd changes only the fields given as flags; the rest are
// read from the current profile first.
func (a *app) profileUpdateCmd() *cobra.Command {
	var first, last, country, email, contact string
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change profile fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.ctx(cmd.Context())
			defer cancel()
			cur, err := a.api.Profile(ctx, a.sess)
			if err != nil {
				return a.check(err)
			}
			req := api.ProfileUpdate{
				FirstName: cur.FirstName,
				LastName:  cur.LastName,
				Country:   cur.Country,
				Email:     cur.Email,
				Contact:   cur.Contact,
			}
			f := cmd.Flags()
			if f.Changed("first-name") {
				req.FirstName = first
			}
			if f.Changed("last-name") {
				req.LastName = last
			}
			if f.Changed("country") {
				req.Country = country
			}
			if f.Changed("email") {
				req.Email = email
			}
			if f.Changed("contact") {
				req.Contact = contact
			}
			u, err := a.api.UpdateProfile(ctx, a.sess, req)
			if err != nil {
				return a.check(err)
			}
			if err := a.store.Save(a.sess); err != nil {
				return err
			}
			a.printf("%s profile updated\n", color.GreenString("✓"))
			a.renderUser(u)
			return nil
		},
	}
	cmd.Flags().StringVar(&first, "first-name", "", "first name")
	cmd.Flags().StringVar(&last, "last-name", "", "last name")
	cmd.Flags().StringVar(&country, "country", "", "country")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&contact, "contact", "", "phone or other contact")
	return cmd
}

func (a *app) passwordCmd() *cobra.Command {
	var req api.PasswordReset
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Change your password; other sessions are logged out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ask(&req.CurrentPassword, "Current password", true); err != nil {
				return err
			}
			if err := ask(&req.NewPassword, "New password", true); err != nil {
				return err
			}
			if err := ask(&req.ConfirmPassword, "Confirm new password", true); err != nil {
				return err
			}
			ctx, cancel := a.ctx(cmd.Context())
			defer cancel()
			if err := a.api.ResetPassword(ctx, a.sess, req); err != nil {
				if client.IsInvalidCredentials(err) {
					return err
				}
				return a.check(err)
			}
			a.printf("%s password changed\n", color.GreenString("✓"))
			return nil
		},
	}
	cmd.Flags().StringVar(&req.CurrentPassword, "current", "", "current password (prompted when empty)")
	cmd.Flags().StringVar(&req.NewPassword, "new", "", "new password (prompted when empty)")
	cmd.Flags().StringVar(&req.ConfirmPassword, "confirm", "", "new password again (prompted when empty)")
	return cmd
}
