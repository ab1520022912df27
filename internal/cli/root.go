// Package cli implements the seatctl commands on top of the API client.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/iliyamo/seat-booking/internal/client"
	"github.com/iliyamo/seat-booking/internal/config"
)

// app is shared by every command of one invocation.
type app struct {
	cfg   config.ClientConfig
	out   io.Writer
	api   *client.Client
	store *client.SessionStore
	sess  *client.Session // nil until login
}

// NewRootCmd builds the seatctl command tree.  Output goes to out.
func NewRootCmd(cfg config.ClientConfig, out io.Writer) *cobra.Command {
	a := &app{cfg: cfg, out: out}

	root := &cobra.Command{
		Use:           "seatctl",
		Short:         "Book seats from the terminal",
		Long:          `seatctl talks to the seat booking API: sign up, log in, watch the seat map and book or cancel seats.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&a.cfg.APIURL, "api", cfg.APIURL, "base URL of the booking API")
	root.PersistentFlags().StringVar(&a.cfg.SessionFile, "session", cfg.SessionFile, "session file (default: user config dir)")
	root.PersistentFlags().DurationVar(&a.cfg.RequestTimeout, "timeout", cfg.RequestTimeout, "per request timeout")

	root.AddCommand(
		a.signupCmd(),
		a.loginCmd(),
		a.logoutCmd(),
		a.seatsCmd(),
		a.seatCmd(),
		a.watchCmd(),
		a.bookCmd(),
		a.cancelCmd(),
		a.mineCmd(),
		a.profileCmd(),
		a.passwordCmd(),
	)
	return root
}

// Execute runs seatctl with the environment configuration and exits
// non-zero on failure.
func Execute() {
	config.LoadDotEnv()
	cmd := NewRootCmd(config.LoadClientConfig(), os.Stdout)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

func (a *app) init() error {
	store, err := client.NewSessionStore(a.cfg.SessionFile)
	if err != nil {
		return err
	}
	a.store = store
	a.api = client.New(a.cfg.APIURL)

	sess, err := store.Load()
	switch {
	case err == nil && sess.Expired(time.Now()):
		_ = store.Clear()
	case err == nil:
		a.sess = sess
	case errors.Is(err, client.ErrNoSession):
	default:
		// login overwrites it
		fmt.Fprintln(os.Stderr, color.YellowString("ignoring unreadable session:"), err)
	}
	return nil
}

func (a *app) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, a.cfg.RequestTimeout)
}

// check turns an auth failure into a hint and drops the stale session.
func (a *app) check(err error) error {
	if err == nil {
		return nil
	}
	if client.IsUnauthorized(err) {
		_ = a.store.Clear()
		return errors.New("not logged in or session expired, run `seatctl login`")
	}
	return err
}

func (a *app) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.out, format, args...)
}
