package cli

import (
	"bufio"
	"context"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/iliyamo/seat-booking/internal/api"
	"github.com/iliyamo/seat-booking/internal/client"
)

func (a *app) seatsCmd() *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "seats",
		Short: "Show the seat map",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.ctx(cmd.Context())
			defer cancel()
			seats, err := a.api.Seats(ctx, a.sess)
			if err != nil {
				return a.check(err)
			}
			if list {
				renderSeatList(a.out, seats)
				return nil
			}
			return a.showMap(ctx, seats)
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "print a flat list instead of the map")
	return cmd
}

func (a *app) seatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seat <id>",
		Short: "Show one seat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil || id == 0 {
				return fmt.Errorf("invalid seat id %q", args[0])
			}
			ctx, cancel := a.ctx(cmd.Context())
			defer cancel()
			seat, err := a.api.Seat(ctx, a.sess, id)
			if err != nil {
				if client.IsNotFound(err) {
					return fmt.Errorf("seat %d does not exist", id)
				}
				return a.check(err)
			}
			renderSeatList(a.out, []api.Seat{seat})
			return nil
		},
	}
}

// watchCmd redraws the seat map on every poll until interrupted.
func (a *app) watchCmd() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the seat map up to date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.sess.Valid() {
				return a.check(client.ErrNoSession)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var mine map[uint64]bool
			fatal := make(chan error, 1)
			p := client.NewPoller(a.api, a.sess, client.PollerConfig{
				Interval: interval,
				Timeout:  a.cfg.RequestTimeout,
				OnUpdate: func(seats []api.Seat) {
					mctx, cancel := a.ctx(ctx)
					held, err := a.api.MyBooking(mctx, a.sess)
					cancel()
					if err == nil {
						mine = idSet(held)
					}
					fmt.Fprint(a.out, "\033[H\033[2J")
					a.printf("%s  every %s, Enter to refresh, Ctrl+C to quit\n", time.Now().Format(time.TimeOnly), interval)
					renderSeatMap(a.out, seats, mine)
				},
				OnError: func(err error) {
					if client.IsUnauthorized(err) {
						select {
						case fatal <- err:
						default:
						}
						return
					}
					a.printf("%s %v\n", color.YellowString("refresh failed:"), err)
				},
			})
			p.Start(ctx)
			defer p.Stop()
			go func() {
				in := bufio.NewScanner(cmd.InOrStdin())
				for in.Scan() {
					p.Refresh()
				}
			}()

			select {
			case <-ctx.Done():
				return nil
			case err := <-fatal:
				return a.check(err)
			}
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", a.cfg.PollInterval, "refresh period")
	return cmd
}

// showMap renders seats with the caller's own seats marked.  A nil seats
// fetches a fresh snapshot first.
func (a *app) showMap(ctx context.Context, seats []api.Seat) error {
	if seats == nil {
		var err error
		if seats, err = a.api.Seats(ctx, a.sess); err != nil {
			return a.check(err)
		}
	}
	mine, err := a.api.MyBooking(ctx, a.sess)
	if err != nil {
		return a.check(err)
	}
	renderSeatMap(a.out, seats, idSet(mine))
	return nil
}
