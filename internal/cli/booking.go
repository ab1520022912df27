package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/iliyamo/seat-booking/internal/api"
	"github.com/iliyamo/seat-booking/internal/client"
)

func (a *app) bookCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "book <count>",
		Short: fmt.Sprintf("Book 1 to %d seats", api.MaxPartySize),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("count must be a whole number, got %q", args[0])
			}
			ctx, cancel := a.ctx(cmd.Context())
			defer cancel()
			res, err := a.api.Book(ctx, a.sess, n)
			switch {
			case err == nil:
			case client.IsInvalidCount(err):
				return fmt.Errorf("you can book between 1 and %d seats at a time", api.MaxPartySize)
			case client.IsInsufficientSeats(err):
				var apiErr *client.APIError
				errors.As(err, &apiErr)
				if mapErr := a.showMap(ctx, nil); mapErr != nil {
					return mapErr
				}
				return errors.New(apiErr.Message)
			default:
				return a.check(err)
			}
			a.printf("%s %s\n", color.GreenString("✓"), res.Message)
			a.printf("seats: %s\n", seatLabels(res.Seats))
			return nil
		},
	}
}

func (a *app) cancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Release every seat you hold",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.ctx(cmd.Context())
			defer cancel()
			res, err := a.api.Cancel(ctx, a.sess)
			if err != nil {
				return a.check(err)
			}
			a.printf("%s (%d released)\n", res.Message, res.Released)
			return nil
		},
	}
}

func (a *app) mineCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "mine",
		Aliases: []string{"booking"},
		Short:   "List the seats you hold",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.ctx(cmd.Context())
			defer cancel()
			seats, err := a.api.MyBooking(ctx, a.sess)
			if err != nil {
				return a.check(err)
			}
			if len(seats) == 0 {
				a.printf("you hold no seats\n")
				return nil
			}
			renderSeatList(a.out, seats)
			return nil
		},
	}
}
