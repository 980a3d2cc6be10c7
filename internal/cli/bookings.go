package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/flyeazy/flyeazy-client/internal/models"
	"github.com/flyeazy/flyeazy-client/internal/navigation"
	"github.com/flyeazy/flyeazy-client/internal/seatmap"
	"github.com/spf13/cobra"
)

func newBookingsCmd(e *env) *cobra.Command {
	var email string
	var all bool
	cmd := view(&cobra.Command{
		Use:   "bookings",
		Short: "List and make bookings",
		RunE: func(cmd *cobra.Command, args []string) error {
			bookings := e.app.Services.Bookings
			var list []models.Booking
			var err error
			switch {
			case all:
				if err = e.enter(cmd, navigation.PathAdmin); err != nil {
					return err
				}
				err = bookings.FetchAll(cmd.Context())
				list = bookings.Items()
			case email != "":
				list, err = bookings.ByEmail(cmd.Context(), email)
			default:
				list, err = bookings.ForCurrentUser(cmd.Context())
			}
			if err != nil {
				return err
			}
			return printBookings(cmd.OutOrStdout(), list)
		},
	}, navigation.PathBookings)
	cmd.Flags().StringVar(&email, "email", "", "list the bookings made with this email")
	cmd.Flags().BoolVar(&all, "all", false, "list every booking (admin)")

	cmd.AddCommand(newBookingCreateCmd(e), newBookingCancelCmd(e))
	return cmd
}

// parsePassenger reads "First,Last,gender"
func parsePassenger(s string) (first, last, gender string, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("passenger %q: want First,Last,gender", s)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts[0], parts[1], parts[2], nil
}

func newBookingCreateCmd(e *env) *cobra.Command {
	var flightID, date, policyName string
	var passengers, seats []string
	cmd := view(&cobra.Command{
		Use:   "create",
		Short: "Book seats on a flight",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if len(passengers) == 0 {
				return fmt.Errorf("at least one --passenger is required")
			}
			if policyName == "" {
				policyName = e.app.Config.App.SeatPolicy
			}
			policy, err := seatmap.ParsePolicy(policyName)
			if err != nil {
				return err
			}

			flight, err := e.app.Services.Flights.FetchByID(ctx, flightID)
			if err != nil {
				return err
			}
			if flight == nil {
				return fmt.Errorf("flight %s not found", flightID)
			}
			if flight.Status == models.FlightStatusCancelled {
				return fmt.Errorf("flight %s is cancelled", flight.FlightNumber)
			}

			booked := e.app.Services.Tickets.BookedSeats(ctx, flight.ID, date)
			sel := seatmap.NewSelection(booked, len(passengers), policy)
			for _, s := range seats {
				if err := sel.Select(s); err != nil {
					return err
				}
			}
			if !sel.Complete() {
				return fmt.Errorf("%d passenger(s) but %d seat(s) selected", len(passengers), len(sel.Selected()))
			}

			tickets := make([]models.NewTicket, len(passengers))
			for i, p := range passengers {
				first, last, gender, err := parsePassenger(p)
				if err != nil {
					return err
				}
				tickets[i] = models.NewTicket{
					FirstName: first, LastName: last, Gender: gender,
					TicketPrice: flight.BasePrice, FlightID: flight.ID, DepartureDate: date,
				}
			}
			if err := sel.Apply(tickets); err != nil {
				return err
			}

			booking, err := e.app.Services.Bookings.Create(ctx, models.NewBooking{
				TotalPrice:      flight.BasePrice * float64(len(tickets)),
				NumberOfTickets: len(tickets),
				Tickets:         tickets,
			})
			if err != nil {
				return err
			}
			if booking == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Booking created")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Booking %s created for %s on %s, seats %s\n",
				booking.ID, flight.FlightNumber, date, strings.Join(sel.Slots(), ", "))
			return nil
		},
	}, navigation.PathBookings)
	f := cmd.Flags()
	f.StringVar(&flightID, "flight", "", "flight id")
	f.StringVar(&date, "date", "", "departure date (YYYY-MM-DD)")
	f.StringArrayVar(&passengers, "passenger", nil, "passenger as First,Last,gender (repeatable)")
	f.StringSliceVar(&seats, "seat", nil, "seat per passenger in order, e.g. 12A,12B")
	f.StringVar(&policyName, "seat-policy", "", "reject or evict when more seats than passengers are picked")
	_ = cmd.MarkFlagRequired("flight")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func newBookingCancelCmd(e *env) *cobra.Command {
	return view(&cobra.Command{
		Use:   "cancel BOOKING_ID",
		Short: "Cancel one of your bookings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.app.Services.Bookings.Cancel(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Booking %s cancelled\n", args[0])
			return nil
		},
	}, navigation.PathBookings)
}

func newSeatsCmd(e *env) *cobra.Command {
	var picks []string
	var watch bool
	cmd := view(&cobra.Command{
		Use:   "seats FLIGHT_ID DATE",
		Short: "Show the seat map of a flight on a date",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			render := func(booked []string) error {
				seats := seatmap.Compute(booked)
				if len(picks) > 0 {
					policy, err := seatmap.ParsePolicy(e.app.Config.App.SeatPolicy)
					if err != nil {
						return err
					}
					sel := seatmap.NewSelection(booked, len(picks), policy)
					for _, p := range picks {
						if err := sel.Select(p); err != nil {
							return err
						}
					}
					seats = sel.View()
				}
				printSeatMap(out, seats)
				fmt.Fprintf(out, "%d of %d seats booked\n", len(booked), len(seats))
				return nil
			}

			if !watch {
				return render(e.app.Services.Tickets.BookedSeats(cmd.Context(), args[0], args[1]))
			}
			ctx, leave := e.follow(cmd)
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()
			var renderErr error
			err := e.app.Services.Tickets.WatchBookedSeats(ctx, args[0], args[1], func(booked []string) {
				if renderErr != nil {
					return
				}
				fmt.Fprintf(out, "\n[%s]\n", time.Now().Format("15:04:05"))
				if renderErr = render(booked); renderErr != nil {
					cancel()
				}
			})
			if left := leave(); left != nil {
				return left
			}
			if renderErr != nil {
				return renderErr
			}
			return err
		},
	}, navigation.PathBookings)
	cmd.Flags().StringSliceVar(&picks, "select", nil, "mark seats as selected, e.g. 3A,3B")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep the map open and redraw it when seats change")
	return cmd
}
