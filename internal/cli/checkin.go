package cli

import (
	"fmt"
	"os"

	"github.com/flyeazy/flyeazy-client/internal/archive"
	"github.com/flyeazy/flyeazy-client/internal/models"
	"github.com/flyeazy/flyeazy-client/internal/navigation"
	"github.com/spf13/cobra"
)

func newCheckInCmd(e *env) *cobra.Command {
	var data models.CheckInData
	var pdfPath, htmlPath string
	cmd := view(&cobra.Command{
		Use:   "checkin TICKET_ID",
		Short: "Check in a ticket and print the boarding pass",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			bookings, err := e.app.Services.Bookings.ForCurrentUser(ctx)
			if err != nil {
				return err
			}
			ticket, ok := findTicket(bookings, args[0])
			if !ok {
				return fmt.Errorf("ticket %s is not in your bookings", args[0])
			}
			if ticket.IsCheckedIn {
				return fmt.Errorf("ticket %s is already checked in", ticket.ID)
			}
			flight, err := e.app.Services.Flights.FetchByID(ctx, ticket.FlightID)
			if err != nil {
				return err
			}
			if flight == nil {
				return fmt.Errorf("flight %s of ticket %s no longer exists", ticket.FlightID, ticket.ID)
			}

			res, err := e.app.Services.CheckIns.CheckIn(ctx, ticket, *flight, data)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Checked in %s on %s, seat %s\n", res.Pass.PassengerName, res.Pass.FlightNumber, res.Pass.SeatNumber)
			if res.Archived != nil {
				fmt.Fprintf(out, "Boarding pass archived as %s\n", res.Archived.TicketID)
			}

			if htmlPath != "" {
				if err := os.WriteFile(htmlPath, []byte(res.HTML), 0o644); err != nil {
					return fmt.Errorf("write boarding pass: %w", err)
				}
				fmt.Fprintf(out, "Wrote %s\n", htmlPath)
			}
			if pdfPath != "" {
				pdf, err := res.Pass.PDF()
				if err != nil {
					return err
				}
				if err := os.WriteFile(pdfPath, pdf, 0o644); err != nil {
					return fmt.Errorf("write boarding pass: %w", err)
				}
				fmt.Fprintf(out, "Wrote %s\n", pdfPath)
			}
			return nil
		},
	}, navigation.PathCheckIn)
	f := cmd.Flags()
	f.StringVar(&data.PassportNumber, "passport", "", "passport number")
	f.StringVar(&data.DateOfBirth, "dob", "", "date of birth (YYYY-MM-DD)")
	f.StringVar(&data.Nationality, "nationality", "", "nationality")
	f.StringVar(&data.ExpirationDate, "expires", "", "passport expiration date (YYYY-MM-DD)")
	f.StringVar(&htmlPath, "html", "", "also write the boarding pass HTML to this file")
	f.StringVar(&pdfPath, "pdf", "", "also write the boarding pass as PDF to this file")
	return cmd
}

func findTicket(bookings []models.Booking, id string) (models.Ticket, bool) {
	for _, b := range bookings {
		for _, t := range b.Tickets {
			if t.ID == id {
				return t, true
			}
		}
	}
	return models.Ticket{}, false
}

func newTicketsCmd(e *env) *cobra.Command {
	cmd := view(&cobra.Command{
		Use:   "tickets",
		Short: "List archived boarding passes",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := e.archived(cmd)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(list))
			for _, t := range list {
				rows = append(rows, []string{t.TicketID, t.PassengerName, t.ExpirationDate, t.CreatedAt.Local().Format("2006-01-02 15:04")})
			}
			return table(cmd.OutOrStdout(), "ARCHIVE ID\tPASSENGER\tPASSPORT EXPIRES\tCHECKED IN", rows)
		},
	}, navigation.PathCheckIn)

	export := view(&cobra.Command{
		Use:   "export DIR",
		Short: "Write every archived boarding pass to DIR as HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := e.archived(cmd)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tickets to export")
				return nil
			}
			paths, err := archive.Export(list, args[0])
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return err
		},
	}, navigation.PathCheckIn)

	cmd.AddCommand(export)
	return cmd
}

func (e *env) archived(cmd *cobra.Command) ([]models.ArchivedTicket, error) {
	sess, err := e.app.Session.GetSessionOrFail()
	if err != nil {
		return nil, err
	}
	return e.app.Archive.List(cmd.Context(), sess.UserID)
}
