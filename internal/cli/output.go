package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/flyeazy/flyeazy-client/internal/models"
	"github.com/flyeazy/flyeazy-client/internal/seatmap"
)

func table(w io.Writer, header string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, header)
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	return tw.Flush()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printFlights(w io.Writer, flights []models.Flight) error {
	rows := make([][]string, 0, len(flights))
	for _, f := range flights {
		rows = append(rows, []string{
			f.ID, f.FlightNumber,
			f.Route.DepartureCode() + "-" + f.Route.ArrivalCode(),
			f.DepartureDay, f.DepartureTime + "-" + f.ArrivalTime,
			fmt.Sprintf("%.2f", f.BasePrice), string(f.Status),
		})
	}
	return table(w, "ID\tFLIGHT\tROUTE\tDAY\tTIME\tPRICE\tSTATUS", rows)
}

func printBookings(w io.Writer, bookings []models.Booking) error {
	rows := make([][]string, 0)
	for _, b := range bookings {
		for _, t := range b.Tickets {
			checked := ""
			if t.IsCheckedIn {
				checked = "yes"
			}
			rows = append(rows, []string{
				b.ID, string(b.BookingStatus), t.ID,
				t.FirstName + " " + t.LastName, t.FlightID, t.DepartureDate,
				t.SeatNumber, string(t.FlightStatus), checked,
			})
		}
	}
	return table(w, "BOOKING\tSTATUS\tTICKET\tPASSENGER\tFLIGHT\tDATE\tSEAT\tFLIGHT STATUS\tCHECKED IN", rows)
}

// printSeatMap draws the cabin: "." available, "x" booked, "*" selected
func printSeatMap(w io.Writer, seats []models.Seat) {
	fmt.Fprintf(w, "    %s\n", strings.Join(strings.Split(seatmap.Columns, ""), " "))
	for i := 0; i < len(seats); i += len(seatmap.Columns) {
		row := seats[i : i+len(seatmap.Columns)]
		marks := make([]string, len(row))
		for j, s := range row {
			switch s.Status {
			case models.SeatStatusBooked:
				marks[j] = "x"
			case models.SeatStatusSelected:
				marks[j] = "*"
			default:
				marks[j] = "."
			}
		}
		fmt.Fprintf(w, "%3d %s\n", row[0].Row, strings.Join(marks, " "))
	}
}
