package cli

import (
	"fmt"
	"strings"

	"github.com/flyeazy/flyeazy-client/internal/models"
	"github.com/flyeazy/flyeazy-client/internal/navigation"
	"github.com/spf13/cobra"
)

func newRoutesCmd(e *env) *cobra.Command {
	cmd := view(&cobra.Command{
		Use:   "routes",
		Short: "List and manage routes",
		RunE: func(cmd *cobra.Command, args []string) error {
			routes := e.app.Services.Routes
			if err := routes.FetchAll(cmd.Context()); err != nil {
				return err
			}
			rows := [][]string{}
			for _, r := range routes.Items() {
				rows = append(rows, []string{r.ID, r.DepartureCode(), r.ArrivalCode(), r.Duration})
			}
			return table(cmd.OutOrStdout(), "ID\tFROM\tTO\tDURATION", rows)
		},
	}, navigation.PathFlights)

	var in models.NewRoute
	add := view(&cobra.Command{
		Use:   "add",
		Short: "Create a route between two airports (admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := e.app.Services.Routes.Add(cmd.Context(), in)
			if err != nil {
				return err
			}
			if r == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Route created")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created route %s (%s-%s)\n", r.ID, r.DepartureCode(), r.ArrivalCode())
			return nil
		},
	}, navigation.PathAdmin)
	add.Flags().StringVar(&in.DepartureAirportID, "from", "", "departure airport id or code")
	add.Flags().StringVar(&in.ArrivalAirportID, "to", "", "arrival airport id or code")
	add.Flags().StringVar(&in.Duration, "duration", "", "flight duration, e.g. 2h15m")

	del := view(&cobra.Command{
		Use:   "delete ROUTE_ID",
		Short: "Delete a route (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.app.Services.Routes.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted route %s\n", args[0])
			return nil
		},
	}, navigation.PathAdmin)

	cmd.AddCommand(add, del)
	return cmd
}

func newAirportsCmd(e *env) *cobra.Command {
	cmd := view(&cobra.Command{
		Use:   "airports",
		Short: "List and manage airports",
		RunE: func(cmd *cobra.Command, args []string) error {
			airports := e.app.Services.Airports
			if err := airports.FetchAll(cmd.Context()); err != nil {
				return err
			}
			rows := [][]string{}
			for _, a := range airports.Items() {
				rows = append(rows, []string{a.ID, a.Code, a.Name, a.City, a.Country})
			}
			return table(cmd.OutOrStdout(), "ID\tCODE\tNAME\tCITY\tCOUNTRY", rows)
		},
	}, navigation.PathFlights)

	show := view(&cobra.Command{
		Use:   "show CODE",
		Short: "Look an airport up by IATA code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.app.Services.Airports.FetchByCode(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if a == nil {
				return fmt.Errorf("no airport with code %s", strings.ToUpper(args[0]))
			}
			return printJSON(cmd.OutOrStdout(), a)
		},
	}, navigation.PathFlights)

	var in models.Airport
	add := view(&cobra.Command{
		Use:   "add",
		Short: "Create an airport (admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Code = strings.ToUpper(in.Code)
			a, err := e.app.Services.Airports.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			if a == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Created airport %s\n", in.Code)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created airport %s (%s)\n", a.Code, a.ID)
			return nil
		},
	}, navigation.PathAdmin)
	add.Flags().StringVar(&in.Code, "code", "", "IATA code")
	add.Flags().StringVar(&in.Name, "name", "", "airport name")
	add.Flags().StringVar(&in.City, "city", "", "city")
	add.Flags().StringVar(&in.Country, "country", "", "country")

	del := view(&cobra.Command{
		Use:   "delete AIRPORT_ID",
		Short: "Delete an airport no route uses (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			airports := e.app.Services.Airports
			// the code lookup in the route check needs the list
			if err := airports.FetchAll(cmd.Context()); err != nil {
				return err
			}
			if err := airports.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted airport %s\n", args[0])
			return nil
		},
	}, navigation.PathAdmin)

	cmd.AddCommand(show, add, del)
	return cmd
}
