package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/flyeazy/flyeazy-client/internal/models"
	"github.com/flyeazy/flyeazy-client/internal/navigation"
	"github.com/flyeazy/flyeazy-client/internal/service"
	"github.com/flyeazy/flyeazy-client/internal/workflows"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"
)

func newFlightsCmd(e *env) *cobra.Command {
	cmd := view(&cobra.Command{
		Use:   "flights",
		Short: "List and manage flights",
		RunE: func(cmd *cobra.Command, args []string) error {
			flights := e.app.Services.Flights
			if err := flights.FetchAll(cmd.Context()); err != nil {
				return err
			}
			return printFlights(cmd.OutOrStdout(), flights.Items())
		},
	}, navigation.PathFlights)

	cmd.AddCommand(
		newFlightShowCmd(e),
		newFlightAddCmd(e),
		newFlightUpdateCmd(e),
		newFlightCancelCmd(e),
	)
	return cmd
}

func newFlightShowCmd(e *env) *cobra.Command {
	return view(&cobra.Command{
		Use:   "show FLIGHT_ID",
		Short: "Show one flight",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := e.app.Services.Flights.FetchByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if f == nil {
				return fmt.Errorf("flight %s not found", args[0])
			}
			return printJSON(cmd.OutOrStdout(), f)
		},
	}, navigation.PathFlights)
}

func newFlightAddCmd(e *env) *cobra.Command {
	var in models.NewFlight
	cmd := view(&cobra.Command{
		Use:   "add",
		Short: "Create a flight (admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := e.app.Services.Flights.Add(cmd.Context(), in)
			if err != nil {
				return err
			}
			if f == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Created flight %s\n", in.FlightNumber)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created flight %s (%s)\n", f.FlightNumber, f.ID)
			return nil
		},
	}, navigation.PathAdmin)
	fl := cmd.Flags()
	fl.StringVar(&in.FlightNumber, "number", "", "flight number, e.g. FE101")
	fl.StringVar(&in.RouteID, "route", "", "route id")
	fl.StringVar(&in.DepartureDay, "day", "", "weekday of departure")
	fl.StringVar(&in.DepartureTime, "departs", "", "departure time (HH:MM)")
	fl.StringVar(&in.ArrivalTime, "arrives", "", "arrival time (HH:MM)")
	fl.StringVar(&in.OperatingPeriod.StartDate, "from", "", "first operating date (YYYY-MM-DD)")
	fl.StringVar(&in.OperatingPeriod.EndDate, "until", "", "last operating date (YYYY-MM-DD)")
	fl.IntVar(&in.TotalSeats, "seats", 192, "seat count")
	fl.Float64Var(&in.BasePrice, "price", 0, "base ticket price")
	return cmd
}

func newFlightUpdateCmd(e *env) *cobra.Command {
	var status, departs, arrives string
	var price float64
	cmd := view(&cobra.Command{
		Use:   "update FLIGHT_ID",
		Short: "Change a flight's schedule, price or status (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := map[string]any{}
			if status != "" {
				patch["status"] = status
			}
			if departs != "" {
				patch["departureTime"] = departs
			}
			if arrives != "" {
				patch["arrivalTime"] = arrives
			}
			if price > 0 {
				patch["basePrice"] = price
			}
			if len(patch) == 0 {
				return fmt.Errorf("nothing to update")
			}
			f, err := e.app.Services.Flights.Update(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			if f == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Flight updated")
				return nil
			}
			return printFlights(cmd.OutOrStdout(), []models.Flight{*f})
		},
	}, navigation.PathAdmin)
	cmd.Flags().StringVar(&status, "status", "", "Scheduled, Delayed or Completed")
	cmd.Flags().StringVar(&departs, "departs", "", "new departure time")
	cmd.Flags().StringVar(&arrives, "arrives", "", "new arrival time")
	cmd.Flags().Float64Var(&price, "price", 0, "new base price")
	return cmd
}

func newFlightCancelCmd(e *env) *cobra.Command {
	var yes, durable bool
	var timeout time.Duration
	cmd := view(&cobra.Command{
		Use:   "cancel FLIGHT_ID",
		Short: "Cancel a flight and every booking on it (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if durable {
				return e.cancelDurable(cmd, args[0], yes, timeout)
			}
			return e.cancelLocal(cmd, args[0], yes)
		},
	}, navigation.PathAdmin)
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	cmd.Flags().BoolVar(&durable, "durable", false, "run the cancellation as a Temporal workflow")
	cmd.Flags().DurationVar(&timeout, "confirm-timeout", workflows.DefaultConfirmTimeout, "how long a durable cancellation waits for the answer")
	return cmd
}

func (e *env) confirmer(cmd *cobra.Command, yes bool) service.Confirmer {
	return service.ConfirmFunc(func(_ context.Context, flightID string, affected []models.Booking) (bool, error) {
		if yes {
			return true, nil
		}
		return e.askCancellation(cmd, flightID, affected)
	})
}

func (e *env) askCancellation(cmd *cobra.Command, flightID string, affected []models.Booking) (bool, error) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Flight %s has %d booking(s):\n", flightID, len(affected))
	if err := printBookings(out, affected); err != nil {
		return false, err
	}
	return e.confirm(cmd, "Cancel these bookings and the flight?")
}

func (e *env) cancelLocal(cmd *cobra.Command, flightID string, yes bool) error {
	report, err := e.app.Services.Flights.CancelFlight(cmd.Context(), flightID, e.confirmer(cmd, yes))
	if report != nil && len(report.CancelledBookings) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Cancelled bookings: %v\n", report.CancelledBookings)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Flight %s cancelled\n", flightID)
	return nil
}

func (e *env) cancelDurable(cmd *cobra.Command, flightID string, yes bool, timeout time.Duration) error {
	ctx := cmd.Context()
	c, err := e.app.DialTemporal()
	if err != nil {
		return err
	}
	defer c.Close()

	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        "cancel-flight-" + flightID + "-" + uuid.NewString(),
		TaskQueue: e.app.Config.Temporal.TaskQueue,
	}, workflows.FlightCancellationWorkflow, workflows.CancellationInput{FlightID: flightID, ConfirmTimeout: timeout})
	if err != nil {
		return fmt.Errorf("start cancellation workflow: %w", err)
	}
	log := e.app.Log.With(zap.String("workflowId", run.GetID()), zap.String("flightId", flightID))
	log.Info("Cancellation workflow started")
	fmt.Fprintf(cmd.OutOrStdout(), "Started workflow %s\n", run.GetID())

	state, err := awaitDecisionPoint(ctx, c, run)
	if err != nil {
		return err
	}
	if state.Status == workflows.StatusAwaitingConfirmation {
		ok := yes
		if !ok {
			if ok, err = e.askCancellation(cmd, flightID, state.Affected); err != nil {
				return err
			}
		}
		if err := c.SignalWorkflow(ctx, run.GetID(), run.GetRunID(), workflows.ConfirmSignal,
			workflows.ConfirmCancellation{Confirm: ok}); err != nil {
			return fmt.Errorf("send confirmation: %w", err)
		}
		log.Info("Confirmation sent", zap.Bool("confirm", ok))
	}

	var final workflows.CancellationState
	if err := run.Get(ctx, &final); err != nil {
		return fmt.Errorf("cancellation workflow: %w", err)
	}
	return reportDurable(cmd, &final)
}

// awaitDecisionPoint polls the workflow state until the bookings are loaded
func awaitDecisionPoint(ctx context.Context, c client.Client, run client.WorkflowRun) (*workflows.CancellationState, error) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		// the query fails until the first workflow task has run
		if resp, err := c.QueryWorkflow(ctx, run.GetID(), run.GetRunID(), workflows.QueryState); err == nil {
			var st workflows.CancellationState
			if err := resp.Get(&st); err != nil {
				return nil, fmt.Errorf("decode workflow state: %w", err)
			}
			if st.Status != workflows.StatusLoading {
				return &st, nil
			}
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func reportDurable(cmd *cobra.Command, st *workflows.CancellationState) error {
	out := cmd.OutOrStdout()
	if len(st.CancelledBookings) > 0 {
		fmt.Fprintf(out, "Cancelled bookings: %v\n", st.CancelledBookings)
	}
	switch st.Status {
	case workflows.StatusCompleted:
		fmt.Fprintf(out, "Flight %s cancelled\n", st.FlightID)
		return nil
	case workflows.StatusDeclined:
		return fmt.Errorf("flight cancellation declined")
	case workflows.StatusTimedOut:
		return fmt.Errorf("no confirmation received, flight %s left unchanged", st.FlightID)
	}
	return fmt.Errorf("cancellation failed at %q: %s", st.FailedStep, st.FailureReason)
}
