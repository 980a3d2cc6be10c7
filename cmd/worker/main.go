package main

import (
	"context"

	"github.com/flyeazy/flyeazy-client/internal/activities"
	"github.com/flyeazy/flyeazy-client/internal/app"
	"github.com/flyeazy/flyeazy-client/internal/workflows"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, "worker")
	if err != nil {
		panic(err)
	}
	defer a.Close()
	log := a.Log

	// Activities run as whoever is logged in through the CLI; follow logins
	// and logouts made after the worker started.
	go func() {
		if err := a.Session.WatchStorage(ctx); err != nil {
			log.Warn("Session storage watch stopped", zap.Error(err))
		}
	}()
	if !a.Session.IsAdmin() {
		log.Warn("No admin session in state file; cancellation activities will fail until an admin logs in",
			zap.String("state", a.Storage.Path()))
	}

	log.Info("Connecting to Temporal", zap.String("host", a.Config.Temporal.HostPort))
	c, err := a.DialTemporal()
	if err != nil {
		log.Fatal("Failed to connect to Temporal", zap.Error(err))
	}
	defer c.Close()
	log.Info("Connected to Temporal")

	w := worker.New(c, a.Config.Temporal.TaskQueue, worker.Options{})

	w.RegisterWorkflow(workflows.FlightCancellationWorkflow)

	acts := activities.NewActivities(a.Services.Flights)
	w.RegisterActivityWithOptions(acts.FindAffectedBookings, activity.RegisterOptions{Name: activities.FindAffectedBookingsName})
	w.RegisterActivityWithOptions(acts.CancelBookingForFlight, activity.RegisterOptions{Name: activities.CancelBookingForFlightName})
	w.RegisterActivityWithOptions(acts.CancelFlightRemote, activity.RegisterOptions{Name: activities.CancelFlightRemoteName})

	log.Info("Starting Temporal worker", zap.String("taskQueue", a.Config.Temporal.TaskQueue))
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatal("Worker failed", zap.Error(err))
	}
}
