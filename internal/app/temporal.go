package app

import (
	"fmt"

	"github.com/flyeazy/flyeazy-client/internal/logger"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"
)

// DialTemporal connects to the configured Temporal frontend
func (a *App) DialTemporal() (client.Client, error) {
	c, err := client.Dial(client.Options{
		HostPort:  a.Config.Temporal.HostPort,
		Namespace: a.Config.Temporal.Namespace,
		Logger:    logger.NewTemporalAdapter(a.Log.With(zap.String("component", "temporal"))),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to Temporal at %s: %w", a.Config.Temporal.HostPort, err)
	}
	return c, nil
}
