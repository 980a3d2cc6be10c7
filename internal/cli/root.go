// Package cli implements the flyeazy command tree. Each command group is
// mapped to a navigation view and only runs when the guard lets it in.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/flyeazy/flyeazy-client/internal/app"
	"github.com/flyeazy/flyeazy-client/internal/navigation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const annotationView = "view"

// AppFactory builds the client stack for a command invocation
type AppFactory func(ctx context.Context) (*app.App, error)

// DefaultApp loads configuration from the environment
func DefaultApp(ctx context.Context) (*app.App, error) {
	return app.New(ctx, "flyeazy")
}

type env struct {
	newApp AppFactory
	app    *app.App
	in     *bufio.Reader
}

// Execute runs the command line in args and releases the app afterwards
func Execute(ctx context.Context, newApp AppFactory, args []string, in io.Reader, out, errOut io.Writer) error {
	e := &env{newApp: newApp, in: bufio.NewReader(in)}
	root := newRootCmd(e)
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)
	defer func() {
		if e.app != nil {
			e.app.Close()
		}
	}()
	return root.ExecuteContext(ctx)
}

func newRootCmd(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:           "flyeazy",
		Short:         "FlyEazy flight booking client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.setup(cmd)
		},
	}
	root.AddCommand(
		newLoginCmd(e),
		newLogoutCmd(e),
		newRegisterCmd(e),
		newProfileCmd(e),
		newFlightsCmd(e),
		newRoutesCmd(e),
		newAirportsCmd(e),
		newBookingsCmd(e),
		newSeatsCmd(e),
		newCheckInCmd(e),
		newTicketsCmd(e),
		newCompanyCmd(e),
	)
	return root
}

// view tags cmd with the navigation path it belongs to
func view(cmd *cobra.Command, path string) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[annotationView] = path
	return cmd
}

func (e *env) setup(cmd *cobra.Command) error {
	if e.app == nil {
		a, err := e.newApp(cmd.Context())
		if err != nil {
			return err
		}
		e.app = a
	}
	if path, ok := cmd.Annotations[annotationView]; ok {
		return e.enter(cmd, path)
	}
	return nil
}

// enter navigates to path and refuses to continue when the guard redirects
func (e *env) enter(cmd *cobra.Command, path string) error {
	d := e.app.Guard.Navigate(path)
	if !d.Redirected {
		return nil
	}
	return e.blocked(cmd, d)
}

// follow keeps a long-running command on its view. The returned context ends
// when a session change elsewhere makes the guard move the user away; leave
// stops watching and reports that redirect, if any.
func (e *env) follow(cmd *cobra.Command) (ctx context.Context, leave func() error) {
	ctx, cancel := context.WithCancel(cmd.Context())
	var mu sync.Mutex
	var redirect *navigation.Decision
	e.app.Guard.Watch(ctx, func(d navigation.Decision) {
		mu.Lock()
		redirect = &d
		mu.Unlock()
		cancel()
	})
	go func() {
		if err := e.app.Session.WatchStorage(ctx); err != nil {
			e.app.Log.Warn("Session watcher stopped", zap.Error(err))
		}
	}()
	return ctx, func() error {
		cancel()
		mu.Lock()
		defer mu.Unlock()
		if redirect == nil {
			return nil
		}
		return e.blocked(cmd, *redirect)
	}
}

func (e *env) blocked(cmd *cobra.Command, d navigation.Decision) error {
	e.app.Log.Info("Command blocked by navigation guard",
		zap.String("command", cmd.CommandPath()),
		zap.String("requested", d.Requested),
		zap.String("redirect", d.Route.Path))
	if d.Notice != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), d.Notice)
	}
	if d.Reason != nil {
		return fmt.Errorf("%s: %w", d.Requested, d.Reason)
	}
	return fmt.Errorf("%s is not available", d.Requested)
}

func (e *env) prompt(cmd *cobra.Command, label string) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), label)
	line, err := e.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(label, ": "), err)
	}
	return strings.TrimSpace(line), nil
}

func (e *env) confirm(cmd *cobra.Command, question string) (bool, error) {
	answer, err := e.prompt(cmd, question+" [y/N]: ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
