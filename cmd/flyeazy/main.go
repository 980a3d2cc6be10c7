package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/flyeazy/flyeazy-client/internal/apperr"
	"github.com/flyeazy/flyeazy-client/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := cli.Execute(ctx, cli.DefaultApp, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, "Error:", apperr.Message(err))
	if apperr.IsAuth(err) {
		fmt.Fprintln(os.Stderr, "Run 'flyeazy login' to sign in.")
	}
	stop()
	os.Exit(1)
}
