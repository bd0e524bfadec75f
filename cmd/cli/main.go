// Command fgadmin is the operator CLI for the admin service.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pratik-mahalle/adminservice/internal/cli"
	"github.com/pratik-mahalle/adminservice/pkg/client"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx)
	stop()
	if err == nil {
		return
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	var apiErr *client.APIError
	switch {
	case errors.Is(err, context.Canceled):
		os.Exit(130)
	case errors.As(err, &apiErr) && apiErr.IsUnauthorized():
		fmt.Fprintln(os.Stderr, "Run 'fgadmin auth login' to sign in again.")
		os.Exit(2)
	}
	os.Exit(1)
}
