// Command ratecollector prints NBP buy/sell exchange rates for the last N days.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"ratecollector/internal/app"
	"ratecollector/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)

	code := cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr, app.New)
	stop()
	os.Exit(code)
}
