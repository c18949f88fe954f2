package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aussiebroadwan/kinde/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := app.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize application: %v\n", err)
		return 1
	}
	defer application.Close()

	if err := application.Run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, app.ErrUsage) {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}
