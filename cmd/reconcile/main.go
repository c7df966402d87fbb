// Command reconcile runs one payment reconciliation pass against Xendit and exits.
//
//	reconcile --days 3 --batch 500
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"nutrifarm-backend/internal/domains/order/model"
	"nutrifarm-backend/internal/shared"
	"nutrifarm-backend/pkg/container"
	"nutrifarm-backend/pkg/logger"
)

type options struct {
	days  int
	batch int
}

func parseFlags(args []string) (options, error) {
	var opts options

	fs := pflag.NewFlagSet("reconcile", pflag.ContinueOnError)
	fs.IntVar(&opts.days, "days", model.DefaultLookbackDays, "how many days back to look for pending orders (minimum 1)")
	fs.IntVar(&opts.batch, "batch", model.DefaultBatchSize, "maximum number of orders to check")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	if opts.days < 1 {
		opts.days = 1
	}
	return opts, nil
}

// flagExitCode maps a parse error to the process status; --help is not a failure.
func flagExitCode(err error) int {
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	return 2
}

func main() {
	_ = godotenv.Load()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	logger.Init(env)

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		code := flagExitCode(err)
		if code != 0 {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(code)
	}

	if err := run(opts); err != nil {
		logger.Error("reconciliation failed", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := container.NewContainer(ctx)
	if err != nil {
		return fmt.Errorf("initialize container: %w", err)
	}
	defer c.Cleanup()

	result, err := c.ReconcileService.ReconcilePendingOrders(ctx, model.ReconcileOptions{
		LookbackDays: opts.days,
		BatchSize:    opts.batch,
		Trigger:      string(shared.TriggerCLI),
	})
	if err != nil {
		return err
	}

	if result.Skipped {
		logger.Warn("another reconciliation run holds the lock, nothing done", nil)
		return nil
	}

	// per-order errors are in the log; they do not fail the command
	logger.Info("reconciliation complete", map[string]interface{}{
		"days":       opts.days,
		"candidates": result.Candidates,
		"paid":       result.Paid,
		"expired":    result.Expired,
		"failed":     result.Failed,
		"errors":     result.Errors,
		"duration":   result.FinishedAt.Sub(result.StartedAt).String(),
	})
	return nil
}
