package modactivator

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/multierr"
)

// Run starts every module, waits for SIGINT, SIGTERM or ctx cancellation,
// then shuts everything down. The returned error combines dependency errors
// and every hook failure of both operations.
func (o *Orchestrator) Run(ctx context.Context) error {
	started, err := o.StartAll(ctx)
	if err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		o.logger.Info("Received signal, shutting down", "signal", sig)
	case <-ctx.Done():
		o.logger.Info("Context done, shutting down", "reason", ctx.Err())
	}

	// The start context may be cancelled already; hooks still run to completion.
	stopped, err := o.Shutdown(context.WithoutCancel(ctx))
	return multierr.Combine(started.Err(), err, stopped.Err())
}
