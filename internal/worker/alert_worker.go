// Package worker runs the alert delivery side: it consumes AlertTriggered
// messages, drops the ones already delivered today and dispatches the rest.
package worker

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"vbudget/internal/alerts"
	"vbudget/internal/amqp"
	"vbudget/internal/log"
)

// Consumer feeds alert messages to a handler until ctx is done.
// *amqp.Client satisfies it.
type Consumer interface {
	ConsumeAlerts(ctx context.Context, handler func(context.Context, *amqp.AlertMessage) error) error
}

// AlertWorker handles delivery of fired alerts.
type AlertWorker struct {
	consumer        Consumer
	deduper         *alerts.Deduper
	handle          func(context.Context, *amqp.AlertMessage) error
	cleanupInterval time.Duration
	logger          *log.Logger
}

func NewAlertWorker(consumer Consumer, dispatcher alerts.Dispatcher, deduper *alerts.Deduper, cleanupInterval time.Duration, logger *log.Logger) *AlertWorker {
	if cleanupInterval <= 0 {
		cleanupInterval = time.Hour
	}
	return &AlertWorker{
		consumer:        consumer,
		deduper:         deduper,
		handle:          alerts.Handler(deduper, dispatcher, logger),
		cleanupInterval: cleanupInterval,
		logger:          logger.WithComponent(log.ComponentWorker),
	}
}

// Run consumes until ctx is cancelled or the consumer gives up. Cancellation
// is a clean stop and returns nil.
func (w *AlertWorker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	consumeDone := make(chan struct{})
	g.Go(func() error {
		defer close(consumeDone)
		return w.consumer.ConsumeAlerts(ctx, w.handle)
	})

	g.Go(func() error {
		ticker := time.NewTicker(w.cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-consumeDone:
				return nil
			case <-ticker.C:
				if n := w.deduper.CleanExpired(); n > 0 {
					w.logger.Debug("Expired dedupe entries removed", "removed", n)
				}
			}
		}
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	if err != nil {
		w.logger.Error("Alert consumption failed", log.FieldError, err)
	}
	return err
}
