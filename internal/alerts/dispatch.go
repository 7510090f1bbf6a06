package alerts

import (
	"context"
	"strings"
	"time"

	"vbudget/internal/amqp"
	"vbudget/internal/cache"
	"vbudget/internal/core"
	"vbudget/internal/log"
)

// Dispatcher delivers an alert to its recipients.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg *amqp.AlertMessage) error
}

// LogDispatcher writes each delivery to the log instead of sending it.
type LogDispatcher struct {
	logger *log.Logger
}

func NewLogDispatcher(logger *log.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger.WithComponent(log.ComponentWorker)}
}

func (d *LogDispatcher) Dispatch(ctx context.Context, msg *amqp.AlertMessage) error {
	channels := make([]string, len(msg.Channels))
	for i, c := range msg.Channels {
		channels[i] = c.Label()
	}
	for _, r := range msg.Recipients {
		d.logger.InfoContext(ctx, "Delivering alert",
			log.FieldRuleID, msg.RuleID,
			log.FieldAlertType, msg.AlertType.Label(),
			"recipient", r.Name,
			"contact", r.Contact,
			"channels", strings.Join(channels, ", "),
			"threshold", core.FormatCurrency(msg.Threshold),
			"value", core.FormatCurrency(msg.Value))
	}
	return nil
}

// Deduper remembers delivered alerts so a rule fires at most once per owner
// per day within the window.
type Deduper struct {
	seen *cache.LRUCache[time.Time]
}

func NewDeduper(maxEntries int, window time.Duration) *Deduper {
	return &Deduper{seen: cache.NewLRUCache[time.Time](maxEntries, window)}
}

func (d *Deduper) Seen(key string) bool {
	_, ok := d.seen.Get(key)
	return ok
}

func (d *Deduper) Mark(key string) {
	d.seen.Set(key, time.Now())
}

// CleanExpired drops entries older than the window.
func (d *Deduper) CleanExpired() int { return d.seen.CleanExpired() }

// Handler returns the consumer callback: duplicates are acknowledged and
// skipped, everything else goes to the dispatcher. A failed dispatch is not
// remembered so the redelivery is attempted again.
func Handler(deduper *Deduper, dispatcher Dispatcher, logger *log.Logger) func(context.Context, *amqp.AlertMessage) error {
	logger = logger.WithComponent(log.ComponentWorker)
	return func(ctx context.Context, msg *amqp.AlertMessage) error {
		key := msg.DedupeKey()
		if deduper.Seen(key) {
			logger.DebugContext(ctx, "Skipping duplicate alert", log.FieldRuleID, msg.RuleID, "key", key)
			return nil
		}
		if err := dispatcher.Dispatch(ctx, msg); err != nil {
			return err
		}
		deduper.Mark(key)
		return nil
	}
}
