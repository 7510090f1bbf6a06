package alerts

import (
	"context"
	"errors"
	"time"

	"vbudget/internal/amqp"
	"vbudget/internal/core"
	"vbudget/internal/log"
	"vbudget/internal/store"
)

// Publisher hands fired alerts to the delivery side. *amqp.Client
// satisfies it.
type Publisher interface {
	PublishAlert(ctx context.Context, msg *amqp.AlertMessage) error
}

// Notifier re-evaluates a user's rules after their transactions change.
type Notifier struct {
	rules     store.RuleStore
	publisher Publisher
	logger    *log.Logger
	loc       *time.Location
	now       func() time.Time
}

// NewNotifier builds a notifier. A nil publisher disables publishing; rules
// are still evaluated and fired alerts logged.
func NewNotifier(rules store.RuleStore, publisher Publisher, logger *log.Logger, loc *time.Location) *Notifier {
	return &Notifier{
		rules:     rules,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentAlerts),
		loc:       loc,
		now:       time.Now,
	}
}

// Check evaluates owner's rules against txs and publishes what fired. It
// returns the fired alerts; publish failures are joined into the error but
// do not stop the remaining alerts.
func (n *Notifier) Check(ctx context.Context, owner core.User, txs []core.Transaction) ([]Alert, error) {
	rules, err := n.rules.ListRules(ctx, owner.ID)
	if err != nil {
		return nil, err
	}
	now := n.now()
	fired := Evaluate(txs, rules, now, n.loc)
	day := core.Today(now, n.loc)

	var errs []error
	for _, a := range fired {
		n.logger.InfoContext(ctx, "Alert triggered",
			log.FieldUserID, owner.ID,
			log.FieldRuleID, a.Rule.ID,
			log.FieldAlertType, a.Rule.AlertType,
			log.FieldAmount, a.Value.String())
		if n.publisher == nil {
			continue
		}
		msg := amqp.NewAlertMessage(owner, a.Rule, a.Value, day)
		if err := n.publisher.PublishAlert(ctx, msg); err != nil {
			n.logger.WarnContext(ctx, "Failed to publish alert",
				log.FieldOperation, log.OpPublish,
				log.FieldRuleID, a.Rule.ID,
				log.FieldError, err)
			errs = append(errs, err)
		}
	}
	return fired, errors.Join(errs...)
}
