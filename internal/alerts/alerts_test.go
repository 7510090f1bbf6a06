package alerts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vbudget/internal/amqp"
	"vbudget/internal/core"
	"vbudget/internal/log"
	"vbudget/internal/store/memory"
)

var (
	brt = time.FixedZone("BRT", -3*60*60)
	// 2024-03-31 22:00 BRT is already April in UTC.
	now = time.Date(2024, 4, 1, 1, 0, 0, 0, time.UTC)
)

func tx(kind core.Kind, status core.Status, amount int64, paid string) core.Transaction {
	return core.Transaction{Kind: kind, Status: status, Amount: core.AmountOf(amount), PaidDate: paid, DueDate: "2024-03-01"}
}

func rule(id int64, typ core.AlertType, threshold int64, enabled bool) core.NotificationRule {
	return core.NotificationRule{ID: id, AlertType: typ, Threshold: core.AmountOf(threshold), Enabled: enabled}
}

func TestEvaluate(t *testing.T) {
	txs := []core.Transaction{
		tx(core.Income, core.Paid, 1000, "2024-03-05"),
		tx(core.Expense, core.Paid, 700, "2024-03-31"),
		tx(core.Expense, core.Paid, 200, "2024-02-28"),
		tx(core.Expense, core.Pending, 5000, ""),
	}
	// settled = 1000 - 900 = 100, spent in March (local) = 700

	tests := []struct {
		name  string
		rule  core.NotificationRule
		fires bool
		value core.Amount
	}{
		{"low balance below threshold", rule(1, core.LowBalance, 500, true), true, core.AmountOf(100)},
		{"low balance at threshold", rule(2, core.LowBalance, 100, true), false, core.Amount{}},
		{"spending over limit", rule(3, core.SpendingLimit, 600, true), true, core.AmountOf(700)},
		{"spending at limit", rule(4, core.SpendingLimit, 700, true), false, core.Amount{}},
		{"disabled rule", rule(5, core.LowBalance, 500, false), false, core.Amount{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(txs, []core.NotificationRule{tt.rule}, now, brt)
			if !tt.fires {
				assert.Empty(t, got)
				return
			}
			require.Len(t, got, 1)
			assert.Equal(t, tt.rule.ID, got[0].Rule.ID)
			assert.True(t, tt.value.Equal(got[0].Value), "value = %s", got[0].Value)
		})
	}
}

func TestEvaluateUsesLocalMonth(t *testing.T) {
	txs := []core.Transaction{tx(core.Expense, core.Paid, 700, "2024-04-01")}
	got := Evaluate(txs, []core.NotificationRule{rule(1, core.SpendingLimit, 100, true)}, now, brt)
	assert.Empty(t, got, "April expenses do not count while it is still March locally")

	got = Evaluate(txs, []core.NotificationRule{rule(1, core.SpendingLimit, 100, true)}, now, time.UTC)
	assert.Len(t, got, 1)
}

type recordingPublisher struct {
	msgs []*amqp.AlertMessage
	err  error
}

func (p *recordingPublisher) PublishAlert(_ context.Context, msg *amqp.AlertMessage) error {
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func TestNotifierPublishesFiredRules(t *testing.T) {
	rules := memory.New(true)
	pub := &recordingPublisher{}
	n := NewNotifier(rules, pub, log.Discard(), brt)
	n.now = func() time.Time { return now }

	owner := core.User{ID: 7, Name: "ana"}
	// Seeded rules: low balance 500 and spending limit 3000.
	txs := []core.Transaction{tx(core.Expense, core.Paid, 3500, "2024-03-20")}

	fired, err := n.Check(context.Background(), owner, txs)
	require.NoError(t, err)
	assert.Len(t, fired, 2)
	require.Len(t, pub.msgs, 2)
	for _, m := range pub.msgs {
		assert.Equal(t, int64(7), m.OwnerID)
		assert.Equal(t, "2024-03-31", m.Day)
		assert.NotEmpty(t, m.Recipients)
	}
}

func TestNotifierJoinsPublishErrors(t *testing.T) {
	boom := errors.New("circuit breaker is open")
	n := NewNotifier(memory.New(true), &recordingPublisher{err: boom}, log.Discard(), brt)
	n.now = func() time.Time { return now }

	fired, err := n.Check(context.Background(), core.User{ID: 1}, nil)
	assert.Len(t, fired, 1, "an empty history is below the low balance threshold")
	assert.ErrorIs(t, err, boom)
}

func TestNotifierWithoutPublisher(t *testing.T) {
	n := NewNotifier(memory.New(false), nil, log.Discard(), brt)
	fired, err := n.Check(context.Background(), core.User{ID: 1}, nil)
	require.NoError(t, err)
	assert.Empty(t, fired)
}

type flakyDispatcher struct {
	calls int
	err   error
}

func (d *flakyDispatcher) Dispatch(context.Context, *amqp.AlertMessage) error {
	d.calls++
	return d.err
}

func TestHandlerDeduplicatesPerDay(t *testing.T) {
	d := &flakyDispatcher{}
	handle := Handler(NewDeduper(10, time.Hour), d, log.Discard())
	msg := &amqp.AlertMessage{RuleID: 1, OwnerID: 2, AlertType: core.LowBalance, Day: "2024-03-10"}

	require.NoError(t, handle(context.Background(), msg))
	require.NoError(t, handle(context.Background(), msg))
	assert.Equal(t, 1, d.calls)

	next := *msg
	next.Day = "2024-03-11"
	require.NoError(t, handle(context.Background(), &next))
	assert.Equal(t, 2, d.calls)
}

func TestHandlerRetriesFailedDispatch(t *testing.T) {
	d := &flakyDispatcher{err: errors.New("smtp down")}
	handle := Handler(NewDeduper(10, time.Hour), d, log.Discard())
	msg := &amqp.AlertMessage{RuleID: 1, OwnerID: 2, AlertType: core.LowBalance, Day: "2024-03-10"}

	assert.Error(t, handle(context.Background(), msg))
	d.err = nil
	assert.NoError(t, handle(context.Background(), msg))
	assert.Equal(t, 2, d.calls)
}

func TestLogDispatcher(t *testing.T) {
	msg := &amqp.AlertMessage{
		RuleID: 1, AlertType: core.SpendingLimit,
		Channels:   []core.Channel{core.ChannelEmail},
		Recipients: []core.Recipient{{Name: "João", Contact: "joao@email.com"}},
	}
	assert.NoError(t, NewLogDispatcher(log.Discard()).Dispatch(context.Background(), msg))
}
