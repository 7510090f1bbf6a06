// Package alerts decides which notification rules fire for a user's
// transactions and carries the fired alerts to the worker.
package alerts

import (
	"time"

	"vbudget/internal/core"
)

// Alert is a rule that fired together with the value that tripped it.
type Alert struct {
	Rule  core.NotificationRule
	Value core.Amount
}

// Evaluate checks every enabled rule against txs. A low balance rule fires
// when the settled balance is below its threshold; a spending limit fires
// when the expenses paid in the current local month exceed it.
func Evaluate(txs []core.Transaction, rules []core.NotificationRule, now time.Time, loc *time.Location) []Alert {
	var (
		alerts  []Alert
		settled = core.Summarize(txs).Settled()
		spent   = core.PaidExpensesInMonth(txs, now, loc)
	)
	for _, r := range rules {
		if !r.Enabled {
			continue
		}
		switch r.AlertType {
		case core.LowBalance:
			if settled.LessThan(r.Threshold) {
				alerts = append(alerts, Alert{Rule: r, Value: settled})
			}
		case core.SpendingLimit:
			if spent.GreaterThan(r.Threshold) {
				alerts = append(alerts, Alert{Rule: r, Value: spent})
			}
		}
	}
	return alerts
}
