// Package store defines where notification rules and integrations live.
// The REST API may or may not expose them, so the web server picks a backend
// at startup: in-process memory, a local SQLite file, or the API itself.
package store

import (
	"context"
	"time"

	"vbudget/internal/core"
)

// Ports for outbound adapters. Every call is scoped to the owning user.
type (
	RuleStore interface {
		ListRules(ctx context.Context, owner int64) ([]core.NotificationRule, error)
		GetRule(ctx context.Context, owner, id int64) (core.NotificationRule, error)
		CreateRule(ctx context.Context, owner int64, p core.NotificationRulePayload) (core.NotificationRule, error)
		UpdateRule(ctx context.Context, owner, id int64, p core.NotificationRulePatch) (core.NotificationRule, error)
		DeleteRule(ctx context.Context, owner, id int64) error
	}

	IntegrationStore interface {
		ListIntegrations(ctx context.Context, owner int64) ([]core.Integration, error)
		UpdateIntegration(ctx context.Context, owner, id int64, p core.IntegrationPatch) (core.Integration, error)
	}
)

// Providers lists the integrations every user starts with, in display order.
var Providers = []core.Provider{core.ProviderOpenFinance, core.ProviderWhatsApp, core.ProviderSheets}

// SeedRules are the rules a fresh in-memory store shows, matching the
// examples users see before configuring anything.
func SeedRules() []core.NotificationRule {
	return []core.NotificationRule{
		{
			ID:        1,
			AlertType: core.LowBalance,
			Threshold: core.AmountOf(500),
			Channels:  []core.Channel{core.ChannelEmail, core.ChannelWhatsApp},
			Recipients: []core.Recipient{
				{ID: 1, Name: "João", Contact: "joao@email.com"},
				{ID: 2, Name: "Maria", Contact: "+5511999999999"},
			},
			Enabled: true,
		},
		{
			ID:         2,
			AlertType:  core.SpendingLimit,
			Threshold:  core.AmountOf(3000),
			Channels:   []core.Channel{core.ChannelEmail},
			Recipients: []core.Recipient{{ID: 3, Name: "João", Contact: "joao@email.com"}},
			Enabled:    true,
		},
	}
}

// ApplyRulePatch returns r with every non-nil patch field applied.
// Recipients keep their ids by position; rows past the old length get ids
// from nextID.
func ApplyRulePatch(r core.NotificationRule, p core.NotificationRulePatch, nextID func() int64) core.NotificationRule {
	if p.AlertType != nil {
		r.AlertType = *p.AlertType
	}
	if p.Threshold != nil {
		r.Threshold = *p.Threshold
	}
	if p.Channels != nil {
		r.Channels = append([]core.Channel(nil), p.Channels...)
	}
	if p.Enabled != nil {
		r.Enabled = *p.Enabled
	}
	if p.Recipients != nil {
		rows := make([]core.Recipient, len(p.Recipients))
		for i, rp := range p.Recipients {
			var id int64
			if i < len(r.Recipients) {
				id = r.Recipients[i].ID
			} else {
				id = nextID()
			}
			rows[i] = core.Recipient{ID: id, Name: rp.Name, Contact: rp.Contact}
		}
		r.Recipients = rows
	}
	return r
}

// ApplyIntegrationPatch mirrors ApplyRulePatch for integrations. Connecting
// without an explicit sync time stamps now; disconnecting clears it.
func ApplyIntegrationPatch(it core.Integration, p core.IntegrationPatch, now time.Time) core.Integration {
	if p.ConnectionStatus != nil {
		prev := it.ConnectionStatus
		it.ConnectionStatus = *p.ConnectionStatus
		switch {
		case it.ConnectionStatus == core.Disconnected:
			it.LastSync = nil
			it.AccessToken = nil
		case it.ConnectionStatus == core.Connected && prev != core.Connected && p.LastSync == nil:
			t := now
			it.LastSync = &t
		}
	}
	if p.AccessToken != nil {
		tok := *p.AccessToken
		it.AccessToken = &tok
	}
	if p.LastSync != nil {
		t := *p.LastSync
		it.LastSync = &t
	}
	return it
}

// ToggledStatus flips connected and disconnected; an errored integration
// reconnects.
func ToggledStatus(s core.ConnectionStatus) core.ConnectionStatus {
	if s == core.Connected {
		return core.Disconnected
	}
	return core.Connected
}
