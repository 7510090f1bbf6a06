// Package storetest holds the behaviour every store backend must share.
package storetest

import (
	"context"
	"errors"
	"testing"

	"vbudget/internal/core"
	"vbudget/internal/store"
)

// Backend is what a backend's test hands to the suite.
type Backend interface {
	store.RuleStore
	store.IntegrationStore
}

func payload() core.NotificationRulePayload {
	return core.NotificationRulePayload{
		AlertType: core.SpendingLimit,
		Threshold: core.AmountFromFloat(1234.56),
		Channels:  []core.Channel{core.ChannelWhatsApp},
		Recipients: []core.RecipientPayload{
			{Name: "Ana", Contact: "+5511988887777"},
			{Name: "Beto", Contact: "beto@email.com"},
		},
		Enabled: true,
	}
}

// Run exercises rules and integrations on a fresh, unseeded backend.
func Run(t *testing.T, newBackend func(t *testing.T) Backend) {
	t.Run("create then get", func(t *testing.T) {
		s := newBackend(t)
		ctx := context.Background()
		created, err := s.CreateRule(ctx, 7, payload())
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if created.ID == 0 {
			t.Fatalf("expected an assigned id")
		}
		got, err := s.GetRule(ctx, 7, created.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.AlertType != core.SpendingLimit || !got.Threshold.Equal(core.AmountFromFloat(1234.56)) {
			t.Fatalf("unexpected rule: %+v", got)
		}
		if len(got.Recipients) != 2 || got.Recipients[1].Contact != "beto@email.com" {
			t.Fatalf("unexpected recipients: %+v", got.Recipients)
		}
		if got.Recipients[0].ID == got.Recipients[1].ID {
			t.Fatalf("recipient ids must differ: %+v", got.Recipients)
		}
	})

	t.Run("owners are isolated", func(t *testing.T) {
		s := newBackend(t)
		ctx := context.Background()
		created, err := s.CreateRule(ctx, 1, payload())
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if _, err := s.GetRule(ctx, 2, created.ID); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("expected not found for another owner, got %v", err)
		}
		rules, err := s.ListRules(ctx, 2)
		if err != nil || len(rules) != 0 {
			t.Fatalf("expected no rules for owner 2: %v %v", rules, err)
		}
	})

	t.Run("patch keeps untouched fields and recipient ids", func(t *testing.T) {
		s := newBackend(t)
		ctx := context.Background()
		created, _ := s.CreateRule(ctx, 1, payload())

		disabled := false
		updated, err := s.UpdateRule(ctx, 1, created.ID, core.NotificationRulePatch{
			Enabled: &disabled,
			Recipients: []core.RecipientPayload{
				{Name: "Ana Paula", Contact: "+5511988887777"},
				{Name: "Beto", Contact: "beto@email.com"},
				{Name: "Caio", Contact: "caio@email.com"},
			},
		})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if updated.Enabled {
			t.Fatalf("expected disabled")
		}
		if updated.AlertType != core.SpendingLimit || len(updated.Channels) != 1 {
			t.Fatalf("untouched fields changed: %+v", updated)
		}
		if len(updated.Recipients) != 3 {
			t.Fatalf("expected 3 recipients, got %d", len(updated.Recipients))
		}
		if updated.Recipients[0].ID != created.Recipients[0].ID || updated.Recipients[1].ID != created.Recipients[1].ID {
			t.Fatalf("recipient ids not preserved: before %+v after %+v", created.Recipients, updated.Recipients)
		}
		if updated.Recipients[0].Name != "Ana Paula" {
			t.Fatalf("recipient not renamed: %+v", updated.Recipients[0])
		}

		again, _ := s.GetRule(ctx, 1, created.ID)
		if again.Enabled || len(again.Recipients) != 3 {
			t.Fatalf("update not persisted: %+v", again)
		}
	})

	t.Run("delete", func(t *testing.T) {
		s := newBackend(t)
		ctx := context.Background()
		created, _ := s.CreateRule(ctx, 1, payload())
		if err := s.DeleteRule(ctx, 1, created.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if err := s.DeleteRule(ctx, 1, created.ID); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("expected not found on second delete, got %v", err)
		}
		if _, err := s.UpdateRule(ctx, 1, created.ID, core.NotificationRulePatch{}); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("expected not found on update, got %v", err)
		}
	})

	t.Run("integrations start disconnected", func(t *testing.T) {
		s := newBackend(t)
		ctx := context.Background()
		items, err := s.ListIntegrations(ctx, 1)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(items) != len(store.Providers) {
			t.Fatalf("expected %d integrations, got %d", len(store.Providers), len(items))
		}
		for i, it := range items {
			if it.Provider != store.Providers[i] || it.ConnectionStatus != core.Disconnected || it.LastSync != nil {
				t.Fatalf("unexpected integration %d: %+v", i, it)
			}
		}
	})

	t.Run("connect stamps last sync", func(t *testing.T) {
		s := newBackend(t)
		ctx := context.Background()
		items, _ := s.ListIntegrations(ctx, 1)
		target := items[0]

		connected := core.Connected
		got, err := s.UpdateIntegration(ctx, 1, target.ID, core.IntegrationPatch{ConnectionStatus: &connected})
		if err != nil {
			t.Fatalf("connect: %v", err)
		}
		if got.ConnectionStatus != core.Connected || got.LastSync == nil {
			t.Fatalf("expected connected with last sync: %+v", got)
		}

		disconnected := core.Disconnected
		got, err = s.UpdateIntegration(ctx, 1, target.ID, core.IntegrationPatch{ConnectionStatus: &disconnected})
		if err != nil {
			t.Fatalf("disconnect: %v", err)
		}
		if got.LastSync != nil {
			t.Fatalf("expected last sync cleared: %+v", got)
		}

		if _, err := s.UpdateIntegration(ctx, 1, 999, core.IntegrationPatch{}); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})
}
