package memory

import (
	"context"
	"testing"

	"vbudget/internal/core"
	"vbudget/internal/store/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(*testing.T) storetest.Backend { return New(false) })
}

func TestSeededAccount(t *testing.T) {
	s := New(true)
	ctx := context.Background()
	rules, err := s.ListRules(ctx, 1)
	if err != nil || len(rules) != 2 {
		t.Fatalf("expected 2 seeded rules: %v %v", rules, err)
	}
	if rules[0].AlertType != core.LowBalance || rules[1].AlertType != core.SpendingLimit {
		t.Fatalf("unexpected seed order: %+v", rules)
	}

	created, err := s.CreateRule(ctx, 1, core.NotificationRulePayload{
		AlertType:  core.LowBalance,
		Threshold:  core.AmountOf(100),
		Channels:   []core.Channel{core.ChannelEmail},
		Recipients: []core.RecipientPayload{{Name: "Ana", Contact: "ana@email.com"}},
		Enabled:    true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID != 3 || created.Recipients[0].ID != 100 {
		t.Fatalf("ids should continue after the seed: %+v", created)
	}
}

func TestListReturnsCopies(t *testing.T) {
	s := New(true)
	ctx := context.Background()
	rules, _ := s.ListRules(ctx, 1)
	rules[0].Recipients[0].Name = "changed"
	rules[0].Channels[0] = core.ChannelWhatsApp

	again, _ := s.GetRule(ctx, 1, rules[0].ID)
	if again.Recipients[0].Name != "João" || again.Channels[0] != core.ChannelEmail {
		t.Fatalf("store mutated through a listed value: %+v", again)
	}
}
