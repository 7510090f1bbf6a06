package storage

import (
	"context"
	"path/filepath"
	"testing"

	"vbudget/internal/core"
	"vbudget/internal/store/storetest"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "vbudget.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepository(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storetest.Backend { return newTestRepo(t) })
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vbudget.db")
	v1, err := RunMigrations(path)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	v2, err := RunMigrations(path)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if v1 != 2 || v2 != 2 {
		t.Fatalf("expected version 2 twice, got %d and %d", v1, v2)
	}

	v, err := RollbackMigrations(path, 1)
	if err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if v != 1 {
		t.Fatalf("expected version 1 after rollback, got %d", v)
	}
	if _, err := RollbackMigrations(path, 0); err == nil {
		t.Fatalf("expected error for zero steps")
	}
}

func TestRuleSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vbudget.db")
	ctx := context.Background()

	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	created, err := repo.CreateRule(ctx, 1, core.NotificationRulePayload{
		AlertType:  core.LowBalance,
		Threshold:  core.AmountFromFloat(99.9),
		Channels:   []core.Channel{core.ChannelEmail, core.ChannelWhatsApp},
		Recipients: []core.RecipientPayload{{Name: "Ana", Contact: "ana@email.com"}},
		Enabled:    true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	repo.Close()

	repo, err = NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer repo.Close()
	got, err := repo.GetRule(ctx, 1, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Threshold.Equal(core.AmountFromFloat(99.9)) || len(got.Channels) != 2 || got.Channels[1] != core.ChannelWhatsApp {
		t.Fatalf("unexpected rule after reopen: %+v", got)
	}
	if err := repo.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestChannelEncoding(t *testing.T) {
	cs := []core.Channel{core.ChannelEmail, core.ChannelWhatsApp}
	if got := decodeChannels(encodeChannels(cs)); len(got) != 2 || got[0] != cs[0] || got[1] != cs[1] {
		t.Fatalf("round trip failed: %v", got)
	}
	if got := decodeChannels(""); got != nil {
		t.Fatalf("expected nil for empty column, got %v", got)
	}
}
