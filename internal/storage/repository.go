package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vbudget/internal/core"
	"vbudget/internal/store"

	_ "modernc.org/sqlite"
)

// SQLiteRepository stores notification rules and integrations in a local
// SQLite file, scoped by the owning user's id.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

var (
	_ store.RuleStore        = (*SQLiteRepository)(nil)
	_ store.IntegrationStore = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; SQLite serializes them anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db), now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (r *SQLiteRepository) ListRules(ctx context.Context, owner int64) ([]core.NotificationRule, error) {
	rows, err := r.queries.ListRules(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	rules := make([]core.NotificationRule, 0, len(rows))
	for _, row := range rows {
		rule, err := r.hydrate(ctx, r.queries, row)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func (r *SQLiteRepository) GetRule(ctx context.Context, owner, id int64) (core.NotificationRule, error) {
	return r.getRule(ctx, r.queries, owner, id)
}

func (r *SQLiteRepository) getRule(ctx context.Context, q *Queries, owner, id int64) (core.NotificationRule, error) {
	row, err := q.GetRule(ctx, owner, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.NotificationRule{}, fmt.Errorf("rule %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.NotificationRule{}, fmt.Errorf("get rule %d: %w", id, err)
	}
	return r.hydrate(ctx, q, row)
}

func (r *SQLiteRepository) hydrate(ctx context.Context, q *Queries, row RuleRow) (core.NotificationRule, error) {
	threshold, err := core.ParseAmount(row.Threshold)
	if err != nil {
		return core.NotificationRule{}, fmt.Errorf("rule %d threshold %q: %w", row.ID, row.Threshold, err)
	}
	recipients, err := q.ListRecipients(ctx, row.ID)
	if err != nil {
		return core.NotificationRule{}, fmt.Errorf("list recipients of rule %d: %w", row.ID, err)
	}
	rule := core.NotificationRule{
		ID:         row.ID,
		AlertType:  core.AlertType(row.AlertType),
		Threshold:  threshold,
		Channels:   decodeChannels(row.Channels),
		Recipients: make([]core.Recipient, len(recipients)),
		Enabled:    row.Enabled,
	}
	for i, rc := range recipients {
		rule.Recipients[i] = core.Recipient{ID: rc.ID, Name: rc.Name, Contact: rc.Contact}
	}
	return rule, nil
}

func (r *SQLiteRepository) CreateRule(ctx context.Context, owner int64, p core.NotificationRulePayload) (core.NotificationRule, error) {
	var rule core.NotificationRule
	err := r.inTx(ctx, func(q *Queries) error {
		id, err := q.CreateRule(ctx, CreateRuleParams{
			OwnerID:   owner,
			AlertType: string(p.AlertType),
			Threshold: p.Threshold.String(),
			Channels:  encodeChannels(p.Channels),
			Enabled:   p.Enabled,
		})
		if err != nil {
			return fmt.Errorf("create rule: %w", err)
		}
		recipients := make([]core.Recipient, len(p.Recipients))
		for i, rp := range p.Recipients {
			recipients[i] = core.Recipient{Name: rp.Name, Contact: rp.Contact}
		}
		if err := writeRecipients(ctx, q, id, recipients); err != nil {
			return err
		}
		rule, err = r.getRule(ctx, q, owner, id)
		return err
	})
	if err != nil {
		return core.NotificationRule{}, err
	}

	slog.InfoContext(ctx, "Notification rule saved to SQLite",
		"rule_id", rule.ID,
		"owner_id", owner,
		"alert_type", rule.AlertType)
	return rule, nil
}

func (r *SQLiteRepository) UpdateRule(ctx context.Context, owner, id int64, p core.NotificationRulePatch) (core.NotificationRule, error) {
	var rule core.NotificationRule
	err := r.inTx(ctx, func(q *Queries) error {
		current, err := r.getRule(ctx, q, owner, id)
		if err != nil {
			return err
		}
		// New rows get id 0 so InsertRecipient lets SQLite assign one.
		next := store.ApplyRulePatch(current, p, func() int64 { return 0 })
		if err := q.UpdateRule(ctx, UpdateRuleParams{
			OwnerID:   owner,
			ID:        id,
			AlertType: string(next.AlertType),
			Threshold: next.Threshold.String(),
			Channels:  encodeChannels(next.Channels),
			Enabled:   next.Enabled,
		}); err != nil {
			return fmt.Errorf("update rule %d: %w", id, err)
		}
		if p.Recipients != nil {
			if err := q.DeleteRecipients(ctx, id); err != nil {
				return fmt.Errorf("clear recipients of rule %d: %w", id, err)
			}
			if err := writeRecipients(ctx, q, id, next.Recipients); err != nil {
				return err
			}
		}
		rule, err = r.getRule(ctx, q, owner, id)
		return err
	})
	if err != nil {
		return core.NotificationRule{}, err
	}
	return rule, nil
}

func (r *SQLiteRepository) DeleteRule(ctx context.Context, owner, id int64) error {
	return r.inTx(ctx, func(q *Queries) error {
		if err := q.DeleteRecipients(ctx, id); err != nil {
			return fmt.Errorf("delete recipients of rule %d: %w", id, err)
		}
		n, err := q.DeleteRule(ctx, owner, id)
		if err != nil {
			return fmt.Errorf("delete rule %d: %w", id, err)
		}
		if n == 0 {
			return fmt.Errorf("rule %d: %w", id, core.ErrNotFound)
		}
		return nil
	})
}

func writeRecipients(ctx context.Context, q *Queries, ruleID int64, recipients []core.Recipient) error {
	for i, rc := range recipients {
		if _, err := q.InsertRecipient(ctx, RecipientRow{
			ID:       rc.ID,
			RuleID:   ruleID,
			Position: int64(i),
			Name:     rc.Name,
			Contact:  rc.Contact,
		}); err != nil {
			return fmt.Errorf("insert recipient %q: %w", rc.Name, err)
		}
	}
	return nil
}

// ListIntegrations creates the owner's integrations on first use.
func (r *SQLiteRepository) ListIntegrations(ctx context.Context, owner int64) ([]core.Integration, error) {
	for i, p := range store.Providers {
		if err := r.queries.EnsureIntegration(ctx, owner, string(p), i); err != nil {
			return nil, fmt.Errorf("ensure integration %s: %w", p, err)
		}
	}
	rows, err := r.queries.ListIntegrations(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list integrations: %w", err)
	}
	out := make([]core.Integration, len(rows))
	for i, row := range rows {
		out[i] = integrationFromRow(row)
	}
	return out, nil
}

func (r *SQLiteRepository) UpdateIntegration(ctx context.Context, owner, id int64, p core.IntegrationPatch) (core.Integration, error) {
	row, err := r.queries.GetIntegration(ctx, owner, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Integration{}, fmt.Errorf("integration %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Integration{}, fmt.Errorf("get integration %d: %w", id, err)
	}

	next := store.ApplyIntegrationPatch(integrationFromRow(row), p, r.now())
	updated := IntegrationRow{
		ID:               id,
		OwnerID:          owner,
		ConnectionStatus: string(next.ConnectionStatus),
	}
	if next.AccessToken != nil {
		updated.AccessToken = sql.NullString{String: *next.AccessToken, Valid: true}
	}
	if next.LastSync != nil {
		updated.LastSync = sql.NullTime{Time: next.LastSync.UTC(), Valid: true}
	}
	if err := r.queries.UpdateIntegration(ctx, updated); err != nil {
		return core.Integration{}, fmt.Errorf("update integration %d: %w", id, err)
	}
	return next, nil
}

func integrationFromRow(row IntegrationRow) core.Integration {
	it := core.Integration{
		ID:               row.ID,
		Provider:         core.Provider(row.Provider),
		ConnectionStatus: core.ConnectionStatus(row.ConnectionStatus),
	}
	if row.AccessToken.Valid {
		tok := row.AccessToken.String
		it.AccessToken = &tok
	}
	if row.LastSync.Valid {
		t := row.LastSync.Time
		it.LastSync = &t
	}
	return it
}

func encodeChannels(cs []core.Channel) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = string(c)
	}
	return strings.Join(parts, ",")
}

func decodeChannels(s string) []core.Channel {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]core.Channel, len(parts))
	for i, p := range parts {
		out[i] = core.Channel(p)
	}
	return out
}
