package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type RuleRow struct {
	ID        int64
	OwnerID   int64
	AlertType string
	Threshold string
	Channels  string
	Enabled   bool
}

type RecipientRow struct {
	ID       int64
	RuleID   int64
	Position int64
	Name     string
	Contact  string
}

type IntegrationRow struct {
	ID               int64
	OwnerID          int64
	Provider         string
	ConnectionStatus string
	AccessToken      sql.NullString
	LastSync         sql.NullTime
}

const listRules = `SELECT id, owner_id, alert_type, threshold, channels, enabled
FROM notification_rules WHERE owner_id = ? ORDER BY id`

func (q *Queries) ListRules(ctx context.Context, ownerID int64) ([]RuleRow, error) {
	rows, err := q.db.QueryContext(ctx, listRules, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RuleRow
	for rows.Next() {
		var i RuleRow
		if err := rows.Scan(&i.ID, &i.OwnerID, &i.AlertType, &i.Threshold, &i.Channels, &i.Enabled); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getRule = `SELECT id, owner_id, alert_type, threshold, channels, enabled
FROM notification_rules WHERE owner_id = ? AND id = ?`

func (q *Queries) GetRule(ctx context.Context, ownerID, id int64) (RuleRow, error) {
	var i RuleRow
	err := q.db.QueryRowContext(ctx, getRule, ownerID, id).
		Scan(&i.ID, &i.OwnerID, &i.AlertType, &i.Threshold, &i.Channels, &i.Enabled)
	return i, err
}

const createRule = `INSERT INTO notification_rules (owner_id, alert_type, threshold, channels, enabled)
VALUES (?, ?, ?, ?, ?) RETURNING id`

type CreateRuleParams struct {
	OwnerID   int64
	AlertType string
	Threshold string
	Channels  string
	Enabled   bool
}

func (q *Queries) CreateRule(ctx context.Context, arg CreateRuleParams) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, createRule, arg.OwnerID, arg.AlertType, arg.Threshold, arg.Channels, arg.Enabled).Scan(&id)
	return id, err
}

const updateRule = `UPDATE notification_rules
SET alert_type = ?, threshold = ?, channels = ?, enabled = ?, updated_at = CURRENT_TIMESTAMP
WHERE owner_id = ? AND id = ?`

type UpdateRuleParams struct {
	OwnerID   int64
	ID        int64
	AlertType string
	Threshold string
	Channels  string
	Enabled   bool
}

func (q *Queries) UpdateRule(ctx context.Context, arg UpdateRuleParams) error {
	_, err := q.db.ExecContext(ctx, updateRule, arg.AlertType, arg.Threshold, arg.Channels, arg.Enabled, arg.OwnerID, arg.ID)
	return err
}

const deleteRule = `DELETE FROM notification_rules WHERE owner_id = ? AND id = ?`

func (q *Queries) DeleteRule(ctx context.Context, ownerID, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteRule, ownerID, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listRecipients = `SELECT id, rule_id, position, name, contact
FROM rule_recipients WHERE rule_id = ? ORDER BY position`

func (q *Queries) ListRecipients(ctx context.Context, ruleID int64) ([]RecipientRow, error) {
	rows, err := q.db.QueryContext(ctx, listRecipients, ruleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RecipientRow
	for rows.Next() {
		var i RecipientRow
		if err := rows.Scan(&i.ID, &i.RuleID, &i.Position, &i.Name, &i.Contact); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const insertRecipient = `INSERT INTO rule_recipients (id, rule_id, position, name, contact)
VALUES (NULLIF(?, 0), ?, ?, ?, ?) RETURNING id`

// InsertRecipient reuses arg.ID when non-zero, otherwise SQLite assigns one.
func (q *Queries) InsertRecipient(ctx context.Context, arg RecipientRow) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, insertRecipient, arg.ID, arg.RuleID, arg.Position, arg.Name, arg.Contact).Scan(&id)
	return id, err
}

const deleteRecipients = `DELETE FROM rule_recipients WHERE rule_id = ?`

func (q *Queries) DeleteRecipients(ctx context.Context, ruleID int64) error {
	_, err := q.db.ExecContext(ctx, deleteRecipients, ruleID)
	return err
}

const ensureIntegration = `INSERT OR IGNORE INTO integrations (owner_id, provider, position) VALUES (?, ?, ?)`

func (q *Queries) EnsureIntegration(ctx context.Context, ownerID int64, provider string, position int) error {
	_, err := q.db.ExecContext(ctx, ensureIntegration, ownerID, provider, position)
	return err
}

const listIntegrations = `SELECT id, owner_id, provider, connection_status, access_token, last_sync
FROM integrations WHERE owner_id = ? ORDER BY position`

func (q *Queries) ListIntegrations(ctx context.Context, ownerID int64) ([]IntegrationRow, error) {
	rows, err := q.db.QueryContext(ctx, listIntegrations, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []IntegrationRow
	for rows.Next() {
		var i IntegrationRow
		if err := rows.Scan(&i.ID, &i.OwnerID, &i.Provider, &i.ConnectionStatus, &i.AccessToken, &i.LastSync); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getIntegration = `SELECT id, owner_id, provider, connection_status, access_token, last_sync
FROM integrations WHERE owner_id = ? AND id = ?`

func (q *Queries) GetIntegration(ctx context.Context, ownerID, id int64) (IntegrationRow, error) {
	var i IntegrationRow
	err := q.db.QueryRowContext(ctx, getIntegration, ownerID, id).
		Scan(&i.ID, &i.OwnerID, &i.Provider, &i.ConnectionStatus, &i.AccessToken, &i.LastSync)
	return i, err
}

const updateIntegration = `UPDATE integrations
SET connection_status = ?, access_token = ?, last_sync = ?
WHERE owner_id = ? AND id = ?`

func (q *Queries) UpdateIntegration(ctx context.Context, arg IntegrationRow) error {
	res, err := q.db.ExecContext(ctx, updateIntegration, arg.ConnectionStatus, arg.AccessToken, arg.LastSync, arg.OwnerID, arg.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("integration %d: %w", arg.ID, sql.ErrNoRows)
	}
	return nil
}
