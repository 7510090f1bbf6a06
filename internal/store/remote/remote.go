// Package remote serves rules and integrations from the REST API. The API
// scopes data by the session cookie, so the owner argument is unused.
package remote

import (
	"context"
	"errors"
	"fmt"

	"vbudget/internal/api"
	"vbudget/internal/core"
	"vbudget/internal/store"
)

type Store struct {
	rules        *api.Notifications
	integrations *api.Integrations
}

var (
	_ store.RuleStore        = (*Store)(nil)
	_ store.IntegrationStore = (*Store)(nil)
)

func New(c *api.Client) *Store {
	return &Store{rules: api.NewNotifications(c), integrations: api.NewIntegrations(c)}
}

// notFound maps a 404 to core.ErrNotFound so callers need not know the
// backend.
func notFound(err error, what string, id int64) error {
	if api.IsNotFound(err) {
		return fmt.Errorf("%s %d: %w", what, id, errors.Join(core.ErrNotFound, err))
	}
	return err
}

func (s *Store) ListRules(ctx context.Context, _ int64) ([]core.NotificationRule, error) {
	return s.rules.List(ctx)
}

func (s *Store) GetRule(ctx context.Context, _ int64, id int64) (core.NotificationRule, error) {
	r, err := s.rules.Get(ctx, id)
	return r, notFound(err, "rule", id)
}

func (s *Store) CreateRule(ctx context.Context, _ int64, p core.NotificationRulePayload) (core.NotificationRule, error) {
	return s.rules.Create(ctx, p)
}

func (s *Store) UpdateRule(ctx context.Context, _ int64, id int64, p core.NotificationRulePatch) (core.NotificationRule, error) {
	r, err := s.rules.Update(ctx, id, p)
	return r, notFound(err, "rule", id)
}

func (s *Store) DeleteRule(ctx context.Context, _ int64, id int64) error {
	return notFound(s.rules.Delete(ctx, id), "rule", id)
}

func (s *Store) ListIntegrations(ctx context.Context, _ int64) ([]core.Integration, error) {
	return s.integrations.List(ctx)
}

func (s *Store) UpdateIntegration(ctx context.Context, _ int64, id int64, p core.IntegrationPatch) (core.Integration, error) {
	it, err := s.integrations.Update(ctx, id, p)
	return it, notFound(err, "integration", id)
}
