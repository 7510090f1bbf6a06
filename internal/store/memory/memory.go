package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"vbudget/internal/core"
	"vbudget/internal/store"
)

type account struct {
	rules         []core.NotificationRule
	integrations  []core.Integration
	nextRule      int64
	nextRecipient int64
}

// Store keeps rules and integrations in process, one account per owner.
// Accounts are created on first use, seeded when the store was built with
// seed set.
type Store struct {
	mu       sync.Mutex
	seed     bool
	accounts map[int64]*account
	now      func() time.Time
}

var (
	_ store.RuleStore        = (*Store)(nil)
	_ store.IntegrationStore = (*Store)(nil)
)

func New(seed bool) *Store {
	return &Store{seed: seed, accounts: map[int64]*account{}, now: time.Now}
}

func (s *Store) account(owner int64) *account {
	a, ok := s.accounts[owner]
	if ok {
		return a
	}
	a = &account{nextRule: 1, nextRecipient: 1}
	if s.seed {
		a.rules = store.SeedRules()
		a.nextRule, a.nextRecipient = 3, 100
	}
	for i, p := range store.Providers {
		a.integrations = append(a.integrations, core.Integration{
			ID:               int64(i + 1),
			Provider:         p,
			ConnectionStatus: core.Disconnected,
		})
	}
	s.accounts[owner] = a
	return a
}

func (a *account) recipientID() int64 {
	id := a.nextRecipient
	a.nextRecipient++
	return id
}

func (a *account) find(id int64) int {
	for i, r := range a.rules {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) ListRules(_ context.Context, owner int64) ([]core.NotificationRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.account(owner)
	out := make([]core.NotificationRule, len(a.rules))
	for i, r := range a.rules {
		out[i] = cloneRule(r)
	}
	return out, nil
}

func (s *Store) GetRule(_ context.Context, owner, id int64) (core.NotificationRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.account(owner)
	i := a.find(id)
	if i < 0 {
		return core.NotificationRule{}, fmt.Errorf("rule %d: %w", id, core.ErrNotFound)
	}
	return cloneRule(a.rules[i]), nil
}

func (s *Store) CreateRule(_ context.Context, owner int64, p core.NotificationRulePayload) (core.NotificationRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.account(owner)
	r := core.NotificationRule{
		ID:        a.nextRule,
		AlertType: p.AlertType,
		Threshold: p.Threshold,
		Channels:  append([]core.Channel(nil), p.Channels...),
		Enabled:   p.Enabled,
	}
	a.nextRule++
	for _, rp := range p.Recipients {
		r.Recipients = append(r.Recipients, core.Recipient{ID: a.recipientID(), Name: rp.Name, Contact: rp.Contact})
	}
	a.rules = append(a.rules, r)
	return cloneRule(r), nil
}

func (s *Store) UpdateRule(_ context.Context, owner, id int64, p core.NotificationRulePatch) (core.NotificationRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.account(owner)
	i := a.find(id)
	if i < 0 {
		return core.NotificationRule{}, fmt.Errorf("rule %d: %w", id, core.ErrNotFound)
	}
	a.rules[i] = store.ApplyRulePatch(a.rules[i], p, a.recipientID)
	return cloneRule(a.rules[i]), nil
}

func (s *Store) DeleteRule(_ context.Context, owner, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.account(owner)
	i := a.find(id)
	if i < 0 {
		return fmt.Errorf("rule %d: %w", id, core.ErrNotFound)
	}
	a.rules = append(a.rules[:i], a.rules[i+1:]...)
	return nil
}

func (s *Store) ListIntegrations(_ context.Context, owner int64) ([]core.Integration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Integration(nil), s.account(owner).integrations...), nil
}

func (s *Store) UpdateIntegration(_ context.Context, owner, id int64, p core.IntegrationPatch) (core.Integration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.account(owner)
	for i, it := range a.integrations {
		if it.ID == id {
			a.integrations[i] = store.ApplyIntegrationPatch(it, p, s.now())
			return a.integrations[i], nil
		}
	}
	return core.Integration{}, fmt.Errorf("integration %d: %w", id, core.ErrNotFound)
}

func cloneRule(r core.NotificationRule) core.NotificationRule {
	r.Channels = append([]core.Channel(nil), r.Channels...)
	r.Recipients = append([]core.Recipient(nil), r.Recipients...)
	return r
}
