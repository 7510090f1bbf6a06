package api

import (
	"context"
	"fmt"

	"vbudget/internal/core"
)

const (
	categoriesBase    = "/api/categories"
	transactionsBase  = "/api/transactions"
	integrationsBase  = "/api/integrations"
	notificationsBase = "/api/notifications"
	authBase          = "/api/auth"
)

func itemPath(base string, id int64) string {
	return fmt.Sprintf("%s/%d", base, id)
}

func get[T any](ctx context.Context, c *Client, path string) (T, error) {
	var out T
	err := c.Get(ctx, path, &out)
	return out, err
}

func post[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	var out T
	err := c.Post(ctx, path, body, &out)
	return out, err
}

func put[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	var out T
	err := c.Put(ctx, path, body, &out)
	return out, err
}

// Categories wraps /api/categories.
type Categories struct{ c *Client }

func NewCategories(c *Client) *Categories { return &Categories{c: c} }

func (s *Categories) List(ctx context.Context) ([]core.Category, error) {
	return get[[]core.Category](ctx, s.c, categoriesBase)
}

func (s *Categories) Get(ctx context.Context, id int64) (core.Category, error) {
	return get[core.Category](ctx, s.c, itemPath(categoriesBase, id))
}

func (s *Categories) Create(ctx context.Context, p core.CategoryPayload) (core.Category, error) {
	return post[core.Category](ctx, s.c, categoriesBase, p)
}

func (s *Categories) Update(ctx context.Context, id int64, p core.CategoryPayload) (core.Category, error) {
	return put[core.Category](ctx, s.c, itemPath(categoriesBase, id), p)
}

func (s *Categories) Delete(ctx context.Context, id int64) error {
	return s.c.Delete(ctx, itemPath(categoriesBase, id))
}

// Transactions wraps /api/transactions.
type Transactions struct{ c *Client }

func NewTransactions(c *Client) *Transactions { return &Transactions{c: c} }

func (s *Transactions) List(ctx context.Context) ([]core.Transaction, error) {
	return get[[]core.Transaction](ctx, s.c, transactionsBase)
}

func (s *Transactions) Get(ctx context.Context, id int64) (core.Transaction, error) {
	return get[core.Transaction](ctx, s.c, itemPath(transactionsBase, id))
}

func (s *Transactions) Create(ctx context.Context, p core.TransactionPayload) (core.Transaction, error) {
	return post[core.Transaction](ctx, s.c, transactionsBase, p)
}

func (s *Transactions) Update(ctx context.Context, id int64, p core.TransactionPayload) (core.Transaction, error) {
	return put[core.Transaction](ctx, s.c, itemPath(transactionsBase, id), p)
}

func (s *Transactions) Delete(ctx context.Context, id int64) error {
	return s.c.Delete(ctx, itemPath(transactionsBase, id))
}

// Integrations wraps /api/integrations.
type Integrations struct{ c *Client }

func NewIntegrations(c *Client) *Integrations { return &Integrations{c: c} }

func (s *Integrations) List(ctx context.Context) ([]core.Integration, error) {
	return get[[]core.Integration](ctx, s.c, integrationsBase)
}

func (s *Integrations) Get(ctx context.Context, id int64) (core.Integration, error) {
	return get[core.Integration](ctx, s.c, itemPath(integrationsBase, id))
}

func (s *Integrations) Create(ctx context.Context, p core.IntegrationPayload) (core.Integration, error) {
	return post[core.Integration](ctx, s.c, integrationsBase, p)
}

func (s *Integrations) Update(ctx context.Context, id int64, p core.IntegrationPatch) (core.Integration, error) {
	return put[core.Integration](ctx, s.c, itemPath(integrationsBase, id), p)
}

func (s *Integrations) Delete(ctx context.Context, id int64) error {
	return s.c.Delete(ctx, itemPath(integrationsBase, id))
}

// Notifications wraps /api/notifications.
type Notifications struct{ c *Client }

func NewNotifications(c *Client) *Notifications { return &Notifications{c: c} }

func (s *Notifications) List(ctx context.Context) ([]core.NotificationRule, error) {
	return get[[]core.NotificationRule](ctx, s.c, notificationsBase)
}

func (s *Notifications) Get(ctx context.Context, id int64) (core.NotificationRule, error) {
	return get[core.NotificationRule](ctx, s.c, itemPath(notificationsBase, id))
}

func (s *Notifications) Create(ctx context.Context, p core.NotificationRulePayload) (core.NotificationRule, error) {
	return post[core.NotificationRule](ctx, s.c, notificationsBase, p)
}

func (s *Notifications) Update(ctx context.Context, id int64, p core.NotificationRulePatch) (core.NotificationRule, error) {
	return put[core.NotificationRule](ctx, s.c, itemPath(notificationsBase, id), p)
}

func (s *Notifications) Delete(ctx context.Context, id int64) error {
	return s.c.Delete(ctx, itemPath(notificationsBase, id))
}

// Credentials for both login and register.
type LoginPayload struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type RegisterPayload = LoginPayload

// Auth wraps /api/auth.
type Auth struct{ c *Client }

func NewAuth(c *Client) *Auth { return &Auth{c: c} }

func (s *Auth) Me(ctx context.Context) (core.User, error) {
	return get[core.User](ctx, s.c, authBase+"/me")
}

func (s *Auth) Login(ctx context.Context, p LoginPayload) (core.User, error) {
	return post[core.User](ctx, s.c, authBase+"/login", p)
}

func (s *Auth) Register(ctx context.Context, p RegisterPayload) (core.User, error) {
	return post[core.User](ctx, s.c, authBase+"/register", p)
}

func (s *Auth) Logout(ctx context.Context) error {
	return s.c.Post(ctx, authBase+"/logout", struct{}{}, nil)
}
