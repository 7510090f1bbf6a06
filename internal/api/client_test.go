package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vbudget/internal/api"
	"vbudget/internal/api/apitest"
	"vbudget/internal/core"
)

func newClient(t *testing.T, baseURL string) *api.Client {
	t.Helper()
	c, err := api.New(baseURL, nil, nil)
	require.NoError(t, err)
	return c
}

func authedContext(srv *apitest.Server) context.Context {
	creds := api.NewCredentials([]*http.Cookie{srv.Login("ana")})
	return api.WithCredentials(context.Background(), creds)
}

func TestNewRejectsRelativeURL(t *testing.T) {
	_, err := api.New("/api", nil, nil)
	assert.Error(t, err)
}

func TestDoNoContentIsVoidSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	var out map[string]any
	err := newClient(t, srv.URL).Get(context.Background(), "/x", &out)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestDoErrorMessage(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"message from body", http.StatusBadRequest, `{"message":"Descrição obrigatória"}`, "Descrição obrigatória"},
		{"unparseable body falls back to status text", http.StatusInternalServerError, `<html>oops</html>`, "Internal Server Error"},
		{"body without message", http.StatusConflict, `{"error":"x"}`, "Conflict"},
		{"empty body", http.StatusUnauthorized, ``, "Unauthorized"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := newClient(t, srv.URL).Get(context.Background(), "/x", nil)
			var apiErr *api.Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
			assert.Equal(t, tt.status, api.StatusOf(err))
		})
	}
}

func TestDoNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := newClient(t, url).Get(context.Background(), "/x", nil)
	assert.True(t, errors.Is(err, api.ErrNetwork), "got %v", err)
	assert.Equal(t, 0, api.StatusOf(err))
}

func TestDoDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	var out []core.Category
	err := newClient(t, srv.URL).Get(context.Background(), "/x", &out)
	assert.True(t, errors.Is(err, api.ErrDecode), "got %v", err)
}

func TestDoCancelledContext(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := newClient(t, srv.URL).Get(ctx, "/x", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestErrorClassifiers(t *testing.T) {
	assert.True(t, api.IsUnauthorized(&api.Error{Status: 401}))
	assert.True(t, api.IsBadRequest(&api.Error{Status: 400, Message: "x"}))
	assert.False(t, api.IsBadRequest(errors.New("plain")))
	assert.Equal(t, "x", api.MessageOf(&api.Error{Status: 400, Message: "x"}, "fallback"))
	assert.Equal(t, "fallback", api.MessageOf(&api.Error{Status: 400, Message: "Bad Request"}, "fallback"))
	assert.Equal(t, "fallback", api.MessageOf(errors.New("plain"), "fallback"))
}

func TestCredentialsForwardAndRecordCookies(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	c := newClient(t, srv.URL)

	creds := api.NewCredentials(nil)
	ctx := api.WithCredentials(context.Background(), creds)

	_, err := api.NewAuth(c).Me(ctx)
	require.True(t, api.IsUnauthorized(err))

	user, err := api.NewAuth(c).Login(ctx, api.LoginPayload{Name: "ana", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "ana", user.Name)
	require.Len(t, creds.Received(), 1)
	assert.Equal(t, apitest.SessionCookie, creds.Received()[0].Name)

	// the cookie recorded by login is sent on the next call
	me, err := api.NewAuth(c).Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, user.ID, me.ID)
}

func TestCredentialsKey(t *testing.T) {
	a := api.NewCredentials([]*http.Cookie{{Name: "s", Value: "1"}, {Name: "t", Value: "2"}})
	b := api.NewCredentials([]*http.Cookie{{Name: "t", Value: "2"}, {Name: "s", Value: "1"}})
	other := api.NewCredentials([]*http.Cookie{{Name: "s", Value: "9"}})

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), other.Key())
	assert.Equal(t, "", api.NewCredentials(nil).Key())
	var nilCreds *api.Credentials
	assert.Equal(t, "", nilCreds.Key())
}

func TestTransactionRoundTrip(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	ctx := authedContext(srv)
	txs := api.NewTransactions(newClient(t, srv.URL))

	p := core.TransactionPayload{
		Description: "Aluguel",
		Amount:      core.AmountFromFloat(1500.5),
		Kind:        core.Expense,
		Status:      core.Pending,
		CategoryID:  3,
		DueDate:     "2024-02-10",
		PaidDate:    "",
	}
	created, err := txs.Create(ctx, p)
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.NotEmpty(t, created.CreatedAt)

	fetched, err := txs.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Description, fetched.Description)
	assert.True(t, p.Amount.Equal(fetched.Amount))
	got := fetched.Payload()
	assert.Equal(t, p.Kind, got.Kind)
	assert.Equal(t, p.Status, got.Status)
	assert.Equal(t, p.CategoryID, got.CategoryID)
	assert.Equal(t, p.DueDate, got.DueDate)
	assert.Equal(t, p.PaidDate, got.PaidDate)
}

func TestCategoryDeleteReferencedFails(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	ctx := authedContext(srv)
	c := newClient(t, srv.URL)

	cat := srv.SeedCategory(core.Category{Name: "Casa", Kind: core.Expense, Color: "#3b82f6"})
	srv.SeedTransaction(core.Transaction{Description: "Luz", Amount: core.AmountOf(80), Kind: core.Expense, Status: core.Pending, CategoryID: cat.ID, DueDate: "2024-01-01"})

	err := api.NewCategories(c).Delete(ctx, cat.ID)
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, api.StatusOf(err))

	_, stillThere := srv.Category(cat.ID)
	assert.True(t, stillThere)
}

func TestNotificationPartialUpdate(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	ctx := authedContext(srv)
	svc := api.NewNotifications(newClient(t, srv.URL))

	rule, err := svc.Create(ctx, core.NotificationRulePayload{
		AlertType:  core.LowBalance,
		Threshold:  core.AmountOf(500),
		Channels:   []core.Channel{core.ChannelEmail},
		Recipients: []core.RecipientPayload{{Name: "João", Contact: "joao@email.com"}},
		Enabled:    true,
	})
	require.NoError(t, err)

	disabled := false
	updated, err := svc.Update(ctx, rule.ID, core.NotificationRulePatch{Enabled: &disabled})
	require.NoError(t, err)
	assert.False(t, updated.Enabled)
	assert.True(t, updated.Threshold.Equal(core.AmountOf(500)))
	assert.Len(t, updated.Recipients, 1)
}
