// Package apitest runs an in-memory stand-in for the budgeting REST API,
// cookie sessions included, for tests of everything that talks to it.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"vbudget/internal/core"
)

// SessionCookie is the cookie the fake API sets on login.
const SessionCookie = "vb_session"

type Server struct {
	*httptest.Server

	mu            sync.Mutex
	nextID        int64
	users         map[string]user
	sessions      map[string]int64
	categories    map[int64]core.Category
	transactions  map[int64]core.Transaction
	notifications map[int64]core.NotificationRule
	integrations  map[int64]core.Integration
	failures      map[string]int
	hits          map[string]int
	now           func() time.Time
}

type user struct {
	id       int64
	name     string
	password string
}

// New starts the fake API with one registered user, "ana"/"secret".
func New() *Server {
	s := &Server{
		nextID:        100,
		users:         map[string]user{"ana": {id: 1, name: "ana", password: "secret"}},
		sessions:      map[string]int64{},
		categories:    map[int64]core.Category{},
		transactions:  map[int64]core.Transaction{},
		notifications: map[int64]core.NotificationRule{},
		integrations:  map[int64]core.Integration{},
		failures:      map[string]int{},
		hits:          map[string]int{},
		now:           time.Now,
	}
	s.Server = httptest.NewServer(s.routes())
	return s
}

// Login opens a session for name directly and returns its cookie.
func (s *Server) Login(name string) *http.Cookie {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[name]
	token := fmt.Sprintf("tok-%d-%d", u.id, len(s.sessions)+1)
	s.sessions[token] = u.id
	return &http.Cookie{Name: SessionCookie, Value: token}
}

// Fail makes every following request to method+path answer status.
func (s *Server) Fail(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = status
}

// Hits counts requests seen for method+path.
func (s *Server) Hits(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[method+" "+path]
}

func (s *Server) SeedCategory(c core.Category) core.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		c.ID = s.id()
	}
	s.categories[c.ID] = c
	return c
}

func (s *Server) SeedTransaction(t core.Transaction) core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == 0 {
		t.ID = s.id()
	}
	if t.CreatedAt == "" {
		t.CreatedAt = s.now().UTC().Format(time.RFC3339Nano)
	}
	s.transactions[t.ID] = t
	return t
}

func (s *Server) SeedIntegration(i core.Integration) core.Integration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i.ID == 0 {
		i.ID = s.id()
	}
	s.integrations[i.ID] = i
	return i
}

// Transaction returns the stored transaction with id.
func (s *Server) Transaction(id int64) (core.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	return t, ok
}

// Category returns the stored category with id.
func (s *Server) Category(id int64) (core.Category, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	return c, ok
}

func (s *Server) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)

	r.Post("/api/auth/login", s.login)
	r.Post("/api/auth/register", s.register)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticated)
		r.Get("/api/auth/me", s.me)
		r.Post("/api/auth/logout", s.logout)

		r.Get("/api/categories", s.listCategories)
		r.Post("/api/categories", s.createCategory)
		r.Get("/api/categories/{id}", s.getCategory)
		r.Put("/api/categories/{id}", s.updateCategory)
		r.Delete("/api/categories/{id}", s.deleteCategory)

		r.Get("/api/transactions", s.listTransactions)
		r.Post("/api/transactions", s.createTransaction)
		r.Get("/api/transactions/{id}", s.getTransaction)
		r.Put("/api/transactions/{id}", s.updateTransaction)
		r.Delete("/api/transactions/{id}", s.deleteTransaction)

		r.Get("/api/notifications", s.listNotifications)
		r.Post("/api/notifications", s.createNotification)
		r.Get("/api/notifications/{id}", s.getNotification)
		r.Put("/api/notifications/{id}", s.updateNotification)
		r.Delete("/api/notifications/{id}", s.deleteNotification)

		r.Get("/api/integrations", s.listIntegrations)
		r.Put("/api/integrations/{id}", s.updateIntegration)
	})
	return r
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		s.hits[key]++
		status, fail := s.failures[key]
		s.mu.Unlock()
		if fail {
			if status == http.StatusNoContent {
				w.WriteHeader(status)
				return
			}
			writeError(w, status, "forced failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ck, err := r.Cookie(SessionCookie)
		s.mu.Lock()
		_, ok := s.sessions[cookieValue(ck, err)]
		s.mu.Unlock()
		if !ok {
			writeError(w, http.StatusUnauthorized, "")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func cookieValue(ck *http.Cookie, err error) string {
	if err != nil || ck == nil {
		return ""
	}
	return ck.Value
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError omits the body when msg is empty, so clients fall back to the
// status text.
func writeError(w http.ResponseWriter, status int, msg string) {
	if msg == "" {
		w.WriteHeader(status)
		return
	}
	writeJSON(w, status, map[string]string{"message": msg})
}

func idParam(r *http.Request) int64 {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var p struct{ Name, Password string }
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.Name == "" {
		writeError(w, http.StatusBadRequest, "nome obrigatório")
		return
	}
	s.mu.Lock()
	u, ok := s.users[p.Name]
	s.mu.Unlock()
	if !ok || u.password != p.Password {
		writeError(w, http.StatusUnauthorized, "")
		return
	}
	http.SetCookie(w, s.Login(p.Name))
	writeJSON(w, http.StatusOK, core.User{ID: u.id, Name: u.name})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var p struct{ Name, Password string }
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.Name == "" || len(p.Password) < 4 {
		writeError(w, http.StatusBadRequest, "Senha muito curta.")
		return
	}
	s.mu.Lock()
	if _, exists := s.users[p.Name]; exists {
		s.mu.Unlock()
		writeError(w, http.StatusBadRequest, "Usuário já existe.")
		return
	}
	u := user{id: s.id(), name: p.Name, password: p.Password}
	s.users[p.Name] = u
	s.mu.Unlock()
	http.SetCookie(w, s.Login(p.Name))
	writeJSON(w, http.StatusCreated, core.User{ID: u.id, Name: u.name})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	ck, err := r.Cookie(SessionCookie)
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.sessions[cookieValue(ck, err)]
	for _, u := range s.users {
		if u.id == id {
			writeJSON(w, http.StatusOK, core.User{ID: u.id, Name: u.name})
			return
		}
	}
	writeError(w, http.StatusUnauthorized, "")
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	ck, err := r.Cookie(SessionCookie)
	s.mu.Lock()
	delete(s.sessions, cookieValue(ck, err))
	s.mu.Unlock()
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", MaxAge: -1, Path: "/"})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listCategories(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sortByID(out, func(c core.Category) int64 { return c.ID })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getCategory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[idParam(r)]
	if !ok {
		writeError(w, http.StatusNotFound, "Categoria não encontrada.")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	var p core.CategoryPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.Name == "" || !p.Kind.Valid() {
		writeError(w, http.StatusBadRequest, "Dados inválidos.")
		return
	}
	s.mu.Lock()
	c := core.Category{ID: s.id(), Name: p.Name, Kind: p.Kind, Color: p.Color}
	s.categories[c.ID] = c
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) updateCategory(w http.ResponseWriter, r *http.Request) {
	var p core.CategoryPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.Name == "" {
		writeError(w, http.StatusBadRequest, "Dados inválidos.")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := idParam(r)
	if _, ok := s.categories[id]; !ok {
		writeError(w, http.StatusNotFound, "Categoria não encontrada.")
		return
	}
	c := core.Category{ID: id, Name: p.Name, Kind: p.Kind, Color: p.Color}
	s.categories[id] = c
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := idParam(r)
	for _, t := range s.transactions {
		if t.CategoryID == id {
			writeError(w, http.StatusConflict, "Categoria possui lançamentos vinculados.")
			return
		}
	}
	delete(s.categories, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listTransactions(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0, len(s.transactions))
	for _, t := range s.transactions {
		out = append(out, t)
	}
	sortByID(out, func(t core.Transaction) int64 { return t.ID })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getTransaction(w http.ResponseWriter, r *http.Request) {
	t, ok := s.Transaction(idParam(r))
	if !ok {
		writeError(w, http.StatusNotFound, "Lançamento não encontrado.")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func validTransaction(p core.TransactionPayload) bool {
	return p.Description != "" && p.Amount.IsPositive() && p.Kind.Valid() && p.Status.Valid() && p.DueDate != ""
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	var p core.TransactionPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || !validTransaction(p) {
		writeError(w, http.StatusBadRequest, "Dados inválidos.")
		return
	}
	s.mu.Lock()
	t := core.Transaction{
		ID: s.id(), Description: p.Description, Amount: p.Amount, Kind: p.Kind, Status: p.Status,
		CategoryID: p.CategoryID, DueDate: p.DueDate, PaidDate: p.PaidDate,
		CreatedAt: s.now().UTC().Format(time.RFC3339Nano),
	}
	s.transactions[t.ID] = t
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) updateTransaction(w http.ResponseWriter, r *http.Request) {
	var p core.TransactionPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || !validTransaction(p) {
		writeError(w, http.StatusBadRequest, "Dados inválidos.")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := idParam(r)
	old, ok := s.transactions[id]
	if !ok {
		writeError(w, http.StatusNotFound, "Lançamento não encontrado.")
		return
	}
	t := core.Transaction{
		ID: id, Description: p.Description, Amount: p.Amount, Kind: p.Kind, Status: p.Status,
		CategoryID: p.CategoryID, DueDate: p.DueDate, PaidDate: p.PaidDate, CreatedAt: old.CreatedAt,
	}
	s.transactions[id] = t
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.transactions, idParam(r))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listNotifications(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.NotificationRule, 0, len(s.notifications))
	for _, n := range s.notifications {
		out = append(out, n)
	}
	sortByID(out, func(n core.NotificationRule) int64 { return n.ID })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getNotification(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[idParam(r)]
	if !ok {
		writeError(w, http.StatusNotFound, "Regra não encontrada.")
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) createNotification(w http.ResponseWriter, r *http.Request) {
	var p core.NotificationRulePayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "Dados inválidos.")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := core.NotificationRule{ID: s.id(), AlertType: p.AlertType, Threshold: p.Threshold, Channels: p.Channels, Enabled: p.Enabled}
	for _, rp := range p.Recipients {
		n.Recipients = append(n.Recipients, core.Recipient{ID: s.id(), Name: rp.Name, Contact: rp.Contact})
	}
	s.notifications[n.ID] = n
	writeJSON(w, http.StatusCreated, n)
}

func (s *Server) updateNotification(w http.ResponseWriter, r *http.Request) {
	var p core.NotificationRulePatch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "Dados inválidos.")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := idParam(r)
	n, ok := s.notifications[id]
	if !ok {
		writeError(w, http.StatusNotFound, "Regra não encontrada.")
		return
	}
	if p.AlertType != nil {
		n.AlertType = *p.AlertType
	}
	if p.Threshold != nil {
		n.Threshold = *p.Threshold
	}
	if p.Channels != nil {
		n.Channels = p.Channels
	}
	if p.Enabled != nil {
		n.Enabled = *p.Enabled
	}
	if p.Recipients != nil {
		n.Recipients = nil
		for _, rp := range p.Recipients {
			n.Recipients = append(n.Recipients, core.Recipient{ID: s.id(), Name: rp.Name, Contact: rp.Contact})
		}
	}
	s.notifications[id] = n
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) deleteNotification(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.notifications, idParam(r))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listIntegrations(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Integration, 0, len(s.integrations))
	for _, i := range s.integrations {
		out = append(out, i)
	}
	sortByID(out, func(i core.Integration) int64 { return i.ID })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) updateIntegration(w http.ResponseWriter, r *http.Request) {
	var p core.IntegrationPatch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "Dados inválidos.")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := idParam(r)
	in, ok := s.integrations[id]
	if !ok {
		writeError(w, http.StatusNotFound, "Integração não encontrada.")
		return
	}
	if p.ConnectionStatus != nil {
		in.ConnectionStatus = *p.ConnectionStatus
	}
	if p.AccessToken != nil {
		in.AccessToken = p.AccessToken
	}
	if p.LastSync != nil {
		in.LastSync = p.LastSync
	}
	s.integrations[id] = in
	writeJSON(w, http.StatusOK, in)
}

func sortByID[T any](items []T, id func(T) int64) {
	sort.Slice(items, func(i, j int) bool { return id(items[i]) < id(items[j]) })
}
