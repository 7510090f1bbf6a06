package http

import (
	"net/http"

	"vbudget/internal/api"
	"vbudget/internal/core"
	"vbudget/internal/forms"
	"vbudget/internal/log"
	"vbudget/internal/session"
)

type loginData struct {
	Form   forms.LoginForm
	Errors forms.FieldErrors
	Error  string
}

// loginError turns an auth API failure into the message shown on the card.
func loginError(err error) string {
	switch {
	case api.IsUnauthorized(err):
		return "Usuário ou senha inválidos."
	case api.IsBadRequest(err):
		return api.MessageOf(err, "Dados inválidos.")
	default:
		return "Erro inesperado. Tente novamente."
	}
}

func loginMode(raw string) string {
	if raw == forms.ModeRegister {
		return forms.ModeRegister
	}
	return forms.ModeLogin
}

// handleLoginPage shows the login card; a signed-in user goes straight to
// the dashboard.
func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	creds := api.NewCredentials(r.Cookies())
	if creds.Key() != "" {
		if _, err := s.deps.Sessions.Init(r.Context(), creds); err == nil {
			session.Redirect(w, r, "/")
			return
		}
	}
	data := loginData{Form: forms.LoginForm{Mode: loginMode(r.URL.Query().Get("mode"))}}
	title := "Entrar"
	if data.Form.Registering() {
		title = "Criar conta"
	}
	s.renderPage(w, r, "login", title, nil, data)
}

// handleLoginToggle swaps the card between login and register, keeping the
// typed name.
func (s *Server) handleLoginToggle(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	f := ParseLoginForm(r.Form, loginMode(r.Form.Get("mode")))
	s.renderPartial(w, r, "login_card", loginData{Form: f.Toggled()})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.authenticate(w, r, forms.ModeLogin)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	s.authenticate(w, r, forms.ModeRegister)
}

// authenticate signs the user in or up. The API answers with a session
// cookie, which is relayed to the browser before redirecting home.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request, mode string) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	f := ParseLoginForm(r.Form, mode)
	if errs := f.Validate(); !errs.Valid() {
		f.Password = ""
		s.renderPartial(w, r, "login_card", loginData{Form: f, Errors: errs})
		return
	}

	creds := api.NewCredentials(r.Cookies())
	ctx := api.WithCredentials(r.Context(), creds)
	payload := api.LoginPayload{Name: f.Name, Password: f.Password}

	var (
		user core.User
		err  error
	)
	if f.Registering() {
		user, err = s.deps.Auth.Register(ctx, payload)
	} else {
		user, err = s.deps.Auth.Login(ctx, payload)
	}
	if err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Authentication failed",
			log.FieldOperation, log.OpLogin,
			log.FieldAPIStatus, api.StatusOf(err),
			"mode", mode,
			log.FieldError, err)
		f.Password = ""
		s.renderPartial(w, r, "login_card", loginData{Form: f, Error: loginError(err)})
		return
	}

	log.FromContext(ctx).InfoContext(ctx, "User signed in",
		log.FieldOperation, log.OpLogin,
		log.FieldUserID, user.ID,
		"mode", mode)
	s.deps.Sessions.RelayCookies(w, creds)
	session.Redirect(w, r, "/")
}

// handleLogout ends the session at the API, drops every cached list of the
// session and returns to the login page whatever the API answered.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess, user := s.current(r)
	ctx := r.Context()
	if err := sess.Logout(ctx); err != nil {
		// The API may still honor the cookie; make the browser forget it.
		for _, ck := range r.Cookies() {
			http.SetCookie(w, &http.Cookie{Name: ck.Name, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
		}
	} else {
		log.FromContext(ctx).InfoContext(ctx, "User signed out",
			log.FieldOperation, log.OpLogout,
			log.FieldUserID, user.ID)
		s.deps.Sessions.RelayCookies(w, sess.Credentials())
	}
	session.Redirect(w, r, session.LoginPath)
}
