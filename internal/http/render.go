package http

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"vbudget/internal/core"
	"vbudget/internal/log"
	"vbudget/internal/views"
)

// Renderer owns the parsed templates. Every page_*.html file gets its own
// clone of the shared set (layout, partials and dialogs), so pages can each
// define "title" and "content" without clashing.
type Renderer struct {
	shared *template.Template
	pages  map[string]*template.Template
}

// pageData is what every full page executes with.
type pageData struct {
	Title  string
	Nav    views.Nav
	Crumbs []views.Breadcrumb
	User   *core.User
	Data   any
}

var templateFuncs = template.FuncMap{
	"dict":       dict,
	"palette":    func() []core.ColorOption { return core.Palette },
	"kinds":      func() []core.Kind { return []core.Kind{core.Income, core.Expense} },
	"statuses":   func() []core.Status { return []core.Status{core.Pending, core.Paid} },
	"alertTypes": func() []core.AlertType { return []core.AlertType{core.LowBalance, core.SpendingLimit} },
	"channels":   func() []core.Channel { return []core.Channel{core.ChannelEmail, core.ChannelWhatsApp} },
	"colorName":  core.ColorName,
}

// dict builds a map from alternating keys and values, for passing several
// values into a nested template.
func dict(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, errors.New("dict: odd number of arguments")
	}
	m := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		k, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", pairs[i])
		}
		m[k] = pairs[i+1]
	}
	return m, nil
}

// NewRenderer parses the templates under templates/ in fsys.
func NewRenderer(fsys fs.FS) (*Renderer, error) {
	shared := template.New("").Funcs(templateFuncs)
	var err error
	for _, pattern := range []string{"templates/layout.html", "templates/partial_*.html", "templates/dialog_*.html"} {
		shared, err = shared.ParseFS(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", pattern, err)
		}
	}

	files, err := fs.Glob(fsys, "templates/page_*.html")
	if err != nil {
		return nil, err
	}
	r := &Renderer{shared: shared, pages: make(map[string]*template.Template, len(files))}
	for _, f := range files {
		clone, err := shared.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := clone.ParseFS(fsys, f); err != nil {
			return nil, fmt.Errorf("parse %s: %w", f, err)
		}
		name := strings.TrimSuffix(strings.TrimPrefix(path.Base(f), "page_"), ".html")
		r.pages[name] = clone
	}
	return r, nil
}

// Page renders a full page through the layout.
func (r *Renderer) Page(name string, data pageData) ([]byte, error) {
	t, ok := r.pages[name]
	if !ok {
		return nil, fmt.Errorf("unknown page %q", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return nil, fmt.Errorf("render page %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// Partial renders one named template of the shared set.
func (r *Renderer) Partial(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.shared.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// renderPage writes a full page for the request's path, with the session
// user in the header.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, name, title string, user *core.User, data any) {
	body, err := s.render.Page(name, pageData{
		Title:  title,
		Nav:    views.NewNav(r.URL.Path),
		Crumbs: views.Breadcrumbs(r.URL.Path),
		User:   user,
		Data:   data,
	})
	s.writeHTML(w, r, name, body, err)
}

// renderPartial writes a fragment for an HTMX swap.
func (s *Server) renderPartial(w http.ResponseWriter, r *http.Request, name string, data any) {
	body, err := s.render.Partial(name, data)
	s.writeHTML(w, r, name, body, err)
}

func (s *Server) writeHTML(w http.ResponseWriter, r *http.Request, name string, body []byte, err error) {
	if err != nil {
		s.templateError(r, name, err)
		InternalServerError("Erro ao montar a página.").Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) templateError(r *http.Request, name string, err error) {
	s.logger.ErrorContext(r.Context(), "Template execution failed",
		"template", name,
		log.FieldError, err,
		log.FieldOperation, log.OpRender)
}
