package http

import (
	"context"
	"fmt"
	"net/http"

	"vbudget/internal/core"
	"vbudget/internal/forms"
	"vbudget/internal/log"
	"vbudget/internal/session"
	"vbudget/internal/ui/dialog"
	"vbudget/internal/views"
)

type categoryDialog struct {
	Form   forms.CategoryForm
	Errors forms.FieldErrors
}

type categoriesList struct {
	Rows []views.CategoryRow
}

func (s *Server) categoriesList(ctx context.Context, sess *session.Session) categoriesList {
	cats, err := s.loadCategories(ctx, sess)
	if err != nil {
		s.listFailed(ctx, "categories", err)
	}
	return categoriesList{Rows: views.CategoryRows(cats)}
}

// handleSettingsPage renders the settings page, which manages categories.
func (s *Server) handleSettingsPage(w http.ResponseWriter, r *http.Request) {
	sess, user := s.current(r)
	s.renderPage(w, r, "settings", "Configurações", &user, s.categoriesList(r.Context(), sess))
}

func (s *Server) handleCategoriesPartial(w http.ResponseWriter, r *http.Request) {
	sess, _ := s.current(r)
	s.renderPartial(w, r, "categories_table", s.categoriesList(r.Context(), sess))
}

func (s *Server) handleNewCategory(w http.ResponseWriter, r *http.Request) {
	s.renderPartial(w, r, "dialog_category", categoryDialog{Form: forms.NewCategoryForm()})
}

func (s *Server) handleEditCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := IDParam(r)
	if !ok {
		ToastError("Categoria não encontrada.").Write(w)
		return
	}
	c, err := s.deps.Categories.Get(r.Context(), id)
	if err != nil {
		s.openFailed(w, r, "category", id, err, "Erro ao carregar categoria.")
		return
	}
	s.renderPartial(w, r, "dialog_category", categoryDialog{Form: forms.EditCategoryForm(c)})
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	s.saveCategory(w, r, 0)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := IDParam(r)
	if !ok {
		ToastError("Categoria não encontrada.").Write(w)
		return
	}
	s.saveCategory(w, r, id)
}

func (s *Server) saveCategory(w http.ResponseWriter, r *http.Request, id int64) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()
	sess, _ := s.current(r)

	f := ParseCategoryForm(r.Form)
	f.ID = id
	payload, errs := f.Validate()
	if !errs.Valid() {
		s.renderPartial(w, r, "dialog_category", categoryDialog{Form: f, Errors: errs})
		return
	}

	op, toast := log.OpCreate, "Categoria criada!"
	if f.Editing() {
		op, toast = log.OpUpdate, "Categoria atualizada!"
	}
	out, err := dialog.Submit(ctx, dialog.Opened(f), func(ctx context.Context, f forms.CategoryForm) error {
		var (
			saved core.Category
			err   error
		)
		if f.Editing() {
			saved, err = s.deps.Categories.Update(ctx, f.ID, payload)
		} else {
			saved, err = s.deps.Categories.Create(ctx, payload)
		}
		id = saved.ID
		return err
	}, dialog.Outcome{Toast: toast, Refresh: RefreshCategories}, failure("Erro ao salvar categoria."))
	if err == nil {
		s.categories.Invalidate(sess.Key())
	}
	s.finish(w, r, out, err, op, "category", id)
}

func (s *Server) handleDeleteCategoryDialog(w http.ResponseWriter, r *http.Request) {
	id, ok := IDParam(r)
	if !ok {
		ToastError("Categoria não encontrada.").Write(w)
		return
	}
	s.renderConfirm(w, r, confirmDialog{
		Title:       "Excluir categoria",
		Description: "Tem certeza? Categorias vinculadas a lançamentos não poderão ser removidas.",
		Action:      fmt.Sprintf("/categories/%d", id),
		Confirm:     "Excluir",
	})
}

// handleDeleteCategory deletes a category. The API refuses categories still
// referenced by transactions; that failure stays visible as a toast.
func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := IDParam(r)
	if !ok {
		ToastError("Categoria não encontrada.").Write(w)
		return
	}
	ctx := r.Context()
	sess, _ := s.current(r)
	out, err := dialog.Submit(ctx, dialog.Opened(id), s.deps.Categories.Delete,
		dialog.Outcome{Toast: "Categoria excluída!", Refresh: RefreshCategories},
		failure("Erro ao excluir categoria."))
	if err == nil {
		s.categories.Invalidate(sess.Key())
	}
	s.finish(w, r, out, err, log.OpDelete, "category", id)
}
