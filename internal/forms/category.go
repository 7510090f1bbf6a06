package forms

import (
	"regexp"
	"strings"

	"vbudget/internal/core"
)

const MaxCategoryNameLen = 40

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

type CategoryForm struct {
	ID    int64
	Name  string
	Kind  core.Kind
	Color string
}

// NewCategoryForm defaults to an expense category in the first palette color.
func NewCategoryForm() CategoryForm {
	return CategoryForm{Kind: core.Expense, Color: core.Palette[0].Value}
}

func EditCategoryForm(c core.Category) CategoryForm {
	return CategoryForm{ID: c.ID, Name: c.Name, Kind: c.Kind, Color: core.ColorOrDefault(c.Color)}
}

func (f CategoryForm) Editing() bool { return f.ID != 0 }

func (f CategoryForm) Validate() (core.CategoryPayload, FieldErrors) {
	errs := FieldErrors{}
	name := strings.TrimSpace(f.Name)
	switch {
	case name == "":
		errs.Add("name", "Nome é obrigatório.")
	case runeLen(name) > MaxCategoryNameLen:
		errs.Add("name", "Máximo 40 caracteres.")
	}
	if !f.Kind.Valid() {
		errs.Add("kind", "Selecione o tipo.")
	}
	color := strings.TrimSpace(f.Color)
	if color == "" {
		errs.Add("color", "Selecione a cor.")
	} else if !hexColor.MatchString(color) {
		errs.Add("color", "Cor inválida.")
	}
	if !errs.Valid() {
		return core.CategoryPayload{}, errs
	}
	return core.CategoryPayload{Name: name, Kind: f.Kind, Color: strings.ToLower(color)}, nil
}
