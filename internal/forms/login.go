package forms

import "strings"

const (
	ModeLogin    = "login"
	ModeRegister = "register"
)

// LoginForm backs the login page in both of its modes.
type LoginForm struct {
	Mode     string
	Name     string
	Password string
}

func (f LoginForm) Registering() bool { return f.Mode == ModeRegister }

// Toggled returns the other mode, keeping the typed name.
func (f LoginForm) Toggled() LoginForm {
	if f.Registering() {
		f.Mode = ModeLogin
	} else {
		f.Mode = ModeRegister
	}
	f.Password = ""
	return f
}

func (f LoginForm) Validate() FieldErrors {
	errs := FieldErrors{}
	if strings.TrimSpace(f.Name) == "" {
		errs.Add("name", "Informe o usuário.")
	}
	if f.Password == "" {
		errs.Add("password", "Informe a senha.")
	}
	return errs
}
