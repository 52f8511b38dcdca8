package views

import (
	"github.com/rivo/tview"
)

// AuthMode selects between the login and register variants of the form.
type AuthMode int

const (
	ModeLogin AuthMode = iota
	ModeRegister
)

// Credentials is the submitted form content.
type Credentials struct {
	Mode        AuthMode
	Email       string
	Password    string
	DisplayName string
}

// AuthForm is the login/register screen shown while unauthenticated.
type AuthForm struct {
	*tview.Form
	mode     AuthMode
	onSubmit func(Credentials)
}

// NewAuthForm creates the form in login mode.
func NewAuthForm() *AuthForm {
	f := &AuthForm{Form: tview.NewForm()}
	f.SetBorder(true)
	f.build()
	return f
}

// SetOnSubmit sets the callback invoked with the filled-in credentials.
func (f *AuthForm) SetOnSubmit(fn func(Credentials)) {
	f.onSubmit = fn
}

// ShowMessage replaces the form title with a status message.
func (f *AuthForm) ShowMessage(msg string) {
	f.SetTitle(" " + msg + " ")
}

func (f *AuthForm) build() {
	f.Clear(true)

	if f.mode == ModeLogin {
		f.SetTitle(" Sign in ")
	} else {
		f.SetTitle(" Create account ")
	}

	f.AddInputField("Email", "", 40, nil, nil)
	f.AddPasswordField("Password", "", 40, '*', nil)
	if f.mode == ModeRegister {
		f.AddInputField("Display name", "", 40, nil, nil)
	}

	submitLabel := "Login"
	switchLabel := "Need an account?"
	if f.mode == ModeRegister {
		submitLabel = "Register"
		switchLabel = "Have an account?"
	}

	f.AddButton(submitLabel, func() {
		if f.onSubmit == nil {
			return
		}
		creds := Credentials{
			Mode:     f.mode,
			Email:    f.fieldText("Email"),
			Password: f.fieldText("Password"),
		}
		if f.mode == ModeRegister {
			creds.DisplayName = f.fieldText("Display name")
		}
		f.onSubmit(creds)
	})
	f.AddButton(switchLabel, func() {
		if f.mode == ModeLogin {
			f.mode = ModeRegister
		} else {
			f.mode = ModeLogin
		}
		f.build()
	})
}

func (f *AuthForm) fieldText(label string) string {
	if item := f.GetFormItemByLabel(label); item != nil {
		if input, ok := item.(*tview.InputField); ok {
			return input.GetText()
		}
	}
	return ""
}
