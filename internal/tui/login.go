package tui

import (
	"errors"

	"github.com/rivo/tview"

	"github.com/pcastro/parley/internal/account"
)

// LoginView is the email/phone login form. Validation errors show inline
// under the form, tagged with the offending field.
type LoginView struct {
	*tview.Flex
	form    *tview.Form
	errText *tview.TextView
	onLogin func(email, phone string)
}

func NewLoginView() *LoginView {
	form := tview.NewForm().
		AddInputField("Email", "", 40, nil, nil).
		AddInputField("Phone", "", 40, nil, nil)
	form.SetBorder(true).SetTitle(" Sign in ")

	errText := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)

	v := &LoginView{form: form, errText: errText}
	form.AddButton("Login", func() {
		if v.onLogin != nil {
			v.onLogin(v.fieldText(0), v.fieldText(1))
		}
	})

	v.Flex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().
			AddItem(nil, 0, 1, false).
			AddItem(tview.NewFlex().
				SetDirection(tview.FlexRow).
				AddItem(form, 9, 0, true).
				AddItem(errText, 2, 0, false), 50, 0, true).
			AddItem(nil, 0, 1, false), 11, 0, true).
		AddItem(nil, 0, 1, false)
	return v
}

// SetOnLogin sets the callback for the login button.
func (v *LoginView) SetOnLogin(fn func(email, phone string)) {
	v.onLogin = fn
}

// ShowError renders a login failure. FieldErrors are prefixed with the
// field name so the user knows which input to fix.
func (v *LoginView) ShowError(err error) {
	var fe *account.FieldError
	if errors.As(err, &fe) {
		v.errText.SetText("[red]" + fe.Field + ": " + fe.Message + "[-]")
		return
	}
	v.errText.SetText("[red]" + err.Error() + "[-]")
}

// ShowMessage renders a neutral status line under the form.
func (v *LoginView) ShowMessage(msg string) {
	v.errText.SetText(msg)
}

// ClearError empties the error line.
func (v *LoginView) ClearError() {
	v.errText.SetText("")
}

// Reset clears both fields, for logout.
func (v *LoginView) Reset() {
	v.fieldInput(0).SetText("")
	v.fieldInput(1).SetText("")
	v.ClearError()
	v.form.SetFocus(0)
}

func (v *LoginView) fieldText(i int) string {
	return v.fieldInput(i).GetText()
}

func (v *LoginView) fieldInput(i int) *tview.InputField {
	return v.form.GetFormItem(i).(*tview.InputField)
}
