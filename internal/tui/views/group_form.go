package views

import (
	"strings"

	"github.com/rivo/tview"
)

// GroupForm creates a new group chat: a name plus comma-separated member
// emails.
type GroupForm struct {
	*tview.Form
	onCreate func(name string, memberEmails []string)
	onCancel func()
}

// NewGroupForm creates the form.
func NewGroupForm() *GroupForm {
	f := &GroupForm{Form: tview.NewForm()}
	f.SetBorder(true).SetTitle(" New group ")

	f.AddInputField("Name", "", 40, nil, nil)
	f.AddInputField("Member emails", "", 40, nil, nil)
	f.AddButton("Create", func() {
		if f.onCreate == nil {
			return
		}
		name := f.fieldText("Name")
		if strings.TrimSpace(name) == "" {
			return
		}
		f.onCreate(name, splitEmails(f.fieldText("Member emails")))
	})
	f.AddButton("Cancel", func() {
		if f.onCancel != nil {
			f.onCancel()
		}
	})

	return f
}

// SetOnCreate sets the creation callback.
func (f *GroupForm) SetOnCreate(fn func(name string, memberEmails []string)) {
	f.onCreate = fn
}

// SetOnCancel sets the cancel callback.
func (f *GroupForm) SetOnCancel(fn func()) {
	f.onCancel = fn
}

// Reset clears the form fields.
func (f *GroupForm) Reset() {
	if item, ok := f.GetFormItemByLabel("Name").(*tview.InputField); ok {
		item.SetText("")
	}
	if item, ok := f.GetFormItemByLabel("Member emails").(*tview.InputField); ok {
		item.SetText("")
	}
}

func (f *GroupForm) fieldText(label string) string {
	if input, ok := f.GetFormItemByLabel(label).(*tview.InputField); ok {
		return input.GetText()
	}
	return ""
}

func splitEmails(raw string) []string {
	var emails []string
	for _, part := range strings.Split(raw, ",") {
		if email := strings.TrimSpace(part); email != "" {
			emails = append(emails, email)
		}
	}
	return emails
}
