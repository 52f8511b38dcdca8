package views

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/securechat/msgr/internal/api"
)

// MembersView lists the active chat's members and lets the user add one by
// email or remove the highlighted entry.
type MembersView struct {
	*tview.Flex
	list    *tview.List
	input   *tview.InputField
	members []api.Member

	onAdd    func(email string)
	onRemove func(userID string)
	onClose  func()
}

// NewMembersView creates the view.
func NewMembersView() *MembersView {
	mv := &MembersView{
		list: tview.NewList().ShowSecondaryText(true),
		input: tview.NewInputField().
			SetLabel(" Add email: ").
			SetFieldWidth(0),
	}

	mv.input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		email := mv.input.GetText()
		if email != "" && mv.onAdd != nil {
			mv.onAdd(email)
			mv.input.SetText("")
		}
	})

	mv.list.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch {
		case event.Key() == tcell.KeyDelete || event.Rune() == 'd':
			if m, ok := mv.selected(); ok && mv.onRemove != nil {
				mv.onRemove(m.ID)
			}
			return nil
		case event.Key() == tcell.KeyEscape || event.Rune() == 'q':
			if mv.onClose != nil {
				mv.onClose()
			}
			return nil
		}
		return event
	})

	mv.Flex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(mv.list, 0, 1, true).
		AddItem(mv.input, 1, 0, false)
	mv.SetBorder(true).SetTitle(" Members (d: remove, Esc: close) ")

	return mv
}

// SetOnAdd sets the callback for adding a member by email.
func (mv *MembersView) SetOnAdd(fn func(email string)) {
	mv.onAdd = fn
}

// SetOnRemove sets the callback for removing the highlighted member.
func (mv *MembersView) SetOnRemove(fn func(userID string)) {
	mv.onRemove = fn
}

// SetOnClose sets the callback for dismissing the view.
func (mv *MembersView) SetOnClose(fn func()) {
	mv.onClose = fn
}

// Update replaces the member list.
func (mv *MembersView) Update(members []api.Member) {
	mv.members = members
	mv.list.Clear()
	for _, m := range members {
		name := m.DisplayName
		if name == "" {
			name = m.Email
		}
		mv.list.AddItem(name, m.Email, 0, nil)
	}
}

// InputField returns the add-member input, for focus handling.
func (mv *MembersView) InputField() *tview.InputField {
	return mv.input
}

func (mv *MembersView) selected() (api.Member, bool) {
	idx := mv.list.GetCurrentItem()
	if idx < 0 || idx >= len(mv.members) {
		return api.Member{}, false
	}
	return mv.members[idx], true
}
