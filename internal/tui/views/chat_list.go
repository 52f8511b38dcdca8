package views

import (
	"fmt"

	"github.com/securechat/msgr/internal/api"
	"github.com/rivo/tview"
)

// ChatList is the sidebar chat table.
type ChatList struct {
	*tview.Table
	chats []api.Chat
}

// NewChatList creates a new chat list table.
func NewChatList() *ChatList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false)
	table.SetBorder(true).SetTitle(" Chats ")

	return &ChatList{Table: table}
}

// Update refreshes the chat list with new data, keeping the selection when
// possible.
func (cl *ChatList) Update(chats []api.Chat) {
	selected := cl.SelectedChat()
	cl.chats = chats
	cl.Clear()

	cl.SetCell(0, 0, tview.NewTableCell(" Name").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))
	cl.SetCell(0, 1, tview.NewTableCell(" Last Message").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))

	for i, chat := range chats {
		row := i + 1
		name := chat.Name
		if name == "" {
			name = "Unnamed group"
		}
		if chat.UnreadCount > 0 {
			name = fmt.Sprintf("* %s (%d)", name, chat.UnreadCount)
		}
		preview := chat.LastMessagePreview
		if preview == "" {
			preview = "No messages yet"
		}

		cl.SetCell(row, 0, tview.NewTableCell(" "+name).SetMaxWidth(30).SetExpansion(1))
		cl.SetCell(row, 1, tview.NewTableCell(" "+preview).SetMaxWidth(40).SetExpansion(2))

		if chat.ID == selected {
			cl.Select(row, 0)
		}
	}
}

// SelectedChat returns the id of the currently selected chat.
func (cl *ChatList) SelectedChat() string {
	row, _ := cl.GetSelection()
	idx := row - 1 // account for header
	if idx >= 0 && idx < len(cl.chats) {
		return cl.chats[idx].ID
	}
	return ""
}
