package views

import (
	"fmt"
	"time"

	"github.com/securechat/msgr/internal/api"
	"github.com/rivo/tview"
)

// MessageView displays the active chat's thread.
type MessageView struct {
	*tview.TextView
	selfID string
}

// NewMessageView creates a new message view.
func NewMessageView() *MessageView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	tv.SetBorder(true).SetTitle(" Messages ")

	return &MessageView{TextView: tv}
}

// SetChatName updates the title with the chat name.
func (mv *MessageView) SetChatName(name string) {
	if name == "" {
		name = "Messages"
	}
	mv.SetTitle(fmt.Sprintf(" %s ", name))
}

// SetSelfID marks which sender id renders as "You".
func (mv *MessageView) SetSelfID(id string) {
	mv.selfID = id
}

// Update refreshes the view. Optimistic messages carry a pending marker
// until the server acknowledges them.
func (mv *MessageView) Update(msgs []api.Message) {
	mv.Clear()

	for _, m := range msgs {
		sender := m.SenderDisplayName
		if sender == "" {
			sender = "User"
		}
		if mv.selfID != "" && m.SenderID == mv.selfID {
			sender = "You"
		}

		marker := ""
		if m.Optimistic {
			marker = " [::d](sending…)[-:-:-]"
		}
		line := fmt.Sprintf("[::b]%s[-:-:-] [::d]%s[-:-:-]%s\n%s\n\n", sender, formatTimestamp(m.CreatedAt), marker, m.Text)
		_, _ = fmt.Fprint(mv, line)
	}

	mv.ScrollToEnd()
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	now := time.Now()
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}
	return t.Format("01/02 15:04")
}
