package views

import (
	"fmt"
	"sync"
	"time"

	"github.com/rivo/tview"
)

// StatusBar displays the profile, connection state, and transient flashes.
type StatusBar struct {
	*tview.TextView

	mu       sync.Mutex
	profile  string
	identity string
	realtime string
	flash    string
	expires  time.Time
}

// NewStatusBar creates a new status bar.
func NewStatusBar() *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(tview.Styles.MoreContrastBackgroundColor)

	return &StatusBar{TextView: tv, realtime: "offline"}
}

// SetProfile updates the profile name display.
func (sb *StatusBar) SetProfile(name string) {
	sb.mu.Lock()
	sb.profile = name
	sb.mu.Unlock()
	sb.render()
}

// SetIdentity updates the signed-in user display.
func (sb *StatusBar) SetIdentity(label string) {
	sb.mu.Lock()
	sb.identity = label
	sb.mu.Unlock()
	sb.render()
}

// SetRealtime updates the push connection indicator.
func (sb *StatusBar) SetRealtime(connected bool) {
	sb.mu.Lock()
	if connected {
		sb.realtime = "live"
	} else {
		sb.realtime = "offline"
	}
	sb.mu.Unlock()
	sb.render()
}

// Flash shows a temporary message for the given duration.
func (sb *StatusBar) Flash(msg string, d time.Duration) {
	sb.mu.Lock()
	sb.flash = msg
	sb.expires = time.Now().Add(d)
	sb.mu.Unlock()
	sb.render()
}

func (sb *StatusBar) render() {
	sb.mu.Lock()
	line := fmt.Sprintf(" [::b]%s[-:-:-] | %s | %s", sb.profile, sb.identity, sb.realtime)
	if sb.flash != "" && time.Now().Before(sb.expires) {
		line += fmt.Sprintf(" | [yellow]%s[-]", sb.flash)
	}
	sb.mu.Unlock()

	sb.Clear()
	_, _ = fmt.Fprint(sb, line)
}
