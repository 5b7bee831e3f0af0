package tui

import (
	"fmt"
	"time"

	"github.com/rivo/tview"

	"github.com/pcastro/parley/internal/chat"
)

// StatusBar displays the profile, session state and transient messages.
type StatusBar struct {
	*tview.TextView
	profile string
	state   chat.State
	theme   string
	flash   string
}

func NewStatusBar(profile string) *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(tview.Styles.MoreContrastBackgroundColor)

	sb := &StatusBar{TextView: tv, profile: profile, state: chat.NoThread}
	sb.render()
	return sb
}

// SetState updates the session state display.
func (sb *StatusBar) SetState(s chat.State) {
	sb.state = s
	sb.render()
}

// SetThemeName updates the theme indicator.
func (sb *StatusBar) SetThemeName(name string) {
	sb.theme = name
	sb.render()
}

// SetFlash sets a temporary message.
func (sb *StatusBar) SetFlash(msg string) {
	sb.flash = msg
	sb.render()
}

func (sb *StatusBar) render() {
	sb.Clear()

	clock := time.Now().Format("15:04")
	line := fmt.Sprintf(" [::b]%s[-:-:-] | %s | %s | t:%s q:quit", sb.profile, sb.state, clock, sb.theme)
	if sb.flash != "" {
		line += fmt.Sprintf(" | [yellow]%s[-]", sb.flash)
	}

	fmt.Fprint(sb, line)
}
