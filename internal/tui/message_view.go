package tui

import (
	"fmt"

	"github.com/rivo/tview"

	"github.com/pcastro/parley/internal/store"
)

// MessageView renders the selected thread's conversation.
type MessageView struct {
	*tview.TextView
	theme *Theme
}

func NewMessageView(theme *Theme) *MessageView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	tv.SetBorder(true).SetTitle(" Messages ")

	return &MessageView{TextView: tv, theme: theme}
}

// SetTheme switches bubble colors on the next Update.
func (mv *MessageView) SetTheme(theme *Theme) {
	mv.theme = theme
}

// SetHeading updates the title with the thread heading.
func (mv *MessageView) SetHeading(heading string) {
	if heading == "" {
		heading = "Messages"
	}
	mv.SetTitle(fmt.Sprintf(" %s ", heading))
}

// Update redraws the conversation. Messages arrive oldest first; when the
// bot is composing a reply an indicator row follows the last message.
func (mv *MessageView) Update(msgs []store.Message, botTyping bool) {
	mv.Clear()

	for _, m := range msgs {
		name, color := "You", mv.theme.UserBubble
		if m.Sender == store.SenderBot {
			name, color = "Bot", mv.theme.BotBubble
		}
		fmt.Fprintf(mv, "[#%06x::b]%s[-:-:-] [::d]%s[-:-:-]\n%s\n\n",
			color.Hex(), name, formatTimestamp(m.CreatedAt), tview.Escape(m.Text))
	}
	if botTyping {
		fmt.Fprint(mv, "[::d]Bot is typing...[-:-:-]\n")
	}

	mv.ScrollToEnd()
}
