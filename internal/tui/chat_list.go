package tui

import (
	"time"

	"github.com/rivo/tview"

	"github.com/pcastro/parley/internal/store"
)

// ChatList is the thread drawer: one row per chat, most recent first.
type ChatList struct {
	*tview.Table
	chats []store.Chat
}

func NewChatList() *ChatList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false)
	table.SetBorder(true).SetTitle(" Chats (n:new d:delete) ")

	return &ChatList{Table: table}
}

// Update refreshes the drawer with a new thread list.
func (cl *ChatList) Update(chats []store.Chat) {
	cl.chats = chats
	cl.Clear()

	cl.SetCell(0, 0, tview.NewTableCell(" Heading").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))
	cl.SetCell(0, 1, tview.NewTableCell(" Last Active").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))

	for i, chat := range chats {
		row := i + 1
		heading := chat.Heading
		if heading == "" {
			heading = "(untitled)"
		}
		cl.SetCell(row, 0, tview.NewTableCell(" "+heading).SetMaxWidth(34).SetExpansion(1))
		cl.SetCell(row, 1, tview.NewTableCell(" "+formatTimestamp(chat.UpdatedAt)).SetMaxWidth(12))
	}
}

// SelectedChat returns the id of the currently selected thread.
func (cl *ChatList) SelectedChat() string {
	row, _ := cl.GetSelection()
	idx := row - 1 // account for header
	if idx >= 0 && idx < len(cl.chats) {
		return cl.chats[idx].ID
	}
	return ""
}

func formatTimestamp(ms int64) string {
	if ms == 0 {
		return ""
	}
	t := time.UnixMilli(ms)
	now := time.Now()
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}
	return t.Format("01/02")
}
