package tui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// Theme holds color constants for the TUI.
type Theme struct {
	Name        string
	BgColor     tcell.Color
	FgColor     tcell.Color
	BorderColor tcell.Color
	FocusColor  tcell.Color
	UserBubble  tcell.Color
	BotBubble   tcell.Color
	HeaderFg    tcell.Color
	CursorFg    tcell.Color
	CursorBg    tcell.Color
	FlashColor  tcell.Color
	StatusBg    tcell.Color
}

// DarkTheme is the default.
func DarkTheme() *Theme {
	return &Theme{
		Name:        "dark",
		BgColor:     tcell.ColorBlack,
		FgColor:     tcell.ColorCadetBlue,
		BorderColor: tcell.ColorDodgerBlue,
		FocusColor:  tcell.ColorLightSkyBlue,
		UserBubble:  tcell.ColorAqua,
		BotBubble:   tcell.ColorNavajoWhite,
		HeaderFg:    tcell.ColorWhite,
		CursorFg:    tcell.ColorBlack,
		CursorBg:    tcell.ColorAqua,
		FlashColor:  tcell.ColorOrange,
		StatusBg:    tcell.ColorDarkSlateGray,
	}
}

func LightTheme() *Theme {
	return &Theme{
		Name:        "light",
		BgColor:     tcell.ColorWhite,
		FgColor:     tcell.ColorBlack,
		BorderColor: tcell.ColorDarkBlue,
		FocusColor:  tcell.ColorBlue,
		UserBubble:  tcell.ColorDarkBlue,
		BotBubble:   tcell.ColorDarkGreen,
		HeaderFg:    tcell.ColorBlack,
		CursorFg:    tcell.ColorWhite,
		CursorBg:    tcell.ColorDarkBlue,
		FlashColor:  tcell.ColorDarkRed,
		StatusBg:    tcell.ColorLightGray,
	}
}

// ThemeByName maps a persisted theme name back to a theme. Unknown names
// fall back to dark.
func ThemeByName(name string) *Theme {
	if name == "light" {
		return LightTheme()
	}
	return DarkTheme()
}

// apply pushes the theme into tview's global styles. Widgets built after
// this pick the colors up automatically.
func (t *Theme) apply() {
	tview.Styles.PrimitiveBackgroundColor = t.BgColor
	tview.Styles.ContrastBackgroundColor = t.BgColor
	tview.Styles.MoreContrastBackgroundColor = t.StatusBg
	tview.Styles.PrimaryTextColor = t.FgColor
	tview.Styles.SecondaryTextColor = t.HeaderFg
	tview.Styles.BorderColor = t.BorderColor
	tview.Styles.TitleColor = t.HeaderFg
}
