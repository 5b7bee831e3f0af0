// Package tui is the interactive terminal client: a login form, the chat
// drawer and the conversation pane, driven by bus events from the session.
package tui

import (
	"context"
	"errors"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/pcastro/parley/internal/account"
	"github.com/pcastro/parley/internal/bus"
	"github.com/pcastro/parley/internal/chat"
	"github.com/pcastro/parley/internal/directory"
	"github.com/pcastro/parley/internal/state"
	"github.com/pcastro/parley/internal/store"
)

// App is the main TUI application shell.
type App struct {
	app       *tview.Application
	pages     *tview.Pages
	session   *chat.Session
	accounts  *account.Service
	dir       *directory.Directory
	persisted *state.Store
	bus       *bus.Bus
	log       *zap.Logger
	theme     *Theme
	flash     *Flash

	login     *LoginView
	chatList  *ChatList
	msgView   *MessageView
	composer  *Composer
	statusBar *StatusBar

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp creates the TUI application.
func NewApp(session *chat.Session, accounts *account.Service, dir *directory.Directory, persisted *state.Store, b *bus.Bus, log *zap.Logger, profileName string) *App {
	ctx, cancel := context.WithCancel(context.Background())

	theme := ThemeByName(persisted.Theme())
	theme.apply()

	a := &App{
		app:       tview.NewApplication(),
		pages:     tview.NewPages(),
		session:   session,
		accounts:  accounts,
		dir:       dir,
		persisted: persisted,
		bus:       b,
		log:       log.Named("tui"),
		theme:     theme,
		flash:     &Flash{},
		login:     NewLoginView(),
		chatList:  NewChatList(),
		msgView:   NewMessageView(theme),
		composer:  NewComposer(),
		statusBar: NewStatusBar(profileName),
		ctx:       ctx,
		cancel:    cancel,
	}

	a.statusBar.SetThemeName(theme.Name)
	a.setupCallbacks()
	a.setupLayout()

	return a
}

func (a *App) setupCallbacks() {
	a.login.SetOnLogin(func(email, phone string) {
		a.login.ShowMessage("Signing in...")
		go a.runLogin(email, phone)
	})

	a.chatList.SetSelectedFunc(func(row, col int) {
		if id := a.chatList.SelectedChat(); id != "" {
			a.openThread(id)
		}
	})

	a.composer.SetOnSend(func(text string) {
		go func() {
			if err := a.session.Send(a.ctx, text); err != nil {
				if errors.Is(err, chat.ErrSendInFlight) {
					a.flash.Set("Still waiting for a reply", 3*time.Second)
				} else {
					a.flash.Set("Send failed: "+err.Error(), 5*time.Second)
				}
				a.log.Warn("send failed", zap.Error(err))
			}
			a.app.QueueUpdateDraw(func() {
				a.redrawThread()
				a.statusBar.SetFlash(a.flash.Get())
			})
		}()
	})
}

func (a *App) setupLayout() {
	threadFlex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.msgView, 0, 1, false).
		AddItem(a.composer, 1, 0, true)

	mainFlex := tview.NewFlex().
		AddItem(a.chatList, 36, 0, true).
		AddItem(threadFlex, 0, 1, false)

	a.pages.AddPage("login", a.login, true, true)
	a.pages.AddPage("main", mainFlex, true, false)

	root := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.statusBar, 1, 0, false)

	a.app.SetRoot(root, true)
	a.app.SetInputCapture(a.handleKey)
}

func (a *App) handleKey(event *tcell.EventKey) *tcell.EventKey {
	currentPage, _ := a.pages.GetFrontPage()

	if event.Key() == tcell.KeyEscape && currentPage == "main" {
		// Deselect the thread and return to the drawer.
		go func() {
			_ = a.session.Select(a.ctx, "")
			a.app.QueueUpdateDraw(func() {
				a.redrawThread()
				a.app.SetFocus(a.chatList)
			})
		}()
		return nil
	}

	// Let text input widgets handle all keys normally.
	focused := a.app.GetFocus()
	if _, ok := focused.(*tview.InputField); ok {
		return event
	}

	if event.Key() != tcell.KeyRune {
		return event
	}

	switch event.Rune() {
	case 'q':
		a.Stop()
		return nil
	case 't':
		a.toggleTheme()
		return nil
	}

	if currentPage != "main" {
		return event
	}

	switch event.Rune() {
	case 'i':
		a.app.SetFocus(a.composer.InputField)
		return nil
	case 'n':
		a.newThread()
		return nil
	case 'd':
		if id := a.chatList.SelectedChat(); id != "" {
			a.confirmDelete(id)
		}
		return nil
	case 'L':
		a.logout()
		return nil
	}
	return event
}

func (a *App) runLogin(email, phone string) {
	res, err := a.accounts.Login(a.ctx, email, phone)
	if err != nil {
		a.app.QueueUpdateDraw(func() { a.login.ShowError(err) })
		return
	}
	if res.Outcome == account.OutcomeAmbiguous {
		a.app.QueueUpdateDraw(func() {
			a.login.ShowMessage("[red]Already registered with a different email or phone[-]")
		})
		return
	}

	if err := a.persisted.SetUserID(res.User.ID); err != nil {
		a.log.Warn("persisting login failed", zap.Error(err))
	}
	a.session.SetUser(res.User.ID)

	if res.Outcome == account.OutcomeRegistered {
		a.flash.Set("Account created", 3*time.Second)
	}
	a.log.Info("login complete", zap.String("outcome", res.Outcome.String()))

	chats := a.loadChats()
	a.app.QueueUpdateDraw(func() {
		a.login.ClearError()
		a.chatList.Update(chats)
		a.redrawThread()
		a.pages.SwitchToPage("main")
		a.app.SetFocus(a.chatList)
		a.statusBar.SetFlash(a.flash.Get())
	})
}

func (a *App) logout() {
	if err := a.persisted.ClearUserID(); err != nil {
		a.log.Warn("clearing login failed", zap.Error(err))
	}
	a.session.ClearUser()
	a.login.Reset()
	a.chatList.Update(nil)
	a.redrawThread()
	a.pages.SwitchToPage("login")
	a.app.SetFocus(a.login)
}

func (a *App) openThread(id string) {
	go func() {
		if err := a.session.Select(a.ctx, id); err != nil {
			a.flash.Set("Load failed: "+err.Error(), 5*time.Second)
			a.log.Warn("select failed", zap.String("thread_id", id), zap.Error(err))
		}
		heading := ""
		for _, c := range a.chatList.chats {
			if c.ID == id {
				heading = c.Heading
				break
			}
		}
		a.app.QueueUpdateDraw(func() {
			a.msgView.SetHeading(heading)
			a.redrawThread()
			a.app.SetFocus(a.composer.InputField)
			a.statusBar.SetFlash(a.flash.Get())
		})
	}()
}

// newThread deselects so the next send starts a fresh chat.
func (a *App) newThread() {
	go func() {
		_ = a.session.Select(a.ctx, "")
		a.app.QueueUpdateDraw(func() {
			a.msgView.SetHeading("New chat")
			a.redrawThread()
			a.app.SetFocus(a.composer.InputField)
		})
	}()
}

func (a *App) confirmDelete(id string) {
	modal := tview.NewModal().
		SetText("Delete this chat and all of its messages?").
		AddButtons([]string{"Delete", "Cancel"}).
		SetDoneFunc(func(_ int, label string) {
			a.pages.RemovePage("confirm")
			a.app.SetFocus(a.chatList)
			if label != "Delete" {
				return
			}
			go func() {
				if err := a.session.DeleteThread(a.ctx, id); err != nil {
					a.flash.Set("Delete failed: "+err.Error(), 5*time.Second)
					a.log.Warn("delete failed", zap.String("thread_id", id), zap.Error(err))
				}
				chats := a.loadChats()
				a.app.QueueUpdateDraw(func() {
					a.chatList.Update(chats)
					a.redrawThread()
					a.statusBar.SetFlash(a.flash.Get())
				})
			}()
		})
	a.pages.AddPage("confirm", modal, true, true)
	a.app.SetFocus(modal)
}

func (a *App) toggleTheme() {
	if a.theme.Name == "dark" {
		a.theme = LightTheme()
	} else {
		a.theme = DarkTheme()
	}
	a.theme.apply()
	a.msgView.SetTheme(a.theme)
	a.statusBar.SetThemeName(a.theme.Name)
	if err := a.persisted.SetTheme(a.theme.Name); err != nil {
		a.log.Warn("persisting theme failed", zap.Error(err))
	}
	a.redrawThread()
}

// loadChats fetches the drawer contents. On failure the previous list
// stays on screen.
func (a *App) loadChats() []store.Chat {
	uid := a.session.UserID()
	if uid == "" {
		return nil
	}
	chats, err := a.dir.List(a.ctx, uid)
	if err != nil {
		a.flash.Set("Chat list unavailable", 5*time.Second)
		a.log.Warn("list failed", zap.Error(err))
		return a.chatList.chats
	}
	return chats
}

func (a *App) redrawThread() {
	a.msgView.Update(a.session.Messages(), a.session.BotTyping())
	a.composer.SetWaiting(a.session.BotTyping())
	a.statusBar.SetState(a.session.State())
}

// Run starts the TUI application.
func (a *App) Run() error {
	go a.watchBus()
	go a.startRefreshLoop()

	if a.session.UserID() != "" {
		// Returning user: skip the login form.
		go func() {
			chats := a.loadChats()
			a.app.QueueUpdateDraw(func() {
				a.chatList.Update(chats)
				a.pages.SwitchToPage("main")
				a.app.SetFocus(a.chatList)
			})
		}()
	}

	return a.app.Run()
}

// watchBus applies session and directory events to the views.
func (a *App) watchBus() {
	sessionCh, unsubSession := a.bus.Subscribe("session.", 16)
	defer unsubSession()
	dirCh, unsubDir := a.bus.Subscribe("directory.", 16)
	defer unsubDir()
	msgCh, unsubMsg := a.bus.Subscribe("message.", 16)
	defer unsubMsg()

	for {
		select {
		case <-sessionCh:
			a.app.QueueUpdateDraw(a.redrawThread)
		case <-msgCh:
			a.app.QueueUpdateDraw(a.redrawThread)
		case <-dirCh:
			chats := a.loadChats()
			a.app.QueueUpdateDraw(func() {
				a.chatList.Update(chats)
			})
		case <-a.ctx.Done():
			return
		}
	}
}

func (a *App) startRefreshLoop() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			a.app.QueueUpdateDraw(func() {
				a.statusBar.SetFlash(a.flash.Get())
			})
		case <-a.ctx.Done():
			return
		}
	}
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}
