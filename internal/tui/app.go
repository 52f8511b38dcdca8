// Package tui is the terminal front end: an auth screen while signed out
// and a chat list / message thread layout while signed in. All state lives
// in the session controller and the conversation coordinator; the TUI only
// renders snapshots and forwards input.
package tui

import (
	"context"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/securechat/msgr/internal/bus"
	"github.com/securechat/msgr/internal/conversation"
	"github.com/securechat/msgr/internal/realtime"
	"github.com/securechat/msgr/internal/session"
	"github.com/securechat/msgr/internal/tui/views"
)

const flashDuration = 5 * time.Second

// App is the main TUI application shell.
type App struct {
	app   *tview.Application
	pages *tview.Pages

	controller  *session.Controller
	coordinator *conversation.Coordinator
	channel     *realtime.Channel
	bus         *bus.Bus
	logger      *zap.Logger

	statusBar   *views.StatusBar
	chatList    *views.ChatList
	msgView     *views.MessageView
	composer    *views.Composer
	authForm    *views.AuthForm
	groupForm   *views.GroupForm
	membersView *views.MembersView

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp creates the TUI application.
func NewApp(controller *session.Controller, coordinator *conversation.Coordinator, channel *realtime.Channel, b *bus.Bus, profileName string, logger *zap.Logger) *App {
	ctx, cancel := context.WithCancel(context.Background())
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &App{
		app:         tview.NewApplication(),
		pages:       tview.NewPages(),
		controller:  controller,
		coordinator: coordinator,
		channel:     channel,
		bus:         b,
		logger:      logger,
		statusBar:   views.NewStatusBar(),
		chatList:    views.NewChatList(),
		msgView:     views.NewMessageView(),
		composer:    views.NewComposer(),
		authForm:    views.NewAuthForm(),
		groupForm:   views.NewGroupForm(),
		membersView: views.NewMembersView(),
		ctx:         ctx,
		cancel:      cancel,
	}

	a.statusBar.SetProfile(profileName)
	a.setupCallbacks()
	a.setupLayout()

	return a
}

func (a *App) setupCallbacks() {
	a.authForm.SetOnSubmit(func(creds views.Credentials) {
		a.authForm.ShowMessage("Signing in…")
		go func() {
			var err error
			if creds.Mode == views.ModeRegister {
				_, err = a.controller.Register(a.ctx, creds.Email, creds.Password, creds.DisplayName)
			} else {
				_, err = a.controller.Login(a.ctx, creds.Email, creds.Password)
			}
			if err != nil {
				a.app.QueueUpdateDraw(func() {
					a.authForm.ShowMessage("Failed: " + err.Error())
				})
				return
			}
			a.enterMessenger()
		}()
	})

	a.chatList.SetSelectedFunc(func(row, col int) {
		chatID := a.chatList.SelectedChat()
		if chatID == "" {
			return
		}
		go a.coordinator.SetActiveChat(a.ctx, chatID)
	})

	a.composer.SetOnSend(func(text string) {
		go func() {
			if err := a.coordinator.Send(a.ctx, text); err != nil {
				a.flash("Send failed: " + err.Error())
			}
		}()
	})

	a.groupForm.SetOnCreate(func(name string, memberEmails []string) {
		go func() {
			if err := a.coordinator.CreateChat(a.ctx, name, memberEmails); err != nil {
				a.flash("Create failed: " + err.Error())
			}
			a.app.QueueUpdateDraw(func() {
				a.groupForm.Reset()
				a.pages.SwitchToPage("main")
				a.app.SetFocus(a.chatList)
			})
		}()
	})
	a.groupForm.SetOnCancel(func() {
		a.groupForm.Reset()
		a.pages.SwitchToPage("main")
		a.app.SetFocus(a.chatList)
	})

	a.membersView.SetOnAdd(func(email string) {
		go func() {
			if err := a.coordinator.AddMember(a.ctx, email); err != nil {
				a.flash("Add member failed: " + err.Error())
			}
			a.refreshMembers()
		}()
	})
	a.membersView.SetOnRemove(func(userID string) {
		go func() {
			if err := a.coordinator.RemoveMember(a.ctx, userID); err != nil {
				a.flash("Remove member failed: " + err.Error())
			}
			a.refreshMembers()
		}()
	})
	a.membersView.SetOnClose(func() {
		a.pages.SwitchToPage("main")
		a.app.SetFocus(a.chatList)
	})
}

func (a *App) setupLayout() {
	thread := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.msgView, 0, 1, false).
		AddItem(a.composer, 1, 0, false)

	main := tview.NewFlex().
		AddItem(a.chatList, 0, 1, true).
		AddItem(thread, 0, 2, false)

	authCentered := tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().
			SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(a.authForm, 13, 0, true).
			AddItem(nil, 0, 1, false), 50, 0, true).
		AddItem(nil, 0, 1, false)

	a.pages.AddPage("auth", authCentered, true, true)
	a.pages.AddPage("main", main, true, false)
	a.pages.AddPage("group", a.groupForm, true, false)
	a.pages.AddPage("members", a.membersView, true, false)

	root := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.statusBar, 1, 0, false)

	a.app.SetRoot(root, true)

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		currentPage, _ := a.pages.GetFrontPage()

		if event.Key() == tcell.KeyEscape {
			switch currentPage {
			case "group", "members":
				a.pages.SwitchToPage("main")
				a.app.SetFocus(a.chatList)
				return nil
			}
		}

		// Text input widgets handle their own keys.
		if _, ok := a.app.GetFocus().(*tview.InputField); ok {
			return event
		}

		if currentPage != "main" || event.Key() != tcell.KeyRune {
			return event
		}

		switch event.Rune() {
		case 'q':
			a.app.Stop()
			return nil
		case 'i':
			a.app.SetFocus(a.composer.InputField)
			return nil
		case 'n':
			a.pages.SwitchToPage("group")
			a.app.SetFocus(a.groupForm)
			return nil
		case 'm':
			a.showMembers()
			return nil
		case 'L':
			a.logout()
			return nil
		}

		return event
	})
}

// Run bootstraps the session and starts the event loop. It blocks until the
// application exits.
func (a *App) Run() error {
	go a.consumeEvents()

	go func() {
		a.controller.Bootstrap(a.ctx)
		if a.controller.IsAuthenticated() {
			a.enterMessenger()
		} else {
			a.app.QueueUpdateDraw(func() {
				a.pages.SwitchToPage("auth")
				a.app.SetFocus(a.authForm)
			})
		}
	}()

	return a.app.Run()
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}

// enterMessenger switches to the signed-in layout, opens the push channel,
// and loads the chat list. Safe to call from any goroutine.
func (a *App) enterMessenger() {
	connected := a.channel.Start(a.ctx)
	a.coordinator.LoadChats(a.ctx)

	a.app.QueueUpdateDraw(func() {
		a.statusBar.SetIdentity(a.controller.User().Label())
		a.statusBar.SetRealtime(connected)
		a.msgView.SetSelfID(selfID(a.controller))
		a.render()
		a.pages.SwitchToPage("main")
		a.app.SetFocus(a.chatList)
	})
}

func (a *App) logout() {
	a.channel.Stop()
	a.controller.Logout()
	a.statusBar.SetIdentity("")
	a.statusBar.SetRealtime(false)
	a.pages.SwitchToPage("auth")
	a.authForm.ShowMessage("Signed out")
	a.app.SetFocus(a.authForm)
}

func (a *App) showMembers() {
	if a.coordinator.ActiveChatID() == "" {
		a.flash("No active chat")
		return
	}
	a.pages.SwitchToPage("members")
	a.app.SetFocus(a.membersView)
	a.refreshMembers()
}

func (a *App) refreshMembers() {
	go func() {
		members, err := a.coordinator.Members(a.ctx)
		if err != nil {
			a.flash("Members unavailable: " + err.Error())
			return
		}
		a.app.QueueUpdateDraw(func() {
			a.membersView.Update(members)
		})
	}()
}

// consumeEvents redraws in response to bus events: conversation changes
// refresh the lists, realtime transitions drive the connection indicator,
// send failures flash.
func (a *App) consumeEvents() {
	ch, unsub := a.bus.Subscribe("", 256)
	defer unsub()

	for {
		select {
		case evt := <-ch:
			switch evt.Kind {
			case bus.KindConvUpdated:
				a.app.QueueUpdateDraw(a.render)
			case bus.KindConvMessageSendFailed:
				if reason, ok := evt.Payload.(string); ok {
					a.flash("Send failed: " + reason)
				}
			case bus.KindRealtimeConnected:
				a.app.QueueUpdateDraw(func() { a.statusBar.SetRealtime(true) })
			case bus.KindRealtimeDisconnected:
				a.app.QueueUpdateDraw(func() { a.statusBar.SetRealtime(false) })
			case bus.KindSessionChanged:
				a.app.QueueUpdateDraw(func() {
					a.statusBar.SetIdentity(a.controller.User().Label())
				})
			}
		case <-a.ctx.Done():
			return
		}
	}
}

// render repaints the main layout from coordinator snapshots. Must run on
// the UI goroutine.
func (a *App) render() {
	a.chatList.Update(a.coordinator.Chats())
	a.msgView.Update(a.coordinator.Messages())
	if chat := a.coordinator.ActiveChat(); chat != nil {
		a.msgView.SetChatName(chat.Name)
	} else {
		a.msgView.SetChatName("")
	}
	if notice := a.coordinator.Notice(); notice != "" {
		a.statusBar.Flash(notice, flashDuration)
	}
}

func (a *App) flash(msg string) {
	a.app.QueueUpdateDraw(func() {
		a.statusBar.Flash(msg, flashDuration)
	})
}

func selfID(c *session.Controller) string {
	if u := c.User(); u != nil {
		return u.ID
	}
	return ""
}
