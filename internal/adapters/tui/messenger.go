package tui

import (
	"errors"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/PabloGalante/messenger/internal/app/conversation"
	"github.com/PabloGalante/messenger/internal/app/navbar"
	"github.com/PabloGalante/messenger/internal/domain"
)

func (a *App) buildMessenger() tview.Primitive {
	a.navView = tview.NewTextView()
	a.navView.SetDynamicColors(true)
	a.navView.SetBackgroundColor(ColorStatusBg)
	a.navView.SetTextColor(ColorTitle)

	a.allQuery = newInput("Search users: ")
	a.allQuery.SetChangedFunc(func(text string) {
		a.contacts.SetAllUsersQuery(text)
	})
	a.allList = newList(" All users ")
	a.allList.SetSelectedFunc(func(index int, _, _ string, _ rune) {
		a.selectContact(a.shownAll, index)
	})

	a.historyQuery = newInput("Filter chats: ")
	a.historyQuery.SetChangedFunc(func(text string) {
		a.contacts.SetHistoryQuery(a.ctx, text)
	})
	a.historyList = newList(" Conversations ")
	a.historyList.SetSelectedFunc(func(index int, _, _ string, _ rune) {
		a.selectContact(a.shownHistory, index)
	})

	a.threadView = tview.NewTextView()
	a.threadView.SetBorder(true)
	a.threadView.SetBorderColor(ColorBorder)
	a.threadView.SetBackgroundColor(ColorBg)
	a.threadView.SetTitleColor(ColorTitle)
	a.threadView.SetTextColor(ColorFg)
	a.threadView.SetDynamicColors(true)
	a.threadView.SetScrollable(true)

	a.composer = newInput("> ")
	a.composer.SetBorder(true)
	a.composer.SetBorderColor(ColorBorder)
	a.composer.SetTitle(" Message ")
	a.composer.SetTitleColor(ColorTitle)
	a.composer.SetChangedFunc(func(text string) {
		a.conv.SetDraft(text)
	})
	a.composer.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter {
			a.send()
		}
	})

	a.statusBar = tview.NewTextView()
	a.statusBar.SetDynamicColors(true)
	a.statusBar.SetBackgroundColor(ColorStatusBg)
	a.statusBar.SetTextColor(ColorTitle)
	a.statusBar.SetTextAlign(tview.AlignCenter)

	a.emojiList = newList(" Emoji ")
	for _, e := range Emojis {
		a.emojiList.AddItem(e, "", 0, nil)
	}
	a.emojiList.SetSelectedFunc(func(index int, _, _ string, _ rune) {
		a.conv.InsertEmoji(Emojis[index])
	})

	left := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.allQuery, 1, 0, false).
		AddItem(a.allList, 0, 1, false).
		AddItem(a.historyQuery, 1, 0, false).
		AddItem(a.historyList, 0, 2, true)
	right := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.threadView, 0, 1, false).
		AddItem(a.composer, 3, 0, false)
	body := tview.NewFlex().
		AddItem(left, 40, 0, true).
		AddItem(right, 0, 1, false)

	a.focusRing = []tview.Primitive{a.allQuery, a.allList, a.historyQuery, a.historyList, a.composer, a.threadView}

	root := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.navView, 1, 0, false).
		AddItem(body, 0, 1, true).
		AddItem(a.statusBar, 1, 0, false)
	root.SetBackgroundColor(ColorBg)
	return root
}

func newInput(label string) *tview.InputField {
	in := tview.NewInputField()
	in.SetLabel(label)
	in.SetFieldWidth(0)
	in.SetBackgroundColor(ColorBg)
	in.SetFieldBackgroundColor(ColorFieldBg)
	in.SetFieldTextColor(ColorFg)
	in.SetLabelColor(ColorHighlight)
	return in
}

func newList(title string) *tview.List {
	l := tview.NewList()
	l.SetBorder(true)
	l.SetBorderColor(ColorBorder)
	l.SetBackgroundColor(ColorBg)
	l.SetTitle(title)
	l.SetTitleColor(ColorTitle)
	l.SetMainTextColor(ColorFg)
	l.SetSelectedTextColor(ColorTitle)
	l.SetSelectedBackgroundColor(ColorStatusBg)
	l.SetHighlightFullLine(true)
	l.ShowSecondaryText(false)
	return l
}

func fillList(l *tview.List, users []domain.User) {
	current := l.GetCurrentItem()
	l.Clear()
	for _, u := range users {
		l.AddItem(contactLabel(u), "", 0, nil)
	}
	if current >= 0 && current < l.GetItemCount() {
		l.SetCurrentItem(current)
	}
}

func (a *App) selectContact(shown []domain.User, index int) {
	if index < 0 || index >= len(shown) {
		return
	}
	a.contacts.Select(shown[index])
	a.app.SetFocus(a.composer)
}

func (a *App) refreshMessenger() {
	id := a.bar.Identity()
	a.navView.SetText(navText(id))

	v := a.contacts.View()
	a.shownAll = v.AllUsers
	fillList(a.allList, v.AllUsers)
	a.shownHistory = v.WithHistory
	fillList(a.historyList, v.WithHistory)
	a.historyList.SetTitle(historyTitle(v))

	peer, ok := a.conv.Peer()
	a.threadView.SetTitle(threadTitle(peer, ok, a.conv.Loading()))
	text := ""
	if ok {
		if me, err := a.session.Current(); err == nil {
			if thread, err := a.conv.Thread(); err == nil {
				text = threadText(thread, me.ThreadKey()) + failedText(a.conv.Outbox(), peer.ThreadKey())
			}
		}
	}
	if a.threadView.GetText(false) != text {
		a.threadView.SetText(text)
		a.threadView.ScrollToEnd()
	}

	if draft := a.conv.Draft(); a.composer.GetText() != draft {
		a.composer.SetText(draft)
	}
	status := composerStatus(a.conv.Attachment(domain.MediaAudio), a.conv.Attachment(domain.MediaVideo), a.conv.Sending())
	if a.notice != "" {
		status = " [red]" + tview.Escape(a.notice) + "[-] |" + status
	}
	a.statusBar.SetText(status)

	a.syncEmoji(a.conv.EmojiPickerOpen())
	a.syncPopover(a.bar.Popover() == navbar.PopoverOpen, id)
}

func (a *App) send() {
	go func() {
		err := a.conv.Send(a.ctx)
		switch {
		case err == nil:
			a.app.QueueUpdateDraw(func() {
				a.notice = ""
				a.refresh()
			})
		case errors.Is(err, conversation.ErrNothingToSend):
		case errors.Is(err, conversation.ErrNoPeer):
			a.flash("Select a contact first")
		default:
			a.flash("Message not sent: " + err.Error())
		}
	}()
}
