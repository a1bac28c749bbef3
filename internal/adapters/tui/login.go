package tui

import (
	"fmt"

	"github.com/rivo/tview"

	"github.com/PabloGalante/messenger/internal/app/navbar"
	"github.com/PabloGalante/messenger/internal/domain"
	"github.com/PabloGalante/messenger/internal/observability"
)

// buildLogin lays out the account chooser. Picking a user stores it as the session;
// there is no credential check.
func (a *App) buildLogin() tview.Primitive {
	a.loginList = tview.NewList()
	a.loginList.SetBorder(true)
	a.loginList.SetBorderColor(ColorBorder)
	a.loginList.SetBackgroundColor(ColorBg)
	a.loginList.SetTitle(" Choose an account ")
	a.loginList.SetTitleColor(ColorTitle)
	a.loginList.SetMainTextColor(ColorFg)
	a.loginList.SetSelectedBackgroundColor(ColorStatusBg)
	a.loginList.SetHighlightFullLine(true)
	a.loginList.ShowSecondaryText(false)
	a.loginList.SetSelectedFunc(func(index int, _, _ string, _ rune) {
		if index < 0 || index >= len(a.loginUsers) {
			return
		}
		a.login(a.loginUsers[index])
	})

	a.loginStatus = tview.NewTextView()
	a.loginStatus.SetDynamicColors(true)
	a.loginStatus.SetTextAlign(tview.AlignCenter)
	a.loginStatus.SetBackgroundColor(ColorStatusBg)
	a.loginStatus.SetTextColor(ColorTitle)
	a.loginStatus.SetText(" Loading users… ")

	body := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.loginList, 0, 1, true).
		AddItem(a.loginStatus, 1, 0, false)

	return centered(body, 60, 20)
}

func (a *App) loadLoginUsers() {
	log := observability.LoggerFromContext(a.ctx)

	a.app.QueueUpdateDraw(func() {
		a.loginStatus.SetText(" Loading users… ")
	})

	users, err := a.opts.Remote.ListUsers(a.ctx)
	if err != nil {
		log.Error("failed to fetch users for login", "error", err)
		a.app.QueueUpdateDraw(func() {
			a.loginStatus.SetText(fmt.Sprintf(" [red]Could not load users:[-] %s | F5:Retry ", tview.Escape(err.Error())))
		})
		return
	}

	a.app.QueueUpdateDraw(func() {
		a.loginUsers = users
		a.loginList.Clear()
		for _, u := range users {
			a.loginList.AddItem(contactLabel(u), "", 0, nil)
		}
		a.loginStatus.SetText(" Enter:Log in | F5:Refresh | F10:Quit ")
	})
}

func (a *App) login(u domain.User) {
	if err := a.session.Login(u); err != nil {
		a.loginStatus.SetText(fmt.Sprintf(" [red]%s[-] ", tview.Escape(err.Error())))
		return
	}
	a.Navigate(navbar.RouteMessenger)
}
