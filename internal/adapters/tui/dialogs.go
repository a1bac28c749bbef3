package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/rivo/tview"

	"github.com/PabloGalante/messenger/internal/app/navbar"
	"github.com/PabloGalante/messenger/internal/domain"
)

func (a *App) syncEmoji(open bool) {
	if open == a.emojiShown {
		return
	}
	a.emojiShown = open
	if open {
		a.pages.AddPage(pageEmoji, centered(a.emojiList, 24, len(Emojis)+2), true, true)
		a.app.SetFocus(a.emojiList)
		return
	}
	a.pages.RemovePage(pageEmoji)
	a.app.SetFocus(a.composer)
}

// syncPopover shows the identity popover while the bar says it is open.
func (a *App) syncPopover(open bool, id navbar.Identity) {
	if open == a.popoverShown {
		return
	}
	a.popoverShown = open
	if !open {
		a.popover = nil
		a.pages.RemovePage(pagePopover)
		a.app.SetFocus(a.historyList)
		return
	}

	buttons := []string{"Log in", "Close"}
	if id.LoggedIn {
		buttons = []string{"Logout", "Close"}
	}
	modal := tview.NewModal().
		SetText(identityText(id)).
		AddButtons(buttons).
		SetDoneFunc(func(_ int, label string) {
			switch label {
			case "Logout":
				if err := a.bar.Logout(); err != nil {
					a.flash("Logout failed: " + err.Error())
				}
			case "Log in":
				a.bar.ClickOutside()
				a.Navigate(navbar.RouteHome)
			default:
				a.bar.ClickOutside()
			}
		})
	modal.SetBackgroundColor(ColorBg)
	a.popover = modal

	a.pages.AddPage(pagePopover, modal, true, true)
	a.app.SetFocus(modal)
}

func (a *App) showAttachPrompt(kind domain.MediaKind) {
	if a.overlayShown() {
		return
	}
	if _, ok := a.conv.Peer(); !ok {
		a.notice = "Select a contact first"
		a.refresh()
		return
	}

	path := tview.NewInputField()
	path.SetLabel("File: ")
	path.SetText(a.conv.Attachment(kind))
	path.SetFieldWidth(44)

	form := tview.NewForm()
	form.SetBackgroundColor(ColorBg)
	form.SetFieldBackgroundColor(ColorFieldBg)
	form.SetFieldTextColor(ColorFg)
	form.SetLabelColor(ColorHighlight)
	form.SetButtonBackgroundColor(ColorStatusBg)
	form.SetButtonTextColor(ColorTitle)
	form.SetBorder(true)
	form.SetBorderColor(ColorBorder)
	form.SetTitle(fmt.Sprintf(" Attach %s ", kind))
	form.SetTitleColor(ColorTitle)
	form.AddFormItem(path)

	form.AddButton("Attach", func() {
		p := strings.TrimSpace(path.GetText())
		if p != "" {
			if _, err := os.Stat(p); err != nil {
				a.notice = "Cannot attach: " + err.Error()
				a.closeAttachPrompt()
				return
			}
		}
		if err := a.conv.Attach(kind, p); err != nil {
			a.notice = err.Error()
		}
		a.closeAttachPrompt()
	})
	form.AddButton("Remove", func() {
		a.conv.Attach(kind, "")
		a.closeAttachPrompt()
	})
	form.AddButton("Cancel", a.closeAttachPrompt)

	a.attachShown = true
	a.pages.AddPage(pageAttach, centered(form, 60, 9), true, true)
	a.app.SetFocus(form)
}

func (a *App) closeAttachPrompt() {
	a.attachShown = false
	a.pages.RemovePage(pageAttach)
	a.app.SetFocus(a.composer)
	a.refresh()
}
