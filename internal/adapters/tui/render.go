package tui

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"github.com/PabloGalante/messenger/internal/app/contacts"
	"github.com/PabloGalante/messenger/internal/app/conversation"
	"github.com/PabloGalante/messenger/internal/app/navbar"
	"github.com/PabloGalante/messenger/internal/domain"
)

// Emojis offered by the composer's picker.
var Emojis = []string{"😀", "😂", "😍", "😎", "🤔", "😢", "😡", "👍", "👎", "🙏", "🎉", "🔥", "❤️", "👋"}

func contactLabel(u domain.User) string {
	nick := u.NickName
	if nick == "" {
		nick = u.Email
	}
	return fmt.Sprintf("%s [gray](%s)", tview.Escape(nick), tview.Escape(u.Email))
}

// threadText renders a thread, outgoing lines marked with → and incoming with ←.
func threadText(msgs []domain.Message, me string) string {
	var sb strings.Builder
	for _, m := range msgs {
		arrow, color := "←", "yellow"
		if m.Sender == me {
			arrow, color = "→", "white"
		}
		fmt.Fprintf(&sb, "[gray]%s[-] [%s]%s %s[-]", tview.Escape(m.Time), color, arrow, tview.Escape(m.Text))
		if m.Audio != "" {
			fmt.Fprintf(&sb, " [aqua]♪ %s[-]", tview.Escape(string(m.Audio)))
		}
		if m.Video != "" {
			fmt.Fprintf(&sb, " [aqua]▶ %s[-]", tview.Escape(string(m.Video)))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// failedText lists the send attempts to peer that did not go through.
func failedText(outbox []conversation.Outgoing, peer string) string {
	var sb strings.Builder
	for _, o := range outbox {
		if o.State != conversation.DeliveryFailed || o.Message.Receiver != peer {
			continue
		}
		fmt.Fprintf(&sb, "[red]✗ not sent: %s[-]\n", tview.Escape(o.Message.Text))
	}
	return sb.String()
}

func identityText(id navbar.Identity) string {
	if !id.LoggedIn {
		return "Not logged in. Press F9 to log in."
	}
	return fmt.Sprintf("Email: %s\nID: %s", id.Email, id.ID)
}

func navText(id navbar.Identity) string {
	if !id.LoggedIn {
		return " [::b]Messenger[::-]  [gray]F9: login[-]"
	}
	return fmt.Sprintf(" [::b]Messenger[::-]  %s  [gray]F9: profile[-]", tview.Escape(id.Email))
}

func historyTitle(v contacts.View) string {
	if v.Loading {
		return " Conversations (loading…) "
	}
	return fmt.Sprintf(" Conversations (%d) ", len(v.WithHistory))
}

func threadTitle(peer domain.User, ok, loading bool) string {
	switch {
	case !ok:
		return " Select a contact "
	case loading:
		return fmt.Sprintf(" %s ─ loading… ", tview.Escape(peer.NickName))
	default:
		return fmt.Sprintf(" %s ", tview.Escape(peer.NickName))
	}
}

func composerStatus(audio, video string, sending bool) string {
	if sending {
		return " Sending… "
	}
	var parts []string
	if audio != "" {
		parts = append(parts, "♪ "+audio)
	}
	if video != "" {
		parts = append(parts, "▶ "+video)
	}
	hint := " Enter:Send | F2:Emoji | F3:Audio | F4:Video | F5:Refresh | Tab:Focus | Esc:Close | F10:Quit "
	if len(parts) == 0 {
		return hint
	}
	return " " + tview.Escape(strings.Join(parts, "  ")) + " |" + hint
}
