// messages.go contains message templates and formatting functions for Telegram.

package telegram

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/vc-progress/internal/domain/entities"
)

const certificatePrefix = "VC-"

const (
	msgUseVerify           = "Usage: /verify VC-1-7-LXYZ123-AB12"
	msgCertificateNotFound = "No verified certificate matches this code."
	msgTryLater            = "Verification is temporarily unavailable. Please try again later."
	msgInternalError       = "Something went wrong. Please try again later."
	msgUnknownCommand      = "Unknown command. Send /help to see what I can do."
)

// md escapes plain text for MarkdownV2.
func md(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, s)
}

func bold(s string) string {
	return "*" + md(s) + "*"
}

// newMessage creates a message with MarkdownV2 parse mode.
func newMessage(chatID int64, text string) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	return msg
}

func newPlainMessage(chatID int64, text string) tgbotapi.MessageConfig {
	return tgbotapi.NewMessage(chatID, text)
}

func welcomeMarkdownV2() string {
	return fmt.Sprintf(
		"%s\n\n%s\n\n%s",
		bold("Certificate verification"),
		md("Send me a certificate code and I will tell you whether it was issued by us."),
		md("Example: /verify VC-1-7-LXYZ123-AB12"),
	)
}

func helpMarkdownV2() string {
	return fmt.Sprintf(
		"%s\n\n%s\n%s\n%s",
		bold("Commands"),
		md("/verify CODE - check a certificate"),
		md("/help - show this message"),
		md("You can also paste a code on its own."),
	)
}

// formatVerifiedCertificate renders the public facts of a certificate (MarkdownV2 safe).
func formatVerifiedCertificate(v *entities.VerifiedCertificate) string {
	lines := []string{
		"✅ " + bold("Certificate verified"),
		"",
		md("Code: ") + "`" + md(v.Code) + "`",
		md("Holder: ") + bold(v.Username),
		md("Module: ") + bold(v.ModuleTitle),
		md("Issued: " + v.IssuedAt.UTC().Format("2 Jan 2006")),
	}

	if v.CompletionDate != nil {
		lines = append(lines, md("Completed: "+v.CompletionDate.UTC().Format("2 Jan 2006")))
	}
	lines = append(lines, md("Time spent: "+formatTimeSpent(v.TimeSpent)))

	return strings.Join(lines, "\n")
}

// formatTimeSpent renders seconds as "1h 05m", "12m" or "40s".
func formatTimeSpent(seconds int) string {
	d := time.Duration(seconds) * time.Second

	switch {
	case d >= time.Hour:
		return fmt.Sprintf("%dh %02dm", int(d.Hours()), int(d.Minutes())%60)
	case d >= time.Minute:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
