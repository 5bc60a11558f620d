package notifier

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is the part of *tgbotapi.BotAPI the notifier needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Notifier struct {
	bot    Sender
	chatID string
}

// New builds a notifier for chatID, which is either a numeric chat id or
// a public channel username such as "@radar".
func New(bot Sender, chatID string) *Notifier {
	return &Notifier{
		bot:    bot,
		chatID: strings.TrimSpace(chatID),
	}
}

// Notify sends text as a Markdown message.
func (n *Notifier) Notify(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := n.newMessage(text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}

	return nil
}

func (n *Notifier) newMessage(text string) tgbotapi.MessageConfig {
	if id, err := strconv.ParseInt(n.chatID, 10, 64); err == nil {
		return tgbotapi.NewMessage(id, text)
	}

	return tgbotapi.NewMessageToChannel(n.chatID, text)
}

var linkReplacer = strings.NewReplacer(
	"(",
	"%28",
	")",
	"%29",
	" ",
	"%20",
)

// EscapeLink makes a URL safe to use as a Markdown link target.
func EscapeLink(link string) string {
	return linkReplacer.Replace(link)
}
