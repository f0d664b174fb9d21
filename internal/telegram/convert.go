// Package telegram adapts the Bot API to the transport-independent core:
// updates become bot.Events and replies become API calls.
package telegram

import (
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dvloznov/ledger-bot/internal/bot"
)

// EventFromUpdate normalizes an update. ok is false for updates the bot does
// not handle (edits, channel posts, messages without an author).
func EventFromUpdate(u tgbotapi.Update) (bot.Event, bool) {
	if cq := u.CallbackQuery; cq != nil {
		if cq.From == nil || cq.Message == nil || cq.Message.Chat == nil {
			return bot.Event{}, false
		}
		return bot.Event{
			Kind:         bot.KindCallback,
			ChatID:       cq.Message.Chat.ID,
			AuthorID:     userID(cq.From),
			MessageID:    cq.Message.MessageID,
			CallbackData: cq.Data,
		}, true
	}

	msg := u.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return bot.Event{}, false
	}
	ev := bot.Event{
		ChatID:    msg.Chat.ID,
		AuthorID:  userID(msg.From),
		MessageID: msg.MessageID,
	}

	switch {
	case msg.IsCommand():
		ev.Kind = bot.KindCommand
		ev.Command = strings.ToLower(msg.Command())
		ev.Text = msg.CommandArguments()
	case msg.Voice != nil:
		ev.Kind = bot.KindVoice
		ev.Text = msg.Caption
		ev.Voice = &bot.Voice{
			FileID:   msg.Voice.FileID,
			MIMEType: msg.Voice.MimeType,
			Duration: msg.Voice.Duration,
		}
	case strings.TrimSpace(msg.Text) != "":
		ev.Kind = bot.KindText
		ev.Text = msg.Text
	default:
		return bot.Event{}, false
	}
	return ev, true
}

// DispatchKey routes an update to a worker: all updates of one user in one
// chat share a key.
func DispatchKey(u tgbotapi.Update) string {
	if ev, ok := EventFromUpdate(u); ok {
		return ev.Key().String()
	}
	return "update:" + strconv.Itoa(u.UpdateID)
}

func userID(u *tgbotapi.User) string {
	return strconv.FormatInt(u.ID, 10)
}

// keyboard renders button rows as an inline keyboard.
func keyboard(rows [][]bot.Button) tgbotapi.InlineKeyboardMarkup {
	out := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		out = append(out, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(out...)
}
