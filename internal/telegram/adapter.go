package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dvloznov/ledger-bot/internal/bot"
	"github.com/dvloznov/ledger-bot/internal/jobs"
	"github.com/dvloznov/ledger-bot/internal/logger"
	"github.com/dvloznov/ledger-bot/internal/session"
)

// API is the part of *tgbotapi.BotAPI the adapter uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Core is the event handler the adapter drives.
type Core interface {
	Handle(ctx context.Context, ev bot.Event) []bot.Reply
	BindSessionMessage(ctx context.Context, key session.Key, ref session.MessageRef)
	DropSession(ctx context.Context, key session.Key, lost session.MessageRef)
}

// Adapter executes the core's replies against the Bot API.
type Adapter struct {
	api   API
	core  Core
	sleep func(ctx context.Context, d time.Duration)
}

// NewAdapter creates an adapter.
func NewAdapter(api API, core Core) *Adapter {
	return &Adapter{api: api, core: core, sleep: sleepContext}
}

// HandleJob is a jobs.JobHandler.
func (a *Adapter) HandleJob(ctx context.Context, job *jobs.UpdateJob) error {
	return a.HandleUpdate(ctx, job.Update)
}

// HandleUpdate runs one update through the core and renders the replies.
// Only transport failures that lost a reply are returned.
func (a *Adapter) HandleUpdate(ctx context.Context, u tgbotapi.Update) error {
	ev, ok := EventFromUpdate(u)
	if !ok {
		log := logger.FromContext(ctx)
		log.Debug().Int("update_id", u.UpdateID).Msg("skipping unsupported update")
		return nil
	}

	callbackID := ""
	if u.CallbackQuery != nil {
		callbackID = u.CallbackQuery.ID
	}

	replies := a.core.Handle(ctx, ev)
	return a.execute(ctx, ev, callbackID, replies)
}

func (a *Adapter) execute(ctx context.Context, ev bot.Event, callbackID string, replies []bot.Reply) error {
	log := logger.FromContext(ctx)
	var errs []error
	answered := false
	lost := map[session.MessageRef]bool{}

	for _, r := range replies {
		switch r.Action {
		case bot.ActionSend:
			msg := tgbotapi.NewMessage(ev.ChatID, r.Text)
			msg.ParseMode = tgbotapi.ModeHTML
			if len(r.Buttons) > 0 {
				msg.ReplyMarkup = keyboard(r.Buttons)
			}
			sent, err := a.api.Send(msg)
			if err != nil {
				log.Error().Err(err).Msg("send failed")
				errs = append(errs, fmt.Errorf("send: %w", err))
				if r.BindSession {
					a.core.DropSession(ctx, ev.Key(), session.MessageRef{})
				}
				continue
			}
			if r.BindSession {
				a.core.BindSessionMessage(ctx, ev.Key(), session.MessageRef{ChatID: ev.ChatID, MessageID: sent.MessageID})
			}

		case bot.ActionEdit:
			if lost[r.Target] {
				continue
			}
			if err := a.edit(r); err != nil {
				log.Warn().Err(err).Int("target", r.Target.MessageID).Msg("edit failed, dropping session")
				lost[r.Target] = true
				a.core.DropSession(ctx, ev.Key(), r.Target)
				continue
			}

		case bot.ActionDelete:
			if _, err := a.api.Request(tgbotapi.NewDeleteMessage(r.Target.ChatID, r.Target.MessageID)); err != nil {
				log.Warn().Err(err).Int("target", r.Target.MessageID).Msg("delete failed")
			}

		case bot.ActionToast:
			if callbackID == "" || answered {
				continue
			}
			answered = true
			cb := tgbotapi.NewCallback(callbackID, r.Text)
			cb.ShowAlert = r.Alert
			if _, err := a.api.Request(cb); err != nil {
				log.Warn().Err(err).Msg("callback answer failed")
			}
		}

		if r.Pause > 0 {
			a.sleep(ctx, r.Pause)
		}
	}

	// every pressed button gets an answer, or the client keeps spinning
	if callbackID != "" && !answered {
		if _, err := a.api.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
			log.Warn().Err(err).Msg("callback answer failed")
		}
	}
	return errors.Join(errs...)
}

func (a *Adapter) edit(r bot.Reply) error {
	var cfg tgbotapi.EditMessageTextConfig
	if len(r.Buttons) > 0 {
		cfg = tgbotapi.NewEditMessageTextAndMarkup(r.Target.ChatID, r.Target.MessageID, r.Text, keyboard(r.Buttons))
	} else {
		cfg = tgbotapi.NewEditMessageText(r.Target.ChatID, r.Target.MessageID, r.Text)
	}
	cfg.ParseMode = tgbotapi.ModeHTML

	_, err := a.api.Request(cfg)
	if err != nil && isNotModified(err) {
		return nil
	}
	return err
}

// isNotModified matches the API's answer to an edit that changes nothing.
func isNotModified(err error) bool {
	return strings.Contains(err.Error(), "message is not modified")
}

func sleepContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
