package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dvloznov/ledger-bot/internal/jobs"
	"github.com/dvloznov/ledger-bot/internal/logger"
)

// Updater is the long-polling part of *tgbotapi.BotAPI.
type Updater interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Publish hands one update to the dispatcher under its session key.
func Publish(ctx context.Context, pub jobs.Publisher, u tgbotapi.Update) error {
	job := &jobs.UpdateJob{Key: DispatchKey(u), Update: u}
	if err := pub.Publish(ctx, job); err != nil {
		return fmt.Errorf("Publish: update %d: %w", u.UpdateID, err)
	}
	return nil
}

// Poll long-polls updates and publishes them until ctx is canceled.
func Poll(ctx context.Context, up Updater, pub jobs.Publisher, timeoutSeconds int) error {
	log := logger.FromContext(ctx)

	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = timeoutSeconds
	cfg.AllowedUpdates = []string{"message", "callback_query"}
	updates := up.GetUpdatesChan(cfg)
	defer up.StopReceivingUpdates()

	log.Info().Int("timeout", timeoutSeconds).Msg("polling for updates")
	for {
		select {
		case <-ctx.Done():
			return nil
		case u, ok := <-updates:
			if !ok {
				return nil
			}
			if err := Publish(ctx, pub, u); err != nil {
				log.Error().Err(err).Msg("dropping update")
			}
		}
	}
}

// Requester sends raw Bot API calls.
type Requester interface {
	MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error)
}

// SetWebhook registers the webhook URL. Telegram echoes secret in the
// X-Telegram-Bot-Api-Secret-Token header of every delivery.
func SetWebhook(api Requester, url, secret string) error {
	params := tgbotapi.Params{"url": url}
	params.AddNonEmpty("secret_token", secret)
	params["allowed_updates"] = `["message","callback_query"]`

	resp, err := api.MakeRequest("setWebhook", params)
	if err != nil {
		return fmt.Errorf("SetWebhook: %w", err)
	}
	if !resp.Ok {
		return fmt.Errorf("SetWebhook: %s", resp.Description)
	}
	return nil
}

// DeleteWebhook switches the bot back to long polling.
func DeleteWebhook(api Requester) error {
	resp, err := api.MakeRequest("deleteWebhook", tgbotapi.Params{})
	if err != nil {
		return fmt.Errorf("DeleteWebhook: %w", err)
	}
	if !resp.Ok {
		return fmt.Errorf("DeleteWebhook: %s", resp.Description)
	}
	return nil
}
