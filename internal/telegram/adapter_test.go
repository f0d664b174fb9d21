package telegram

import (
	"context"
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/ledger-bot/internal/bot"
	"github.com/dvloznov/ledger-bot/internal/session"
)

// MockAPI is a mock implementation of API for testing.
type MockAPI struct {
	SendFunc    func(c tgbotapi.Chattable) (tgbotapi.Message, error)
	RequestFunc func(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	calls       []tgbotapi.Chattable
}

func (m *MockAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	m.calls = append(m.calls, c)
	if m.SendFunc != nil {
		return m.SendFunc(c)
	}
	return tgbotapi.Message{MessageID: 1000}, nil
}

func (m *MockAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	m.calls = append(m.calls, c)
	if m.RequestFunc != nil {
		return m.RequestFunc(c)
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// MockCore is a mock implementation of Core for testing.
type MockCore struct {
	replies []bot.Reply
	events  []bot.Event
	bound   []session.MessageRef
	dropped []session.MessageRef
}

func (c *MockCore) Handle(ctx context.Context, ev bot.Event) []bot.Reply {
	c.events = append(c.events, ev)
	return c.replies
}

func (c *MockCore) BindSessionMessage(ctx context.Context, key session.Key, ref session.MessageRef) {
	c.bound = append(c.bound, ref)
}

func (c *MockCore) DropSession(ctx context.Context, key session.Key, lost session.MessageRef) {
	c.dropped = append(c.dropped, lost)
}

func newTestAdapter(api *MockAPI, core *MockCore) (*Adapter, *[]time.Duration) {
	var slept []time.Duration
	a := NewAdapter(api, core)
	a.sleep = func(ctx context.Context, d time.Duration) { slept = append(slept, d) }
	return a, &slept
}

func pressUpdate(data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb1",
		From:    &tgbotapi.User{ID: 7},
		Message: &tgbotapi.Message{MessageID: 900, Chat: &tgbotapi.Chat{ID: 42}},
		Data:    data,
	}}
}

func TestSendBindsSessionMessage(t *testing.T) {
	api := &MockAPI{}
	core := &MockCore{replies: []bot.Reply{{
		Action:      bot.ActionSend,
		Text:        "Choose",
		Buttons:     [][]bot.Button{{{Text: "row", Data: "edit:row:2"}}},
		BindSession: true,
	}}}
	a, _ := newTestAdapter(api, core)

	require.NoError(t, a.HandleUpdate(context.Background(), tgbotapi.Update{Message: commandMessage("/edit")}))

	require.Len(t, api.calls, 1)
	msg, ok := api.calls[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Equal(t, tgbotapi.ModeHTML, msg.ParseMode)
	assert.NotNil(t, msg.ReplyMarkup)
	assert.Equal(t, []session.MessageRef{{ChatID: 42, MessageID: 1000}}, core.bound)
}

func TestFailedBindingSendDropsSession(t *testing.T) {
	api := &MockAPI{SendFunc: func(c tgbotapi.Chattable) (tgbotapi.Message, error) {
		return tgbotapi.Message{}, errors.New("blocked by user")
	}}
	core := &MockCore{replies: []bot.Reply{{Action: bot.ActionSend, Text: "menu", BindSession: true}}}
	a, _ := newTestAdapter(api, core)

	err := a.HandleUpdate(context.Background(), tgbotapi.Update{Message: commandMessage("/edit")})
	require.Error(t, err)
	assert.Empty(t, core.bound)
	assert.Equal(t, []session.MessageRef{{}}, core.dropped)
}

func TestCallbackFlowWithFlash(t *testing.T) {
	api := &MockAPI{}
	target := session.MessageRef{ChatID: 42, MessageID: 900}
	core := &MockCore{replies: []bot.Reply{
		{Action: bot.ActionToast, Text: "Done"},
		{Action: bot.ActionEdit, Target: target, Text: "updated", Pause: 800 * time.Millisecond},
		{Action: bot.ActionEdit, Target: target, Text: "card", Buttons: [][]bot.Button{{{Text: "Finish", Data: "edit:done"}}}},
	}}
	a, slept := newTestAdapter(api, core)

	require.NoError(t, a.HandleUpdate(context.Background(), pressUpdate("edit:action:amount")))

	require.Len(t, api.calls, 3)
	cb, ok := api.calls[0].(tgbotapi.CallbackConfig)
	require.True(t, ok)
	assert.Equal(t, "cb1", cb.CallbackQueryID)
	assert.Equal(t, "Done", cb.Text)

	flash, ok := api.calls[1].(tgbotapi.EditMessageTextConfig)
	require.True(t, ok)
	assert.Equal(t, 900, flash.MessageID)
	assert.Nil(t, flash.ReplyMarkup)

	card, ok := api.calls[2].(tgbotapi.EditMessageTextConfig)
	require.True(t, ok)
	assert.NotNil(t, card.ReplyMarkup)
	assert.Equal(t, []time.Duration{800 * time.Millisecond}, *slept)
}

func TestCallbackIsAlwaysAnswered(t *testing.T) {
	api := &MockAPI{}
	core := &MockCore{replies: []bot.Reply{{Action: bot.ActionDelete, Target: session.MessageRef{ChatID: 42, MessageID: 900}}}}
	a, _ := newTestAdapter(api, core)

	require.NoError(t, a.HandleUpdate(context.Background(), pressUpdate("cat:x")))

	require.Len(t, api.calls, 2)
	_, isDelete := api.calls[0].(tgbotapi.DeleteMessageConfig)
	assert.True(t, isDelete)
	cb, ok := api.calls[1].(tgbotapi.CallbackConfig)
	require.True(t, ok)
	assert.Equal(t, "", cb.Text)
}

func TestFailedEditDropsSessionAndSkipsTarget(t *testing.T) {
	api := &MockAPI{RequestFunc: func(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
		if _, ok := c.(tgbotapi.EditMessageTextConfig); ok {
			return nil, errors.New("Bad Request: message to edit not found")
		}
		return &tgbotapi.APIResponse{Ok: true}, nil
	}}
	target := session.MessageRef{ChatID: 42, MessageID: 900}
	core := &MockCore{replies: []bot.Reply{
		{Action: bot.ActionEdit, Target: target, Text: "flash", Pause: time.Second},
		{Action: bot.ActionEdit, Target: target, Text: "card"},
	}}
	a, _ := newTestAdapter(api, core)

	require.NoError(t, a.HandleUpdate(context.Background(), tgbotapi.Update{Message: message("4500")}))

	assert.Len(t, api.calls, 1, "second edit of a lost message is skipped")
	assert.Equal(t, []session.MessageRef{target}, core.dropped)
}

func TestNotModifiedIsIgnored(t *testing.T) {
	api := &MockAPI{RequestFunc: func(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
		return nil, errors.New("Bad Request: message is not modified: specified new message content is the same")
	}}
	core := &MockCore{replies: []bot.Reply{{Action: bot.ActionEdit, Target: session.MessageRef{ChatID: 42, MessageID: 900}, Text: "same"}}}
	a, _ := newTestAdapter(api, core)

	require.NoError(t, a.HandleUpdate(context.Background(), tgbotapi.Update{Message: message("x")}))
	assert.Empty(t, core.dropped)
}

func TestUnsupportedUpdateIsSkipped(t *testing.T) {
	api := &MockAPI{}
	core := &MockCore{}
	a, _ := newTestAdapter(api, core)

	require.NoError(t, a.HandleUpdate(context.Background(), tgbotapi.Update{UpdateID: 5}))
	assert.Empty(t, core.events)
	assert.Empty(t, api.calls)
}

func TestSleepContextStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	sleepContext(ctx, time.Minute)
	assert.Less(t, time.Since(start), time.Second)
}
