// Package telegram bridges the Telegram Bot API to the conversation router.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/user/kinobot/internal/gateway"
	"github.com/user/kinobot/internal/router"
	"github.com/user/kinobot/internal/types"
)

const (
	maxTelegramMessage = 4096
	maxTelegramCaption = 1024
)

// botAPI is the subset of *tgbotapi.BotAPI the adapter uses.
type botAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Handler receives decoded chat events. *router.Router implements it.
type Handler interface {
	OnStart(ctx context.Context, ev router.Event) error
	OnAction(ctx context.Context, ev router.Event, code string) error
	OnText(ctx context.Context, ev router.Event, text string) error
}

// Adapter bridges Telegram to the gateway and renders router replies.
type Adapter struct {
	bot     botAPI
	gateway *gateway.Gateway
}

var _ router.Outbox = (*Adapter)(nil)

// New creates a Telegram adapter.
func New(token string, gw *gateway.Gateway) (*Adapter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	slog.Info("telegram bot authorized", "username", bot.Self.UserName)
	return &Adapter{bot: bot, gateway: gw}, nil
}

// Start long-polls for updates and dispatches them to h until ctx is done.
func (a *Adapter) Start(ctx context.Context, h Handler) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := a.bot.GetUpdatesChan(u)

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			a.handleUpdate(ctx, update, h)
		case <-ctx.Done():
			a.bot.StopReceivingUpdates()
			return
		}
	}
}

func (a *Adapter) handleUpdate(ctx context.Context, update tgbotapi.Update, h Handler) {
	switch {
	case update.CallbackQuery != nil:
		a.handleCallback(ctx, update.CallbackQuery, h)
	case update.Message != nil && update.Message.From != nil && update.Message.Text != "":
		a.handleMessage(update.Message, h)
	}
}

func (a *Adapter) handleMessage(msg *tgbotapi.Message, h Handler) {
	ev := router.Event{
		UserID:    types.UserID(msg.From.ID),
		ChatID:    types.ChatID(msg.Chat.ID),
		MessageID: msg.MessageID,
	}

	if msg.IsCommand() {
		switch msg.Command() {
		case "start", "help":
			a.dispatch(ev, "start", func(ctx context.Context) error {
				return h.OnStart(ctx, ev)
			})
		default:
			slog.Debug("ignoring unknown command", "user_id", ev.UserID, "command", msg.Command())
		}
		return
	}

	text := msg.Text
	a.dispatch(ev, "text", func(ctx context.Context) error {
		return h.OnText(ctx, ev, text)
	})
}

func (a *Adapter) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery, h Handler) {
	if _, err := a.bot.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		slog.Warn("answer callback failed", "callback_id", cq.ID, "error", err)
	}
	if cq.Message == nil || cq.From == nil {
		return
	}

	ev := router.Event{
		UserID:    types.UserID(cq.From.ID),
		ChatID:    types.ChatID(cq.Message.Chat.ID),
		MessageID: cq.Message.MessageID,
	}
	code := cq.Data
	a.dispatch(ev, "action", func(ctx context.Context) error {
		return h.OnAction(ctx, ev, code)
	})
}

func (a *Adapter) dispatch(ev router.Event, kind string, fn gateway.HandlerFunc) {
	if err := a.gateway.Dispatch(ev.UserID, kind, fn); err != nil {
		slog.Error("dispatch failed", "user_id", ev.UserID, "kind", kind, "error", err)
		a.sendText(router.Reply{ChatID: ev.ChatID, Text: "Слишком много запросов. Попробуй позже."})
	}
}

// Send renders a router reply as a Telegram edit, photo or text message.
func (a *Adapter) Send(_ context.Context, reply router.Reply) error {
	switch {
	case reply.EditMessageID != 0:
		return a.editText(reply)
	case reply.PhotoURL != "":
		return a.sendPhoto(reply)
	default:
		return a.sendText(reply)
	}
}

func (a *Adapter) editText(reply router.Reply) error {
	edit := tgbotapi.NewEditMessageText(int64(reply.ChatID), reply.EditMessageID, reply.Text)
	edit.ReplyMarkup = inlineKeyboard(reply.Keyboard)
	_, err := a.bot.Send(edit)
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "message is not modified") {
		return nil
	}
	// Photo messages and old messages cannot be edited as text.
	slog.Debug("edit failed, sending new message", "chat_id", reply.ChatID, "message_id", reply.EditMessageID, "error", err)
	reply.EditMessageID = 0
	return a.sendText(reply)
}

func (a *Adapter) sendPhoto(reply router.Reply) error {
	photo := tgbotapi.NewPhoto(int64(reply.ChatID), tgbotapi.FileURL(reply.PhotoURL))
	photo.Caption = truncateRunes(reply.Text, maxTelegramCaption)
	photo.ReplyToMessageID = reply.ReplyToMessageID
	if kb := inlineKeyboard(reply.Keyboard); kb != nil {
		photo.ReplyMarkup = *kb
	}
	if _, err := a.bot.Send(photo); err != nil {
		// Telegram rejects some poster URLs; fall back to the caption as text.
		slog.Warn("send photo failed, sending text", "chat_id", reply.ChatID, "photo_url", reply.PhotoURL, "error", err)
		return a.sendText(reply)
	}
	return nil
}

func (a *Adapter) sendText(reply router.Reply) error {
	parts := splitMessage(reply.Text)
	kb := inlineKeyboard(reply.Keyboard)
	for i, part := range parts {
		msg := tgbotapi.NewMessage(int64(reply.ChatID), part)
		if i == 0 {
			msg.ReplyToMessageID = reply.ReplyToMessageID
		}
		if i == len(parts)-1 && kb != nil {
			msg.ReplyMarkup = *kb
		}
		if _, err := a.bot.Send(msg); err != nil {
			return fmt.Errorf("send message: %w", err)
		}
	}
	return nil
}

func inlineKeyboard(kb router.Keyboard) *tgbotapi.InlineKeyboardMarkup {
	if len(kb) == 0 {
		return nil
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb))
	for _, row := range kb {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Action))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}

// splitMessage cuts text into chunks of at most maxTelegramMessage runes.
func splitMessage(text string) []string {
	if utf8.RuneCountInString(text) <= maxTelegramMessage {
		return []string{text}
	}
	var parts []string
	runes := []rune(text)
	for len(runes) > 0 {
		end := min(maxTelegramMessage, len(runes))
		parts = append(parts, string(runes[:end]))
		runes = runes[end:]
	}
	return parts
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-1]) + "…"
}
