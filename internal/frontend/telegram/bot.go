package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vadimtrunov/MediaWatch/internal/core"
)

// AdminOps is the slice of dashboard operations the command layer exposes
// to authorized users.
type AdminOps interface {
	RefreshLibraryConfig(ctx context.Context) (string, error)
	ToggleEpisodeDisplay(ctx context.Context) (string, error)
	ForceRefresh(ctx context.Context) error
}

// Bot is the Telegram frontend for MediaWatch. It publishes the dashboard
// message into the configured channel and serves admin commands over
// long polling.
type Bot struct {
	api       *tgbotapi.BotAPI
	channelID int64
	admins    map[int64]bool // empty = nobody may run admin commands
	ops       AdminOps
	logger    *slog.Logger
}

var _ core.Publisher = (*Bot)(nil)

// New creates a new Telegram Bot publishing into channelID.
func New(token string, channelID int64, adminIDs []int64, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	admins := make(map[int64]bool, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = true
	}

	return &Bot{
		api:       api,
		channelID: channelID,
		admins:    admins,
		logger:    logger,
	}, nil
}

// SetAdminOps wires in the dashboard operations. The bot and the dashboard
// service reference each other, so this runs after both are constructed.
func (b *Bot) SetAdminOps(ops AdminOps) { b.ops = ops }

// SendDashboard posts a new dashboard message and returns its ID.
func (b *Bot) SendDashboard(_ context.Context, doc core.Document) (int, error) {
	msg := tgbotapi.NewMessage(b.channelID, RenderDocument(doc))
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableWebPagePreview = true

	sent, err := b.api.Send(msg)
	if err != nil {
		return 0, mapPublishError(err)
	}
	return sent.MessageID, nil
}

// EditDashboard replaces the content of an existing dashboard message.
// An unchanged message is treated as success.
func (b *Bot) EditDashboard(_ context.Context, messageID int, doc core.Document) error {
	edit := tgbotapi.NewEditMessageText(b.channelID, messageID, RenderDocument(doc))
	edit.ParseMode = tgbotapi.ModeMarkdownV2

	if _, err := b.api.Send(edit); err != nil {
		if strings.Contains(err.Error(), "message is not modified") {
			return nil
		}
		return mapPublishError(err)
	}
	return nil
}

// SetPresence mirrors the status line into the channel description, the
// closest thing Telegram has to a bot presence.
func (b *Bot) SetPresence(_ context.Context, text string) error {
	cfg := tgbotapi.NewChatDescription(b.channelID, text)
	if _, err := b.api.Request(cfg); err != nil {
		if strings.Contains(err.Error(), "chat description is not modified") {
			return nil
		}
		return mapPublishError(err)
	}
	return nil
}

// Start runs the long-polling loop for admin commands. It blocks until ctx
// is canceled.
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("telegram bot started",
		slog.String("username", b.api.Self.UserName),
	)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("telegram bot stopped")
			return nil

		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message != nil {
				go b.handleMessage(ctx, update.Message)
			}
		}
	}
}

// mapPublishError converts Telegram API failures into the publish
// taxonomy the reconciler acts on.
func mapPublishError(err error) error {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 429:
			retryAfter := time.Duration(apiErr.RetryAfter) * time.Second
			return &core.PublishError{Kind: core.PublishRateLimited, RetryAfter: retryAfter, Err: err}
		case apiErr.Code == 403:
			return &core.PublishError{Kind: core.PublishForbidden, Err: err}
		case strings.Contains(apiErr.Message, "message to edit not found"),
			strings.Contains(apiErr.Message, "message not found"):
			return &core.PublishError{Kind: core.PublishNotFound, Err: err}
		}
	}

	// The client library sometimes surfaces plain errors with the API
	// message embedded; keep the string checks as a fallback.
	msg := err.Error()
	switch {
	case strings.Contains(msg, "Too Many Requests"):
		return &core.PublishError{Kind: core.PublishRateLimited, Err: err}
	case strings.Contains(msg, "message to edit not found"):
		return &core.PublishError{Kind: core.PublishNotFound, Err: err}
	case strings.Contains(msg, "Forbidden"):
		return &core.PublishError{Kind: core.PublishForbidden, Err: err}
	}
	return &core.PublishError{Kind: core.PublishOther, Err: err}
}
