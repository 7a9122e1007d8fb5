package telegram

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	unauthorizedMsg = "Sorry, you are not authorized to use this bot."
	noOpsMsg        = "The dashboard service is not running."
)

// handleMessage processes an incoming message and dispatches admin
// commands. Every command replies with an explicit success or failure
// line; failures never crash silently.
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		return
	}

	userID := msg.From.ID
	chatID := msg.Chat.ID

	b.logger.Debug("received command",
		slog.String("command", msg.Command()),
		slog.Int64("user_id", userID),
	)

	if !b.isAdmin(userID) {
		b.sendText(chatID, unauthorizedMsg)
		return
	}
	if b.ops == nil {
		b.sendText(chatID, noOpsMsg)
		return
	}

	switch msg.Command() {
	case "update_libraries":
		result, err := b.ops.RefreshLibraryConfig(ctx)
		if err != nil {
			b.sendText(chatID, "❌ Failed to update libraries: "+err.Error())
			return
		}
		b.sendText(chatID, "✅ "+result)

	case "toggle_episodes":
		result, err := b.ops.ToggleEpisodeDisplay(ctx)
		if err != nil {
			b.sendText(chatID, "❌ Failed to toggle episode display: "+err.Error())
			return
		}
		b.sendText(chatID, "✅ "+result)

	case "refresh":
		if err := b.ops.ForceRefresh(ctx); err != nil {
			b.sendText(chatID, "❌ Dashboard refresh failed: "+err.Error())
			return
		}
		b.sendText(chatID, "✅ Dashboard refreshed.")

	case "start", "help":
		b.sendText(chatID, "MediaWatch commands:\n"+
			"/refresh - run a dashboard update now\n"+
			"/update_libraries - rebuild the library configuration\n"+
			"/toggle_episodes - flip episode counts on all sections")
	}
}

// isAdmin checks whether a user may run admin commands. An empty admin
// list locks the command surface entirely.
func (b *Bot) isAdmin(userID int64) bool {
	return b.admins[userID]
}

// sendText sends a best-effort plain text reply.
func (b *Bot) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("send reply failed", slog.String("error", err.Error()))
	}
}
