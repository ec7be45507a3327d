package telegram

import (
	"context"
	"time"

	"dbdwatch/pkg/logger"
	"dbdwatch/pkg/telegram"
)

const commandTimeout = 30 * time.Second

// Handler turns updates into command invocations. Plain text is treated as
// a region query for /risiko.
type Handler struct {
	bot      telegram.Bot
	registry *telegram.CommandRegistry
	log      *logger.Logger
}

func NewHandler(bot telegram.Bot, registry *telegram.CommandRegistry, log *logger.Logger) *Handler {
	return &Handler{
		bot:      bot,
		registry: registry,
		log:      log.With("component", "telegram_handler"),
	}
}

// HandleUpdate is the bot's update callback
func (h *Handler) HandleUpdate(update telegram.Update) {
	if !update.HasMessage() || update.Message.Chat == nil {
		return
	}
	msg := update.Message

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	var userID int64
	if msg.From != nil {
		userID = msg.From.ID
	}

	command, args := msg.Command, msg.Arguments
	if !msg.IsCommand {
		if msg.Text == "" {
			return
		}
		command, args = CommandRisk, msg.Text
	}

	if err := h.registry.Handle(ctx, msg.Chat.ID, userID, command, args); err != nil {
		h.log.Errorw("Failed to handle message",
			"message_id", msg.MessageID,
			"chat_id", msg.Chat.ID,
			"error", err,
		)
	}
}
