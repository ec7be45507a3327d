package telegram

import (
	"context"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"dbdwatch/pkg/errors"
	"dbdwatch/pkg/logger"
	"dbdwatch/pkg/telegram"
)

// Bot is a long-polling Telegram client with a send rate limiter
type Bot struct {
	api         *tgbotapi.BotAPI
	log         *logger.Logger
	mu          sync.RWMutex
	running     bool
	handler     func(telegram.Update)
	rateLimiter *rate.Limiter
	timeout     int
}

// Config contains Telegram bot configuration
type Config struct {
	Token          string
	Debug          bool
	Timeout        int // long-poll timeout in seconds
	HTTPTimeout    time.Duration
	RateLimitBurst int
	RateLimitRate  int // messages per second
}

var _ telegram.Bot = (*Bot)(nil)

// NewBot authorizes against the Bot API
func NewBot(cfg Config, log *logger.Logger) (*Bot, error) {
	if cfg.Token == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "telegram bot token is required")
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = 60
	}
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = 90 * time.Second
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 30
	}
	if cfg.RateLimitRate == 0 {
		cfg.RateLimitRate = 20 // Telegram allows 30/s per bot
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	api, err := tgbotapi.NewBotAPIWithClient(cfg.Token, tgbotapi.APIEndpoint, httpClient)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create telegram bot")
	}
	api.Debug = cfg.Debug

	log.Infof("Authorized on account %s", api.Self.UserName)

	return &Bot{
		api:         api,
		log:         log.With("component", "telegram_bot"),
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RateLimitRate), cfg.RateLimitBurst),
		timeout:     cfg.Timeout,
	}, nil
}

// Start polls for updates until ctx is cancelled
func (b *Bot) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return errors.New("bot is already running")
	}
	b.running = true
	b.mu.Unlock()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.timeout
	updates := b.api.GetUpdatesChan(u)

	b.log.Infow("Telegram bot started, waiting for updates")

	for {
		select {
		case <-ctx.Done():
			b.Stop()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.dispatch(update)
		}
	}
}

// Stop stops polling
func (b *Bot) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.running {
		return
	}
	b.api.StopReceivingUpdates()
	b.running = false
	b.log.Infow("Telegram bot stopped")
}

// SetHandler registers the update handler
func (b *Bot) SetHandler(handler func(telegram.Update)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handler = handler
}

// SendMessage sends a MarkdownV2 message once the limiter allows it
func (b *Bot) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := b.rateLimiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "rate limiter wait failed")
	}

	start := time.Now()

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableWebPagePreview = true

	if _, err := b.api.Send(msg); err != nil {
		b.log.Errorw("Failed to send message",
			"chat_id", chatID,
			"error", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return errors.Wrap(err, "failed to send message")
	}

	b.log.Debugw("Message sent", "chat_id", chatID, "duration_ms", time.Since(start).Milliseconds())
	return nil
}

func (b *Bot) dispatch(update tgbotapi.Update) {
	b.mu.RLock()
	handler := b.handler
	b.mu.RUnlock()

	if handler == nil {
		b.log.Debugw("Dropping update, no handler registered", "update_id", update.UpdateID)
		return
	}
	handler(convertUpdate(update))
}

// convertUpdate maps API types onto the transport-independent ones
func convertUpdate(u tgbotapi.Update) telegram.Update {
	out := telegram.Update{UpdateID: u.UpdateID}
	if u.Message == nil {
		return out
	}

	msg := &telegram.Message{
		MessageID: u.Message.MessageID,
		Text:      u.Message.Text,
	}
	if u.Message.From != nil {
		msg.From = &telegram.User{
			ID:        u.Message.From.ID,
			FirstName: u.Message.From.FirstName,
			Username:  u.Message.From.UserName,
		}
	}
	if u.Message.Chat != nil {
		msg.Chat = &telegram.Chat{ID: u.Message.Chat.ID, Type: u.Message.Chat.Type}
	}
	msg.ParseCommand()

	out.Message = msg
	return out
}
