package notify

import (
	"context"
	"fmt"
	"log"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/oakline/taskherald/internal/config"
)

// Bot is the subset of the telegram bot API the notifier needs.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// BotFactory creates Bot instances (allows mocking in tests).
type BotFactory func(token string) (Bot, error)

// defaultBotFactory creates a real telegram bot.
var defaultBotFactory BotFactory = func(token string) (Bot, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	log.Printf("[telegram] authorized as @%s", bot.Self.UserName)
	return bot, nil
}

// TelegramNotifier mirrors notifications into a telegram chat.
type TelegramNotifier struct {
	bot    Bot
	chatID int64
}

// NewTelegramNotifier creates a TelegramNotifier from the given settings.
func NewTelegramNotifier(cfg config.TelegramConfig) (*TelegramNotifier, error) {
	return NewTelegramNotifierWithFactory(cfg, defaultBotFactory)
}

// NewTelegramNotifierWithFactory creates a TelegramNotifier with a
// custom bot factory (for testing).
func NewTelegramNotifierWithFactory(cfg config.TelegramConfig, factory BotFactory) (*TelegramNotifier, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram: token is required")
	}

	bot, err := factory(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram: creating bot: %w", err)
	}

	return &TelegramNotifier{bot: bot, chatID: cfg.ChatID}, nil
}

// Send posts subject and body as one message. A numeric recipient
// overrides the configured chat; otherwise the configured chat is used.
func (n *TelegramNotifier) Send(ctx context.Context, recipient, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	chatID := n.chatID
	if recipient != "" {
		id, err := strconv.ParseInt(recipient, 10, 64)
		if err != nil {
			return fmt.Errorf("telegram: recipient %q is not a chat id", recipient)
		}
		chatID = id
	}
	if chatID == 0 {
		return fmt.Errorf("telegram: no chat configured")
	}

	msg := tgbotapi.NewMessage(chatID, subject+"\n\n"+body)
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram: sending to chat %d: %w", chatID, err)
	}

	return nil
}
