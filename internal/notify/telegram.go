package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbot "github.com/go-telegram/bot"

	"tagwatch/internal/config"
	"tagwatch/internal/domain"
)

// TelegramSender posts alarm events to one Telegram chat.
// Events below the configured minimum priority are skipped.
type TelegramSender struct {
	client      *tgbot.Bot
	chatID      int64
	minPriority domain.Priority
}

// NewTelegramSender creates the Telegram channel sender.
// Params: telegram config with bot token, chat id, and priority floor.
// Returns: initialized sender or configuration error.
func NewTelegramSender(cfg config.TelegramNotifyConfig) (*TelegramSender, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is required")
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("telegram chat_id is required")
	}

	minPriority := domain.PriorityLow
	if strings.TrimSpace(cfg.MinPriority) != "" {
		parsed, err := domain.ParsePriority(cfg.MinPriority)
		if err != nil {
			return nil, fmt.Errorf("telegram min_priority: %w", err)
		}
		minPriority = parsed
	}

	client, err := tgbot.New(cfg.Token, tgbot.WithSkipGetMe())
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}
	return &TelegramSender{
		client:      client,
		chatID:      cfg.ChatID,
		minPriority: minPriority,
	}, nil
}

// Channel returns sender channel name.
// Params: none.
// Returns: static channel key.
func (s *TelegramSender) Channel() string {
	return "telegram"
}

// Send posts one alarm message to the configured chat.
// Params: context and alarm event.
// Returns: nil for filtered events, transport error otherwise.
func (s *TelegramSender) Send(ctx context.Context, event domain.AlarmEvent) error {
	if event.Priority < s.minPriority {
		return nil
	}
	if s.client == nil {
		return errors.New("telegram client is not initialized")
	}

	text := fmt.Sprintf("[%s] %s", event.Level.String(), event.Message)
	sent, err := s.client.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: s.chatID,
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	if sent == nil || sent.ID <= 0 {
		return errors.New("telegram send returned empty message id")
	}
	return nil
}
