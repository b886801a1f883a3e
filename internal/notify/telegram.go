package notify

import (
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramSink delivers messages to a chat via the Telegram Bot API.
type TelegramSink struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *slog.Logger
}

// NewTelegramSink creates a sink for the given bot token and chat.
func NewTelegramSink(token string, chatID int64, logger *slog.Logger) (*TelegramSink, error) {
	if logger == nil {
		logger = slog.Default()
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	return &TelegramSink{
		bot:    bot,
		chatID: chatID,
		logger: logger,
	}, nil
}

// Send delivers one message. Failures are logged and dropped.
func (t *TelegramSink) Send(text string) {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if _, err := t.bot.Send(msg); err != nil {
		t.logger.Warn("telegram send failed", "error", err)
	}
}

// LogSink writes messages to the log. Used when Telegram is not configured.
type LogSink struct {
	Logger *slog.Logger
}

// Send logs the message.
func (s *LogSink) Send(text string) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("notification", "text", text)
}
