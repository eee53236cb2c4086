package notifier

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/semmidev/mongo-s3-backup/internal/config"
	"github.com/semmidev/mongo-s3-backup/internal/domain"
)

// Telegram posts a short summary of every finished run to a chat.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegram(cfg *config.TelegramConfig) (*Telegram, error) {
	return newTelegram(cfg, tgbotapi.APIEndpoint)
}

func newTelegram(cfg *config.TelegramConfig, endpoint string) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(cfg.BotToken, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &Telegram{
		bot:    bot,
		chatID: cfg.ChatID,
	}, nil
}

func (t *Telegram) Notify(ctx context.Context, outcome domain.RunOutcome) error {
	msg := tgbotapi.NewMessage(t.chatID, FormatOutcome(outcome))
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram notification: %w", err)
	}
	return nil
}

func FormatOutcome(o domain.RunOutcome) string {
	if o.Succeeded() {
		return fmt.Sprintf(
			"✅ Backup Uploaded\n\n"+
				"🗄 Database: %s\n"+
				"📁 File: %s\n"+
				"⏱ Duration: %s\n"+
				"🕐 Started: %s",
			o.Database,
			o.Archive,
			o.Duration.Round(time.Second),
			o.StartedAt.Format("2006-01-02 15:04:05 MST"),
		)
	}

	return fmt.Sprintf(
		"❌ Backup Failed\n\n"+
			"🗄 Database: %s\n"+
			"💥 Error: %v\n"+
			"🕐 Started: %s",
		o.Database,
		o.Err,
		o.StartedAt.Format("2006-01-02 15:04:05 MST"),
	)
}
