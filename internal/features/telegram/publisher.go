package telegram

import (
	"context"
	"fmt"
	"time"

	"orderviz/internal/infra/fs"
	"orderviz/internal/infra/log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const fileWait = 5 * time.Second

// Sender is the part of *tgbotapi.BotAPI the publisher uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Photo struct {
	Path    string
	Caption string
}

type Publisher struct {
	bot    Sender
	chatID int64
}

func NewPublisher(bot Sender, chatID int64) *Publisher {
	return &Publisher{bot: bot, chatID: chatID}
}

// Connect creates a bot API client from a token.
func Connect(token string, chatID int64) (*Publisher, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	log.LogInfo("Telegram bot authorized", zap.String("account", bot.Self.UserName))
	return NewPublisher(bot, chatID), nil
}

// Publish sends each chart as a photo. When a chart file is missing or the
// upload fails, its caption goes out as a plain message instead. The first
// failure to deliver anything is returned after all photos are tried.
func (p *Publisher) Publish(ctx context.Context, summary string, photos []Photo) error {
	var firstErr error
	keep := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}

	if summary != "" {
		msg := tgbotapi.NewMessage(p.chatID, summary)
		msg.ParseMode = tgbotapi.ModeHTML
		if _, err := p.bot.Send(msg); err != nil {
			log.LogWarn("Failed to send summary message", zap.Error(err))
			keep(fmt.Errorf("failed to send summary: %w", err))
		}
	}

	for _, ph := range photos {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := fs.WaitForFile(ctx, ph.Path, fileWait); err != nil {
			log.LogWarn("Chart file not ready, sending caption only", zap.String("chartPath", ph.Path), zap.Error(err))
			if err := p.sendText(ph.Caption); err != nil {
				keep(err)
			}
			continue
		}

		photo := tgbotapi.NewPhoto(p.chatID, tgbotapi.FilePath(ph.Path))
		photo.Caption = ph.Caption
		if _, err := p.bot.Send(photo); err != nil {
			log.LogWarn("Failed to send chart", zap.String("chartPath", ph.Path), zap.Error(err))
			if err := p.sendText(ph.Caption); err != nil {
				keep(err)
			}
			continue
		}
		log.LogSuccess("Chart sent", zap.String("chartPath", ph.Path), zap.Int64("chatID", p.chatID))
	}
	return firstErr
}

func (p *Publisher) sendText(text string) error {
	if text == "" {
		return nil
	}
	if _, err := p.bot.Send(tgbotapi.NewMessage(p.chatID, text)); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}
