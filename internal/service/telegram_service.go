package service

import (
	"context"
	"errors"

	"homebooking/internal/domain"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const parseModeMarkdown = "Markdown"

var errNoChat = errors.New("telegram admin chat is not configured")

// TelegramService posts operator messages to one admin chat.
type TelegramService struct {
	bot    domain.TelegramSender
	chatID int64
}

func NewTelegramService(bot domain.TelegramSender, chatID int64) *TelegramService {
	return &TelegramService{
		bot:    bot,
		chatID: chatID,
	}
}

func (s *TelegramService) SendMessage(chatID int64, text string) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	return s.bot.Send(msg)
}

func (s *TelegramService) SendMarkdown(chatID int64, text string) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = parseModeMarkdown
	msg.DisableWebPagePreview = true
	return s.bot.Send(msg)
}

// Notify implements domain.Notifier for the admin chat.
func (s *TelegramService) Notify(ctx context.Context, text string) error {
	if s.chatID == 0 {
		return errNoChat
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// The bot client has no request timeout; give up on ctx and let Send finish on its own.
	done := make(chan error, 1)
	go func() {
		_, err := s.SendMarkdown(s.chatID, text)
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
