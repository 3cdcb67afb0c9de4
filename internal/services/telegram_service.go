package services

import (
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramService — зеркальный канал доставки кодов в привязанный чат.
// Необязателен: nil-сервис и непривязанный чат просто пропускаются.
type TelegramService struct {
	bot *tgbotapi.BotAPI
}

func NewTelegramService(botToken string) (*TelegramService, error) {
	if botToken == "" {
		return nil, fmt.Errorf("telegram: empty bot token")
	}
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("telegram: init bot: %w", err)
	}
	return &TelegramService{bot: bot}, nil
}

// MirrorCode отправляет код в чат best-effort: основной канал — SMS-шлюз,
// сбой здесь только логируем.
func (t *TelegramService) MirrorCode(chatID int64, code string) {
	if t == nil || t.bot == nil || chatID == 0 {
		return
	}
	msg := tgbotapi.NewMessage(chatID, "Your verification code: "+code)
	if _, err := t.bot.Send(msg); err != nil {
		log.Printf("[tg][mirror][err] chatID=%d: %v", chatID, err)
		return
	}
	log.Printf("[tg][mirror] code delivered: chatID=%d", chatID)
}
