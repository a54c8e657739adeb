package notifications

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"mooncall/shared/env"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

var bot *tgbotapi.BotAPI
var isInitialized bool = false
var telegramLimiter *rate.Limiter

// InitTelegramBot wires the operator-log mirror. The bot is optional: when
// credentials are missing the rest of the service runs without it.
func InitTelegramBot() error {
	if isInitialized && bot != nil {
		log.Println("INFO: Telegram bot already initialized.")
		return nil
	}

	isInitialized = false
	bot = nil
	telegramLimiter = nil

	botToken := env.TelegramBotToken
	groupID := env.TelegramGroupID

	if botToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN missing from env configuration")
	}
	if groupID == 0 {
		return fmt.Errorf("TELEGRAM_GROUP_ID missing or invalid in env configuration")
	}

	log.Println("Initializing Telegram bot API...")
	var err error
	bot, err = tgbotapi.NewBotAPI(botToken)
	if err != nil {
		bot = nil
		return fmt.Errorf("failed to initialize Telegram bot API: %w", err)
	}
	userInfo, err := bot.GetMe()
	if err != nil {
		bot = nil
		return fmt.Errorf("failed to verify bot token with GetMe API call: %w", err)
	}

	isInitialized = true
	telegramLimiter = rate.NewLimiter(rate.Limit(0.2), 1)
	log.Printf("Telegram bot initialized successfully for @%s", userInfo.UserName)

	escapedUsername := EscapeMarkdownV2(userInfo.UserName)
	SendTelegramMessage(fmt.Sprintf("Bot connected successfully \\(@%s\\)\\. Ready\\.", escapedUsername))
	return nil
}

func GetBotInstance() *tgbotapi.BotAPI {
	if !isInitialized || bot == nil {
		log.Println("WARN: GetBotInstance called but bot is not initialized or initialization failed.")
	}
	return bot
}

func SendTelegramMessage(message string) {
	sendMessageWithRetry(env.TelegramGroupID, message)
}

func sendMessageWithRetry(chatID int64, text string) {
	if telegramLimiter != nil {
		if err := telegramLimiter.Wait(context.Background()); err != nil {
			log.Printf("ERROR: Telegram rate limiter wait error for chat %d: %v. Proceeding with send attempt...", chatID, err)
		}
	}
	if bot == nil {
		log.Println("ERROR: Cannot send message, Telegram bot is not initialized.")
		return
	}
	if chatID == 0 {
		log.Println("ERROR: Cannot send message, target chatID is 0.")
		return
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2

	maxRetries := 3
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		_, err := bot.Send(msg)
		if err == nil {
			return
		}
		lastErr = err

		if tgErr, ok := err.(*tgbotapi.Error); ok {
			log.Printf("ERROR: Failed Telegram send (Attempt %d/%d): API Err %d - %s",
				i+1, maxRetries, tgErr.Code, tgErr.Message)
			if tgErr.Code == 429 {
				retryAfter := tgErr.RetryAfter
				if retryAfter <= 0 {
					retryAfter = 1
				}
				time.Sleep(time.Duration(retryAfter) * time.Second)
				continue
			}
		} else {
			log.Printf("ERROR: Failed Telegram send (Attempt %d/%d): %v", i+1, maxRetries, err)
		}

		if i < maxRetries-1 {
			waitDuration := time.Duration(math.Pow(2, float64(i))) * time.Second
			if waitDuration < time.Second {
				waitDuration = time.Second
			}
			time.Sleep(waitDuration)
		}
	}
	log.Printf("ERROR: Telegram message failed to send after %d retries. Last Error: %v", maxRetries, lastErr)
}

func EscapeMarkdownV2(s string) string {
	charsToEscape := []string{"_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!"}
	temp := s
	for _, char := range charsToEscape {
		temp = strings.ReplaceAll(temp, char, "\\"+char)
	}
	return temp
}
