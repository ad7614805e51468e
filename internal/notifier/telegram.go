package notifier

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

const DefaultAPIBase = "https://api.telegram.org"

// TelegramNotifier sends messages via the Telegram Bot API.
type TelegramNotifier struct {
	BotToken string
	ChatID   string
	client   *resty.Client
	poller   *resty.Client
}

// NewTelegramNotifier creates a notifier with optional proxy support.
// Failed sends are retried up to retries times with exponential backoff.
func NewTelegramNotifier(botToken, chatID, proxyURL string, retries int) *TelegramNotifier {
	return newTelegramNotifier(DefaultAPIBase, botToken, chatID, proxyURL, retries, time.Second)
}

func newTelegramNotifier(apiBase, botToken, chatID, proxyURL string, retries int, wait time.Duration) *TelegramNotifier {
	client := resty.New().
		SetBaseURL(apiBase).
		SetTimeout(30 * time.Second).
		SetRetryCount(retries).
		SetRetryWaitTime(wait).
		SetRetryMaxWaitTime(8 * wait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500 || r.StatusCode() == http.StatusTooManyRequests
		})
	// long polling holds the request for up to 30s
	poller := resty.New().
		SetBaseURL(apiBase).
		SetTimeout(35 * time.Second)
	if proxyURL != "" {
		client.SetProxy(proxyURL)
		poller.SetProxy(proxyURL)
	}
	return &TelegramNotifier{
		BotToken: botToken,
		ChatID:   chatID,
		client:   client,
		poller:   poller,
	}
}

// Enabled reports whether a bot token is configured.
func (t *TelegramNotifier) Enabled() bool { return t.BotToken != "" }

// Send sends a message to the configured chat.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	if !t.Enabled() {
		log.Info().Str("text", text).Msg("telegram disabled, message not sent")
		return nil
	}
	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"chat_id":    t.ChatID,
			"text":       text,
			"parse_mode": "HTML",
		}).
		Post(fmt.Sprintf("/bot%s/sendMessage", t.BotToken))
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("telegram API error: status %d, body: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
