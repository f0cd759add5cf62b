package notify

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const telegramTimeout = 10 * time.Second

// TelegramSink sends each notification as a chat message. The bot client is
// created on first use since creating it calls the API.
type TelegramSink struct {
	token    string
	chatID   int64
	endpoint string
	client   *http.Client

	mu  sync.Mutex
	api *tgbotapi.BotAPI
}

func NewTelegramSink(token string, chatID int64) *TelegramSink {
	return &TelegramSink{
		token:    token,
		chatID:   chatID,
		endpoint: tgbotapi.APIEndpoint,
		client:   &http.Client{Timeout: telegramTimeout},
	}
}

// WithTimeout bounds every Bot API request, including the initial getMe.
func (s *TelegramSink) WithTimeout(d time.Duration) *TelegramSink {
	s.client.Timeout = d
	return s
}

// WithEndpoint points the sink at a different Bot API base, in the
// "https://host/bot%s/%s" form.
func (s *TelegramSink) WithEndpoint(endpoint string) *TelegramSink {
	s.endpoint = endpoint
	return s
}

func (s *TelegramSink) Name() string { return "telegram" }

func (s *TelegramSink) bot() (*tgbotapi.BotAPI, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.api != nil {
		return s.api, nil
	}
	api, err := tgbotapi.NewBotAPIWithClient(s.token, s.endpoint, s.client)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	s.api = api
	return api, nil
}

// Send delivers msg and returns once it is sent or ctx is done. The bot API
// takes no context, so a request abandoned on cancel still ends at the client timeout.
func (s *TelegramSink) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() { done <- s.send(msg) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("send telegram message: %w", ctx.Err())
	}
}

func (s *TelegramSink) send(msg Message) error {
	api, err := s.bot()
	if err != nil {
		return err
	}
	m := tgbotapi.NewMessage(s.chatID, msg.Title+"\n"+msg.Body)
	m.DisableNotification = !msg.Sound
	m.DisableWebPagePreview = true
	if _, err := api.Send(m); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}
