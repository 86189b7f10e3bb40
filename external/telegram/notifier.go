// Package telegram delivers engine notifications through the Telegram
// Bot API.
package telegram

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/platform/logging"
)

type Config struct {
	Token       string
	PollTimeout time.Duration

	// SendRate spaces outgoing messages under the Bot API's global
	// limit of roughly thirty messages per second.
	SendRate rate.Limit
}

// Notifier implements the usecase Messenger port on telebot.
type Notifier struct {
	bot     *tele.Bot
	limiter *rate.Limiter
	logger  *logging.Logger
}

func New(cfg Config, logger *logging.Logger) (*Notifier, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	timeout := cfg.PollTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	sendRate := cfg.SendRate
	if sendRate <= 0 {
		sendRate = rate.Limit(25)
	}

	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: timeout},
	})
	if err != nil {
		return nil, err
	}

	return &Notifier{
		bot:     bot,
		limiter: rate.NewLimiter(sendRate, 1),
		logger:  logger,
	}, nil
}

// Bot exposes the underlying telebot instance so command handlers can
// be registered before Start.
func (n *Notifier) Bot() *tele.Bot {
	return n.bot
}

// Send delivers one plain-text message to the chat, honoring the
// global send rate.
func (n *Notifier) Send(ctx context.Context, chatID int64, text string) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := n.bot.Send(tele.ChatID(chatID), text)
	return err
}

// Start begins long polling. Blocks until Stop is called; run it on
// its own goroutine.
func (n *Notifier) Start() {
	n.logger.Info("telegram long polling started")
	n.bot.Start()
}

func (n *Notifier) Stop() {
	n.bot.Stop()
	n.logger.Info("telegram long polling stopped")
}
