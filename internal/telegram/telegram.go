// Package telegram hosts the Telegram client, routing, and handlers.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"github.com/jisjis-ai/telbotfun/internal/config"
	"github.com/jisjis-ai/telbotfun/internal/ledger"
	"github.com/jisjis-ai/telbotfun/internal/logging"
	"github.com/jisjis-ai/telbotfun/internal/session"
	"github.com/jisjis-ai/telbotfun/internal/signals"
	"github.com/jisjis-ai/telbotfun/internal/store"
)

// botAPI is the slice of the bot client the handlers use. Narrowed so tests
// can stub the transport.
type botAPI interface {
	Start(ctx context.Context)
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendPhoto(ctx context.Context, params *bot.SendPhotoParams) (*models.Message, error)
	SendVideo(ctx context.Context, params *bot.SendVideoParams) (*models.Message, error)
	SendDocument(ctx context.Context, params *bot.SendDocumentParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
	GetMe(ctx context.Context) (*models.User, error)
	GetChat(ctx context.Context, params *bot.GetChatParams) (*models.ChatFullInfo, error)
	GetChatMember(ctx context.Context, params *bot.GetChatMemberParams) (*models.ChatMember, error)
	GetChatMemberCount(ctx context.Context, params *bot.GetChatMemberCountParams) (int, error)
}

var (
	defaultAllowedUpdates = bot.AllowedUpdates{
		"message",
		"callback_query",
		"my_chat_member",
	}

	createBot = func(token string, options ...bot.Option) (botAPI, error) {
		return bot.New(token, options...)
	}

	// Delay before re-checking channel membership after the join prompt.
	membershipRecheck = 20 * time.Second
)

// Client wraps the Telegram bot instance and the services the handlers call.
type Client struct {
	bot        botAPI
	cfg        config.Config
	store      store.Store
	ledger     *ledger.Ledger
	sessions   *session.Manager
	machine    *session.Machine
	onboarding *session.Onboarding
	gen        *signals.Generator
	logger     *logrus.Entry
	now        func() time.Time

	// Cached bot username, resolved lazily via GetMe.
	me string

	// Referrer ids captured before the membership gate, keyed by the
	// referred user. Consumed when onboarding finally starts.
	referralMu       sync.Mutex
	pendingReferrals map[int64]int64
}

// NewClient initializes the Telegram bot with long polling and wires the
// update handlers.
func NewClient(cfg config.Config, st store.Store, lg *ledger.Ledger, onboarding *session.Onboarding, sessions *session.Manager, logger *logrus.Entry) (*Client, error) {
	if strings.TrimSpace(cfg.TelegramToken) == "" {
		return nil, errors.New("telegram token is required")
	}
	if st == nil || lg == nil || onboarding == nil {
		return nil, errors.New("store, ledger and onboarding services are required")
	}
	if sessions == nil {
		sessions = session.NewManager()
	}
	if logger == nil {
		logger = logging.Logger()
	}
	if cfg.Timezone == nil {
		cfg.Timezone = time.UTC
	}

	machine, err := session.NewMachine()
	if err != nil {
		return nil, fmt.Errorf("build session machine: %w", err)
	}

	c := &Client{
		cfg:        cfg,
		store:      st,
		ledger:     lg,
		sessions:   sessions,
		machine:    machine,
		onboarding: onboarding,
		gen:        signals.NewGenerator(),
		logger:     logger,
		now:        time.Now,

		pendingReferrals: make(map[int64]int64),
	}

	tgBot, err := createBot(cfg.TelegramToken,
		bot.WithAllowedUpdates(defaultAllowedUpdates),
		bot.WithDefaultHandler(c.handleUpdate),
		bot.WithErrorsHandler(errorHandler(logger)),
	)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot client: %w", err)
	}
	c.bot = tgBot

	return c, nil
}

// Start begins receiving updates via long polling until the context is canceled.
func (c *Client) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	c.logger.WithFields(logging.Fields{
		"event":           "telegram_listen",
		"allowed_updates": defaultAllowedUpdates,
	}).Info("starting telegram long polling")

	c.bot.Start(ctx)

	c.logger.WithField("event", "telegram_stopped").Info("telegram polling stopped")
}

// AnnounceStartup posts a short online notice to the primary channel.
func (c *Client) AnnounceStartup(ctx context.Context) {
	c.send(ctx, c.cfg.ChannelID, msgStartup, nil)
}

func (c *Client) handleUpdate(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update == nil {
		return
	}

	switch {
	case update.Message != nil:
		c.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		c.handleCallback(ctx, update.CallbackQuery)
	}
}

func errorHandler(logger *logrus.Entry) bot.ErrorsHandler {
	if logger == nil {
		logger = logging.Logger()
	}

	return func(err error) {
		if err == nil {
			return
		}

		logger.WithField("event", "telegram_error").WithError(err).Error("telegram polling error")
	}
}

// send delivers a message, logging failures instead of surfacing them; the
// polling loop must not die on a blocked user.
func (c *Client) send(ctx context.Context, chatID int64, text string, keyboard *models.InlineKeyboardMarkup) {
	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	if _, err := c.bot.SendMessage(ctx, params); err != nil {
		c.logger.WithFields(logging.Fields{
			"event":   "telegram_send_failed",
			"chat_id": chatID,
		}).WithError(err).Warn("could not deliver message")
	}
}
