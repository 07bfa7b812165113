package telegram

import (
	"context"
	"errors"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/jisjis-ai/telbotfun/internal/domain"
	"github.com/jisjis-ai/telbotfun/internal/logging"
	"github.com/jisjis-ai/telbotfun/internal/session"
	"github.com/jisjis-ai/telbotfun/internal/signals"
)

func (c *Client) handleCallback(ctx context.Context, cb *models.CallbackQuery) {
	if cb == nil {
		return
	}

	// Clear the loading spinner regardless of the outcome.
	if _, err := c.bot.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: cb.ID}); err != nil {
		c.logger.WithField("event", "callback_answer_failed").WithError(err).Warn("could not acknowledge callback")
	}

	userID := cb.From.ID
	chatID := callbackChatID(cb)
	data := cb.Data

	// Composer button presses flow through the machine.
	if sess := c.sessions.Get(userID); sess != nil &&
		(sess.Step == session.StepButtonDecision || sess.Step == session.StepReadyToSend) {
		c.advance(ctx, chatID, userID, &cb.From, sess, session.Event{Kind: session.EventCallback, Data: data})
		return
	}

	if userID == c.cfg.AdminID && c.handleAdminCallback(ctx, chatID, userID, data) {
		return
	}

	switch data {
	case cbCheckMembership:
		member, err := c.isChannelMember(ctx, userID)
		if err != nil || !member {
			c.send(ctx, chatID, msgStillOut, joinKeyboard(c.cfg.ChannelLink))
			return
		}
		c.showMenuOrOnboard(ctx, chatID, userID, &cb.From)

	case cbMainMenu:
		c.showMenuOrOnboard(ctx, chatID, userID, &cb.From)

	case cbCheckBalance:
		balance, err := c.ledger.Balance(ctx, userID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			c.logger.WithField("user_id", userID).WithError(err).Error("could not load balance")
			return
		}
		c.send(ctx, chatID, msgBalance(balance), backKeyboard())

	case cbMyInvites:
		invites, err := c.ledger.Invites(ctx, userID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			c.logger.WithField("user_id", userID).WithError(err).Error("could not load invites")
			return
		}
		text := msgInvites(invites, c.cfg.InviteBonus)
		if name := c.botUsername(ctx); name != "" {
			text += "\n" + msgInviteLink(name, userID)
		}
		c.send(ctx, chatID, text, backKeyboard())

	case cbGiftHistory:
		codes, err := c.ledger.GiftCodeHistory(ctx, userID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			c.logger.WithField("user_id", userID).WithError(err).Error("could not load gift history")
			return
		}
		c.send(ctx, chatID, msgGiftHistory(codes), backKeyboard())

	case cbRedeemGift:
		c.sessions.Begin(userID, session.StepGiftCodeEntry)
		c.send(ctx, chatID, msgAskGiftCode, nil)

	case cbGenerateMines:
		c.generateSignal(ctx, chatID, userID, domain.GameMines)

	case cbGenerateAviator:
		c.generateSignal(ctx, chatID, userID, domain.GameAviator)

	case cbRegisterChannel:
		c.sessions.Begin(userID, session.StepChannelLink)
		c.send(ctx, chatID, msgAskChannelLink, nil)

	case cbWantOwnBot:
		c.send(ctx, chatID, msgWantOwnBot, backKeyboard())

	case cbPrivacyPolicy:
		c.send(ctx, chatID, msgPrivacy, backKeyboard())

	default:
		c.logger.WithFields(logging.Fields{
			"event":   "callback_unknown",
			"user_id": userID,
			"data":    data,
		}).Warn("unknown callback data")
	}
}

// handleAdminCallback reports whether the data was an admin action.
func (c *Client) handleAdminCallback(ctx context.Context, chatID, adminID int64, data string) bool {
	switch data {
	case cbAdminUsers:
		users, err := c.store.ListUsers(ctx)
		if err != nil {
			c.logger.WithField("event", "admin_users_failed").WithError(err).Error("could not list users")
			return true
		}
		c.send(ctx, chatID, msgAdminPanel(len(users)), adminKeyboard())

	case cbAdminOperations:
		flags, err := c.store.ListOperationFlags(ctx)
		if err != nil {
			c.logger.WithField("event", "admin_operations_failed").WithError(err).Error("could not list operations")
			return true
		}
		c.send(ctx, chatID, msgOperations(flags), operationsKeyboard())

	case cbToggleMines:
		c.toggleOperation(ctx, chatID, domain.GameMines)

	case cbToggleAviator:
		c.toggleOperation(ctx, chatID, domain.GameAviator)

	case cbCreateGift:
		c.sessions.Begin(adminID, session.StepGiftCodeValue)
		c.send(ctx, chatID, msgAskGiftValue, nil)

	case cbBroadcastUsers:
		sess := c.sessions.Begin(adminID, session.StepBroadcastContent)
		sess.Draft.Audience = session.AudienceUsers
		c.send(ctx, chatID, msgAskBroadcast, nil)

	case cbBroadcastChannel:
		sess := c.sessions.Begin(adminID, session.StepBroadcastContent)
		sess.Draft.Audience = session.AudienceChannels
		c.send(ctx, chatID, msgAskBroadcast, nil)

	default:
		return false
	}

	return true
}

func (c *Client) showAdminPanel(ctx context.Context, chatID int64) {
	users, err := c.store.ListUsers(ctx)
	if err != nil {
		c.logger.WithField("event", "admin_panel_failed").WithError(err).Error("could not list users")
		return
	}
	c.send(ctx, chatID, msgAdminPanel(len(users)), adminKeyboard())
}

func (c *Client) toggleOperation(ctx context.Context, chatID int64, game string) {
	active, err := c.store.GetOperationFlag(ctx, game)
	if err != nil {
		c.logger.WithField("game", game).WithError(err).Error("could not read operation flag")
		return
	}
	if err := c.store.SetOperationFlag(ctx, game, !active); err != nil {
		c.logger.WithField("game", game).WithError(err).Error("could not flip operation flag")
		return
	}

	flags, err := c.store.ListOperationFlags(ctx)
	if err != nil {
		return
	}
	c.send(ctx, chatID, msgOperations(flags), operationsKeyboard())
}

// signalGate checks the window, the stored flag, and the user's balance,
// debiting one credit on success.
func (c *Client) signalGate(ctx context.Context, userID int64, game string) error {
	now := c.now().In(c.cfg.Timezone)
	if !signals.WithinOperatingWindow(game, now) {
		return domain.ErrOutsideOperatingWindow
	}
	active, err := c.store.GetOperationFlag(ctx, game)
	if err != nil {
		return err
	}
	if !active {
		return domain.ErrOutsideOperatingWindow
	}

	ok, err := c.ledger.DebitForSignal(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrInsufficientCredits
	}
	return nil
}

// generateSignal debits one credit and answers with a fresh prediction.
func (c *Client) generateSignal(ctx context.Context, chatID, userID int64, game string) {
	switch err := c.signalGate(ctx, userID, game); {
	case err == nil:
	case errors.Is(err, domain.ErrOutsideOperatingWindow):
		c.send(ctx, chatID, msgOutsideWindow(game), backKeyboard())
		return
	case errors.Is(err, domain.ErrInsufficientCredits):
		c.send(ctx, chatID, msgNoCredits, backKeyboard())
		return
	default:
		c.logger.WithFields(logging.Fields{
			"event":   "signal_gate_failed",
			"user_id": userID,
			"game":    game,
		}).WithError(err).Error("could not gate signal request")
		return
	}

	var text string
	if game == domain.GameMines {
		text = c.gen.Mines().Message()
	} else {
		text = c.gen.Aviator().Message()
	}
	c.send(ctx, chatID, text, backKeyboard())
}

func (c *Client) showMenuOrOnboard(ctx context.Context, chatID, userID int64, from *models.User) {
	user, err := c.store.GetUser(ctx, userID)
	switch {
	case err == nil:
		c.send(ctx, chatID, msgWelcome(firstName(from), user.Credits), mainMenuKeyboard())
	case errors.Is(err, domain.ErrNotFound):
		c.beginOnboarding(ctx, chatID, userID, c.takeReferral(userID))
	default:
		c.logger.WithField("user_id", userID).WithError(err).Error("could not load user")
	}
}

// botUsername resolves and caches the bot's own username for invite links.
func (c *Client) botUsername(ctx context.Context) string {
	if c.me != "" {
		return c.me
	}

	me, err := c.bot.GetMe(ctx)
	if err != nil || me == nil {
		c.logger.WithField("event", "get_me_failed").WithError(err).Warn("could not resolve bot username")
		return ""
	}

	c.me = me.Username
	return c.me
}

func callbackChatID(cb *models.CallbackQuery) int64 {
	if cb.Message.Message != nil {
		return cb.Message.Message.Chat.ID
	}
	if cb.Message.InaccessibleMessage != nil {
		return cb.Message.InaccessibleMessage.Chat.ID
	}
	return cb.From.ID
}
