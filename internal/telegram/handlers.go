package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/jisjis-ai/telbotfun/internal/domain"
	"github.com/jisjis-ai/telbotfun/internal/logging"
	"github.com/jisjis-ai/telbotfun/internal/session"
)

func (c *Client) handleMessage(ctx context.Context, msg *models.Message) {
	if msg == nil || msg.From == nil || msg.From.IsBot {
		return
	}
	if msg.Chat.Type != models.ChatTypePrivate {
		return
	}

	userID := msg.From.ID
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	if userID == c.cfg.AdminID && text == "/admin" {
		c.showAdminPanel(ctx, chatID)
		return
	}

	// An in-flight conversation takes priority over everything else.
	if sess := c.sessions.Get(userID); sess != nil {
		c.advance(ctx, chatID, userID, msg.From, sess, eventFromMessage(msg))
		return
	}

	inviter := parseStartPayload(text)
	if inviter == userID {
		inviter = 0
	}

	// Capture the referrer before the gate: a referred user usually is not
	// a member yet, and the recovery paths never see the /start payload.
	if !c.requireMembership(ctx, chatID, userID) {
		c.stashReferral(userID, inviter)
		return
	}

	if inviter == 0 {
		inviter = c.takeReferral(userID)
	}

	user, err := c.store.GetUser(ctx, userID)
	switch {
	case err == nil:
		c.send(ctx, chatID, msgWelcome(msg.From.FirstName, user.Credits), mainMenuKeyboard())
	case errors.Is(err, domain.ErrNotFound):
		c.beginOnboarding(ctx, chatID, userID, inviter)
	default:
		c.logger.WithFields(logging.Fields{
			"event":   "user_lookup_failed",
			"user_id": userID,
		}).WithError(err).Error("could not load user")
	}
}

// requireMembership enforces the primary-channel gate. Non-members get the
// join prompt and a delayed recheck; transport errors fail open so an API
// hiccup does not lock everyone out.
func (c *Client) requireMembership(ctx context.Context, chatID, userID int64) bool {
	member, err := c.isChannelMember(ctx, userID)
	if err != nil {
		c.logger.WithFields(logging.Fields{
			"event":   "membership_check_failed",
			"user_id": userID,
		}).WithError(err).Warn("could not verify channel membership")
		return true
	}
	if member {
		return true
	}

	c.send(ctx, chatID, msgJoinChannel, joinKeyboard(c.cfg.ChannelLink))

	go func() {
		t := time.NewTimer(membershipRecheck)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}

		if joined, err := c.isChannelMember(ctx, userID); err == nil && joined {
			c.showMenuOrOnboard(ctx, chatID, userID, nil)
		}
	}()

	return false
}

func (c *Client) stashReferral(userID, inviter int64) {
	if inviter == 0 {
		return
	}
	c.referralMu.Lock()
	c.pendingReferrals[userID] = inviter
	c.referralMu.Unlock()
}

// takeReferral pops the referrer stashed for userID, zero if none.
func (c *Client) takeReferral(userID int64) int64 {
	c.referralMu.Lock()
	defer c.referralMu.Unlock()
	inviter := c.pendingReferrals[userID]
	delete(c.pendingReferrals, userID)
	return inviter
}

func (c *Client) isChannelMember(ctx context.Context, userID int64) (bool, error) {
	member, err := c.bot.GetChatMember(ctx, &bot.GetChatMemberParams{
		ChatID: c.cfg.ChannelID,
		UserID: userID,
	})
	if err != nil {
		return false, err
	}
	if member == nil {
		return false, nil
	}

	switch member.Type {
	case models.ChatMemberTypeLeft, models.ChatMemberTypeBanned:
		return false, nil
	default:
		return true, nil
	}
}

func (c *Client) beginOnboarding(ctx context.Context, chatID, userID, inviter int64) {
	sess := c.sessions.Begin(userID, session.StepAccountProof)
	sess.InvitedBy = inviter

	if err := c.onboarding.Begin(ctx, userID); err != nil {
		c.logger.WithField("user_id", userID).WithError(err).Warn("could not record pending registration")
	}

	c.send(ctx, chatID, msgAskAccountProof, registerURLKeyboard(c.cfg.RegisterURL))
}

// advance runs one event through the session machine and performs the
// resulting side effect.
func (c *Client) advance(ctx context.Context, chatID, userID int64, from *models.User, sess *session.Session, ev session.Event) {
	res := c.machine.Advance(sess, ev)
	draft := sess.Draft
	inviter := sess.InvitedBy
	c.sessions.Put(userID, sess)

	switch res.Action {
	case session.ActionReprompt:
		c.send(ctx, chatID, repromptText(sess.Step), nil)

	case session.ActionPromptDeposit:
		if err := c.onboarding.AccountProofReceived(ctx, userID, ev.MediaID); err != nil {
			c.logger.WithField("user_id", userID).WithError(err).Warn("could not record account proof")
		}
		c.send(ctx, chatID, msgAskDepositProof, depositURLKeyboard(c.cfg.DepositURL))

	case session.ActionPromptShare:
		if err := c.onboarding.DepositProofReceived(ctx, userID, ev.MediaID); err != nil {
			c.logger.WithField("user_id", userID).WithError(err).Warn("could not record deposit proof")
		}
		c.send(ctx, chatID, msgAskShare, nil)

	case session.ActionCompleteOnboarding:
		user, err := c.onboarding.Complete(ctx, userID, displayName(from), inviter)
		if err != nil {
			c.logger.WithField("user_id", userID).WithError(err).Error("could not complete onboarding")
			return
		}
		c.send(ctx, chatID, msgWelcome(firstName(from), user.Credits), mainMenuKeyboard())

	case session.ActionRedeemGiftCode:
		c.redeemGiftCode(ctx, chatID, userID, draft.Text)

	case session.ActionCreateGiftCode:
		c.createGiftCode(ctx, chatID, userID, draft.Text)

	case session.ActionRegisterChannel:
		c.registerChannel(ctx, chatID, userID, draft.Text)

	case session.ActionAskCaption:
		c.send(ctx, chatID, msgAskCaption, nil)

	case session.ActionAskButtonDecision:
		c.send(ctx, chatID, msgAskButton, buttonDecisionKeyboard())

	case session.ActionAskButtonText:
		c.send(ctx, chatID, msgAskButtonText, nil)

	case session.ActionAskButtonURL:
		c.send(ctx, chatID, msgAskButtonURL, nil)

	case session.ActionPreviewBroadcast:
		c.previewBroadcast(ctx, chatID, draft)

	case session.ActionSendBroadcast:
		c.runBroadcast(ctx, chatID, draft)

	case session.ActionCancelBroadcast:
		c.send(ctx, chatID, msgBroadcastAbort, adminKeyboard())
	}
}

func (c *Client) redeemGiftCode(ctx context.Context, chatID, userID int64, code string) {
	balance, err := c.ledger.RedeemGiftCode(ctx, code, userID)
	switch {
	case errors.Is(err, domain.ErrInvalidCode):
		c.send(ctx, chatID, msgInvalidGiftCode, backKeyboard())
	case errors.Is(err, domain.ErrAlreadyRedeemed):
		c.send(ctx, chatID, msgCodeAlreadyUsed, backKeyboard())
	case errors.Is(err, domain.ErrUnknownUser):
		c.send(ctx, chatID, msgJoinChannel, joinKeyboard(c.cfg.ChannelLink))
	case err != nil:
		c.logger.WithFields(logging.Fields{
			"event":   "gift_redeem_failed",
			"user_id": userID,
		}).WithError(err).Error("gift code redemption failed")
	default:
		gift, gerr := c.store.GetGiftCode(ctx, code)
		credits := 0
		if gerr == nil {
			credits = gift.Credits
		}
		c.send(ctx, chatID, msgGiftRedeemed(credits, balance), backKeyboard())
	}
}

func (c *Client) createGiftCode(ctx context.Context, chatID, adminID int64, value string) {
	credits, err := strconv.Atoi(value)
	if err != nil || credits <= 0 {
		c.send(ctx, chatID, msgInvalidValue, nil)
		return
	}

	code, err := c.store.CreateGiftCode(ctx, credits, strconv.FormatInt(adminID, 10))
	if err != nil {
		c.logger.WithField("event", "gift_create_failed").WithError(err).Error("could not create gift code")
		return
	}

	c.send(ctx, chatID, msgGiftCreated(code, credits), adminKeyboard())
}

func repromptText(step session.Step) string {
	switch step {
	case session.StepAccountProof, session.StepDepositProof:
		return msgNeedPhoto
	case session.StepGiftCodeEntry:
		return msgAskGiftCode
	case session.StepGiftCodeValue:
		return msgInvalidValue
	case session.StepChannelLink:
		return msgInvalidLink
	case session.StepButtonURL:
		return msgAskButtonURL
	case session.StepBroadcastContent:
		return msgAskBroadcast
	default:
		return msgAskBroadcast
	}
}

func eventFromMessage(msg *models.Message) session.Event {
	switch {
	case len(msg.Photo) > 0:
		// The last size is the largest.
		return session.Event{Kind: session.EventPhoto, MediaID: msg.Photo[len(msg.Photo)-1].FileID, Text: msg.Caption}
	case msg.Video != nil:
		return session.Event{Kind: session.EventVideo, MediaID: msg.Video.FileID, Text: msg.Caption}
	case msg.Document != nil:
		return session.Event{Kind: session.EventDocument, MediaID: msg.Document.FileID, Text: msg.Caption}
	default:
		return session.Event{Kind: session.EventText, Text: msg.Text}
	}
}

// parseStartPayload extracts the inviter id from "/start <id>".
func parseStartPayload(text string) int64 {
	if !strings.HasPrefix(text, "/start") {
		return 0
	}
	payload := strings.TrimSpace(strings.TrimPrefix(text, "/start"))
	if payload == "" {
		return 0
	}

	id, err := strconv.ParseInt(payload, 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}

func displayName(user *models.User) string {
	if user == nil {
		return ""
	}
	if user.Username != "" {
		return user.Username
	}
	return user.FirstName
}

func firstName(user *models.User) string {
	if user == nil {
		return ""
	}
	return user.FirstName
}
