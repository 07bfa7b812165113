package telegram

import (
	"context"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/jisjis-ai/telbotfun/internal/domain"
	"github.com/jisjis-ai/telbotfun/internal/logging"
)

const msgBotNotAdmin = "❌ O bot precisa ser administrador do canal. Adicione o bot como admin e tente novamente."

// registerChannel validates a t.me link, confirms the bot administers the
// channel, and records it. Channels at or above the member threshold start
// active; smaller ones wait as pending.
func (c *Client) registerChannel(ctx context.Context, chatID, ownerID int64, link string) {
	username := channelUsername(link)
	if username == "" {
		c.send(ctx, chatID, msgInvalidLink, nil)
		return
	}

	chat, err := c.bot.GetChat(ctx, &bot.GetChatParams{ChatID: "@" + username})
	if err != nil || chat == nil {
		c.logger.WithFields(logging.Fields{
			"event":   "channel_lookup_failed",
			"channel": username,
		}).WithError(err).Warn("could not resolve channel")
		c.send(ctx, chatID, msgInvalidLink, nil)
		return
	}

	admin, err := c.botIsAdmin(ctx, chat.ID)
	if err != nil {
		c.logger.WithField("channel", username).WithError(err).Warn("could not verify bot role")
		c.send(ctx, chatID, msgBotNotAdmin, nil)
		return
	}
	if !admin {
		c.send(ctx, chatID, msgBotNotAdmin, nil)
		return
	}

	count, err := c.bot.GetChatMemberCount(ctx, &bot.GetChatMemberCountParams{ChatID: chat.ID})
	if err != nil {
		c.logger.WithField("channel", username).WithError(err).Warn("could not count channel members")
		count = 0
	}

	status := domain.ChannelPending
	if count >= c.cfg.ChannelMinMembers {
		status = domain.ChannelActive
	}

	channel := domain.Channel{
		ChatID:      chat.ID,
		Title:       chat.Title,
		OwnerID:     ownerID,
		AddedAt:     time.Now().UTC(),
		Status:      status,
		MemberCount: count,
	}
	if err := c.store.AddChannel(ctx, channel); err != nil {
		c.logger.WithField("channel", username).WithError(err).Error("could not save channel")
		return
	}
	// Re-registration refreshes status and member count.
	if err := c.store.SetChannelStatus(ctx, chat.ID, status, count); err != nil {
		c.logger.WithField("channel", username).WithError(err).Warn("could not refresh channel status")
	}

	c.logger.WithFields(logging.Fields{
		"event":    "channel_registered",
		"chat_id":  chat.ID,
		"owner_id": ownerID,
		"status":   status,
		"members":  count,
	}).Info("channel registered")

	c.send(ctx, chatID, msgChannelRegistered(chat.Title, status == domain.ChannelActive), backKeyboard())
}

func (c *Client) botIsAdmin(ctx context.Context, channelID int64) (bool, error) {
	me, err := c.bot.GetMe(ctx)
	if err != nil {
		return false, err
	}

	member, err := c.bot.GetChatMember(ctx, &bot.GetChatMemberParams{
		ChatID: channelID,
		UserID: me.ID,
	})
	if err != nil {
		return false, err
	}
	if member == nil {
		return false, nil
	}

	switch member.Type {
	case models.ChatMemberTypeAdministrator, models.ChatMemberTypeOwner:
		return true, nil
	default:
		return false, nil
	}
}

// channelUsername pulls the channel handle out of a t.me link.
func channelUsername(link string) string {
	link = strings.TrimSpace(link)

	idx := strings.Index(link, "t.me/")
	if idx < 0 {
		return ""
	}
	name := link[idx+len("t.me/"):]
	name = strings.TrimPrefix(name, "@")
	if cut := strings.IndexAny(name, "/?"); cut >= 0 {
		name = name[:cut]
	}
	if name == "" || strings.HasPrefix(name, "+") || strings.HasPrefix(name, "joinchat") {
		// Invite-link channels have no public handle to resolve.
		return ""
	}

	return name
}
