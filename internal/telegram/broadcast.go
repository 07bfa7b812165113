package telegram

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/jisjis-ai/telbotfun/internal/logging"
	"github.com/jisjis-ai/telbotfun/internal/session"
)

// BroadcastSignal fans a signal out to the primary channel and every active
// registered channel. One unreachable channel does not stop the others; an
// error comes back only when no target could be reached.
func (c *Client) BroadcastSignal(ctx context.Context, game, text string) error {
	targets := []int64{c.cfg.ChannelID}

	channels, err := c.store.ListActiveChannels(ctx)
	if err != nil {
		c.logger.WithField("event", "channel_list_failed").WithError(err).Warn("broadcasting to the primary channel only")
	} else {
		for _, ch := range channels {
			targets = append(targets, ch.ChatID)
		}
	}

	var delivered int
	var lastErr error
	for _, chatID := range targets {
		if _, err := c.bot.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:    chatID,
			Text:      text,
			ParseMode: models.ParseModeHTML,
		}); err != nil {
			lastErr = err
			c.logger.WithFields(logging.Fields{
				"event":   "signal_delivery_failed",
				"game":    game,
				"chat_id": chatID,
			}).WithError(err).Warn("could not deliver signal")
			continue
		}
		delivered++
	}

	if delivered == 0 && lastErr != nil {
		return fmt.Errorf("signal reached no channel: %w", lastErr)
	}
	return nil
}

// previewBroadcast echoes the composed message back to the admin before the
// final confirmation.
func (c *Client) previewBroadcast(ctx context.Context, adminChat int64, draft session.Draft) {
	if err := c.sendDraft(ctx, adminChat, draft); err != nil {
		c.logger.WithField("event", "broadcast_preview_failed").WithError(err).Error("could not preview broadcast")
		return
	}
	c.send(ctx, adminChat, "👆 Prévia da transmissão. Enviar?", confirmBroadcastKeyboard())
}

// runBroadcast delivers the draft to its audience and reports the tally.
func (c *Client) runBroadcast(ctx context.Context, adminChat int64, draft session.Draft) {
	targets, err := c.broadcastTargets(ctx, draft.Audience)
	if err != nil {
		c.logger.WithField("event", "broadcast_targets_failed").WithError(err).Error("could not resolve broadcast audience")
		return
	}

	var sent, failed int
	for _, chatID := range targets {
		if err := c.sendDraft(ctx, chatID, draft); err != nil {
			failed++
			c.logger.WithFields(logging.Fields{
				"event":   "broadcast_delivery_failed",
				"chat_id": chatID,
			}).WithError(err).Warn("could not deliver broadcast")
			continue
		}
		sent++
	}

	c.logger.WithFields(logging.Fields{
		"event":    "broadcast_done",
		"audience": draft.Audience,
		"sent":     sent,
		"failed":   failed,
	}).Info("broadcast finished")

	c.send(ctx, adminChat, fmt.Sprintf("%s\n\n📬 Entregues: %d\n⚠️ Falhas: %d", msgBroadcastDone, sent, failed), adminKeyboard())
}

func (c *Client) broadcastTargets(ctx context.Context, audience session.Audience) ([]int64, error) {
	if audience == session.AudienceChannels {
		targets := []int64{c.cfg.ChannelID}
		channels, err := c.store.ListActiveChannels(ctx)
		if err != nil {
			return nil, fmt.Errorf("list active channels: %w", err)
		}
		for _, ch := range channels {
			targets = append(targets, ch.ChatID)
		}
		return targets, nil
	}

	users, err := c.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	targets := make([]int64, 0, len(users))
	for _, u := range users {
		targets = append(targets, u.UserID)
	}
	return targets, nil
}

// sendDraft delivers a composed broadcast to one chat, picking the right
// transport call for the attached media.
func (c *Client) sendDraft(ctx context.Context, chatID int64, draft session.Draft) error {
	keyboard := broadcastButtonKeyboard(draft)

	if draft.MediaID == "" {
		params := &bot.SendMessageParams{
			ChatID:    chatID,
			Text:      draft.Text,
			ParseMode: models.ParseModeHTML,
		}
		if keyboard != nil {
			params.ReplyMarkup = keyboard
		}
		_, err := c.bot.SendMessage(ctx, params)
		return err
	}

	media := &models.InputFileString{Data: draft.MediaID}

	switch draft.MediaKind {
	case session.EventVideo:
		params := &bot.SendVideoParams{
			ChatID:    chatID,
			Video:     media,
			Caption:   draft.Caption,
			ParseMode: models.ParseModeHTML,
		}
		if keyboard != nil {
			params.ReplyMarkup = keyboard
		}
		_, err := c.bot.SendVideo(ctx, params)
		return err

	case session.EventDocument:
		params := &bot.SendDocumentParams{
			ChatID:    chatID,
			Document:  media,
			Caption:   draft.Caption,
			ParseMode: models.ParseModeHTML,
		}
		if keyboard != nil {
			params.ReplyMarkup = keyboard
		}
		_, err := c.bot.SendDocument(ctx, params)
		return err

	default:
		params := &bot.SendPhotoParams{
			ChatID:    chatID,
			Photo:     media,
			Caption:   draft.Caption,
			ParseMode: models.ParseModeHTML,
		}
		if keyboard != nil {
			params.ReplyMarkup = keyboard
		}
		_, err := c.bot.SendPhoto(ctx, params)
		return err
	}
}
