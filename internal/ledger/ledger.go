// Package ledger implements credit accounting over the store: signup and
// invite bonuses, signal debits, and gift code redemption.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jisjis-ai/telbotfun/internal/domain"
	"github.com/jisjis-ai/telbotfun/internal/logging"
	"github.com/jisjis-ai/telbotfun/internal/store"
)

// Ledger layers credit accounting on the store. Gift code redemption is the
// one path that must change two records together; a per-code lock serializes
// concurrent redemptions of the same code within this process.
type Ledger struct {
	store       store.Store
	logger      *logrus.Entry
	signupBonus int
	inviteBonus int

	mu        sync.Mutex
	codeLocks map[string]*sync.Mutex
}

// New constructs a Ledger with the configured bonus amounts.
func New(st store.Store, signupBonus, inviteBonus int, logger *logrus.Entry) *Ledger {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Ledger{
		store:       st,
		logger:      logger,
		signupBonus: signupBonus,
		inviteBonus: inviteBonus,
		codeLocks:   make(map[string]*sync.Mutex),
	}
}

// GrantSignupBonus creates the user with the configured starting balance.
// A user that already exists is left untouched; the call reports whether a
// record was created.
func (l *Ledger) GrantSignupBonus(ctx context.Context, userID int64, username string, invitedBy int64) (domain.User, bool, error) {
	if err := l.ready(ctx); err != nil {
		return domain.User{}, false, err
	}

	existing, err := l.store.GetUser(ctx, userID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, false, fmt.Errorf("lookup user: %w", err)
	}

	user := domain.User{
		UserID:        userID,
		Username:      username,
		Credits:       l.signupBonus,
		InvitedBy:     invitedBy,
		Status:        domain.StatusActive,
		JoinedAt:      time.Now().UTC(),
		Invites:       []domain.Invite{},
		RedeemedCodes: []string{},
	}

	if err := l.store.UpsertUser(ctx, user); err != nil {
		return domain.User{}, false, fmt.Errorf("create user: %w", err)
	}

	l.logger.WithFields(logging.Fields{
		"event":   "signup_bonus",
		"user_id": userID,
		"credits": l.signupBonus,
	}).Info("granted signup bonus")

	return user, true, nil
}

// GrantInviteBonus credits the inviter and appends an invite record. An
// unknown inviter is silently dropped.
func (l *Ledger) GrantInviteBonus(ctx context.Context, inviterID, invitedID int64) error {
	if err := l.ready(ctx); err != nil {
		return err
	}

	inviter, err := l.store.GetUser(ctx, inviterID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup inviter: %w", err)
	}

	inviter.Credits += l.inviteBonus
	inviter.Invites = append(inviter.Invites, domain.Invite{
		InvitedID: invitedID,
		Date:      time.Now().UTC(),
	})

	if err := l.store.UpsertUser(ctx, inviter); err != nil {
		return fmt.Errorf("credit inviter: %w", err)
	}

	l.logger.WithFields(logging.Fields{
		"event":      "invite_bonus",
		"inviter_id": inviterID,
		"invited_id": invitedID,
		"credits":    l.inviteBonus,
	}).Info("granted invite bonus")

	return nil
}

// DebitForSignal decrements the user's balance by one when above zero. The
// balance never goes negative; an insufficient balance is a silent refusal
// reported through the returned flag.
func (l *Ledger) DebitForSignal(ctx context.Context, userID int64) (bool, error) {
	if err := l.ready(ctx); err != nil {
		return false, err
	}

	user, err := l.store.GetUser(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup user: %w", err)
	}

	if user.Credits <= 0 {
		return false, nil
	}

	user.Credits--
	if err := l.store.UpsertUser(ctx, user); err != nil {
		return false, fmt.Errorf("debit user: %w", err)
	}

	return true, nil
}

// Balance returns the user's current credit balance, zero for unknown users.
func (l *Ledger) Balance(ctx context.Context, userID int64) (int, error) {
	if err := l.ready(ctx); err != nil {
		return 0, err
	}

	user, err := l.store.GetUser(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("lookup user: %w", err)
	}

	return user.Credits, nil
}

// RedeemGiftCode credits the user with the code's value and records the
// redemption on both sides. Redemptions of the same code are serialized so
// two near-simultaneous callers cannot both observe an unredeemed code.
// Returns the new balance.
func (l *Ledger) RedeemGiftCode(ctx context.Context, code string, userID int64) (int, error) {
	if err := l.ready(ctx); err != nil {
		return 0, err
	}

	lock := l.lockFor(code)
	lock.Lock()
	defer lock.Unlock()

	gift, err := l.store.GetGiftCode(ctx, code)
	if errors.Is(err, domain.ErrNotFound) {
		return 0, domain.ErrInvalidCode
	}
	if err != nil {
		return 0, fmt.Errorf("lookup gift code: %w", err)
	}

	user, err := l.store.GetUser(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return 0, domain.ErrUnknownUser
	}
	if err != nil {
		return 0, fmt.Errorf("lookup user: %w", err)
	}

	if gift.Redeemed(userID) {
		return 0, domain.ErrAlreadyRedeemed
	}

	if err := l.store.MarkRedeemed(ctx, code, userID); err != nil {
		return 0, fmt.Errorf("mark redeemed: %w", err)
	}

	user.Credits += gift.Credits
	user.RedeemedCodes = append(user.RedeemedCodes, code)
	if err := l.store.UpsertUser(ctx, user); err != nil {
		return 0, fmt.Errorf("credit user: %w", err)
	}

	l.logger.WithFields(logging.Fields{
		"event":   "giftcode_redeemed",
		"user_id": userID,
		"code":    code,
		"credits": gift.Credits,
	}).Info("redeemed gift code")

	return user.Credits, nil
}

// Invites returns the user's referral records, empty for unknown users.
func (l *Ledger) Invites(ctx context.Context, userID int64) ([]domain.Invite, error) {
	if err := l.ready(ctx); err != nil {
		return nil, err
	}

	user, err := l.store.GetUser(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	return user.Invites, nil
}

// GiftCodeHistory returns the gift codes the user has redeemed.
func (l *Ledger) GiftCodeHistory(ctx context.Context, userID int64) ([]domain.GiftCode, error) {
	if err := l.ready(ctx); err != nil {
		return nil, err
	}

	user, err := l.store.GetUser(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	history := make([]domain.GiftCode, 0, len(user.RedeemedCodes))
	for _, code := range user.RedeemedCodes {
		gift, err := l.store.GetGiftCode(ctx, code)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("lookup gift code %s: %w", code, err)
		}
		history = append(history, gift)
	}

	return history, nil
}

func (l *Ledger) lockFor(code string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.codeLocks[code]
	if !ok {
		lock = &sync.Mutex{}
		l.codeLocks[code] = lock
	}
	return lock
}

func (l *Ledger) ready(ctx context.Context) error {
	if l == nil || l.store == nil {
		return errors.New("ledger is not initialized")
	}
	if ctx == nil {
		return errors.New("context is required")
	}
	return nil
}
