package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jisjis-ai/telbotfun/internal/domain"
	"github.com/jisjis-ai/telbotfun/internal/ledger"
	"github.com/jisjis-ai/telbotfun/internal/store"
)

// Onboarding performs the persistent side effects of the account-creation
// flow. The machine decides transitions; this service records pending steps
// and, on completion, creates the user and settles the referral bonus.
type Onboarding struct {
	store  store.Store
	ledger *ledger.Ledger
	logger *logrus.Entry
}

func NewOnboarding(st store.Store, lg *ledger.Ledger, logger *logrus.Entry) *Onboarding {
	return &Onboarding{store: st, ledger: lg, logger: logger}
}

// Begin records that the user owes an account-creation proof. Replaces any
// stale pending record from an abandoned earlier attempt.
func (o *Onboarding) Begin(ctx context.Context, userID int64) error {
	if err := o.ready(); err != nil {
		return err
	}

	pending := domain.PendingRegistration{
		UserID:    userID,
		Status:    domain.PendingAwaitingProof,
		CreatedAt: time.Now().UTC(),
	}
	if err := o.store.SetPendingRegistration(ctx, pending); err != nil {
		return fmt.Errorf("record pending registration: %w", err)
	}

	return nil
}

// AccountProofReceived resolves the registration step and opens the deposit
// step. proofRef is the Telegram file id of the submitted screenshot.
func (o *Onboarding) AccountProofReceived(ctx context.Context, userID int64, proofRef string) error {
	if err := o.ready(); err != nil {
		return err
	}

	if err := o.store.ClearPendingRegistration(ctx, userID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("clear pending registration: %w", err)
	}

	pending := domain.PendingDeposit{
		UserID:    userID,
		Status:    domain.PendingAwaitingProof,
		ProofRef:  proofRef,
		CreatedAt: time.Now().UTC(),
	}
	if err := o.store.SetPendingDeposit(ctx, pending); err != nil {
		return fmt.Errorf("record pending deposit: %w", err)
	}

	return nil
}

// DepositProofReceived marks the deposit proof as submitted. The record is
// kept until Complete so an abandoned share step leaves an audit trail.
func (o *Onboarding) DepositProofReceived(ctx context.Context, userID int64, proofRef string) error {
	if err := o.ready(); err != nil {
		return err
	}

	pending, err := o.store.GetPendingDeposit(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		pending = domain.PendingDeposit{UserID: userID, CreatedAt: time.Now().UTC()}
	} else if err != nil {
		return fmt.Errorf("load pending deposit: %w", err)
	}

	pending.Status = domain.PendingAwaitingReview
	pending.ProofRef = proofRef
	if err := o.store.SetPendingDeposit(ctx, pending); err != nil {
		return fmt.Errorf("record deposit proof: %w", err)
	}

	return nil
}

// Complete creates the user with the signup bonus, credits the inviter when
// the referral is valid, and clears any pending records. A repeated call for
// an already-active user is a no-op.
func (o *Onboarding) Complete(ctx context.Context, userID int64, username string, invitedBy int64) (domain.User, error) {
	if err := o.ready(); err != nil {
		return domain.User{}, err
	}

	if invitedBy == userID {
		invitedBy = 0
	}

	user, created, err := o.ledger.GrantSignupBonus(ctx, userID, username, invitedBy)
	if err != nil {
		return domain.User{}, fmt.Errorf("grant signup bonus: %w", err)
	}

	if created && invitedBy != 0 {
		if err := o.ledger.GrantInviteBonus(ctx, invitedBy, userID); err != nil {
			// The new account stands even when the referral credit fails.
			o.log().WithFields(logrus.Fields{
				"event":      "invite_bonus_failed",
				"user_id":    userID,
				"invited_by": invitedBy,
			}).WithError(err).Warn("could not credit inviter")
		}
	}

	if err := o.store.ClearPendingRegistration(ctx, userID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		o.log().WithField("user_id", userID).WithError(err).Warn("could not clear pending registration")
	}
	if err := o.store.ClearPendingDeposit(ctx, userID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		o.log().WithField("user_id", userID).WithError(err).Warn("could not clear pending deposit")
	}

	if created {
		o.log().WithFields(logrus.Fields{
			"event":      "onboarding_completed",
			"user_id":    userID,
			"invited_by": invitedBy,
		}).Info("user onboarded")
	}

	return user, nil
}

func (o *Onboarding) ready() error {
	if o == nil || o.store == nil || o.ledger == nil {
		return errors.New("onboarding service is not configured")
	}
	return nil
}

func (o *Onboarding) log() *logrus.Entry {
	if o.logger != nil {
		return o.logger
	}
	return logrus.NewEntry(logrus.StandardLogger())
}
