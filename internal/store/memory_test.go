package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jisjis-ai/telbotfun/internal/domain"
)

var codePattern = regexp.MustCompile(`^[0-9A-F]{8}$`)

func TestGenerateCodeFormat(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := GenerateCode()
		if !codePattern.MatchString(code) {
			t.Fatalf("expected 8 uppercase hex characters, got %q", code)
		}
		seen[code] = true
	}

	if len(seen) < 90 {
		t.Fatalf("expected mostly distinct codes, got %d distinct of 100", len(seen))
	}
}

func TestMemoryUserRoundTrip(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	if _, err := s.GetUser(ctx, 1001); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unseen user, got %v", err)
	}

	user := domain.User{
		UserID:   1001,
		Username: "alice",
		Credits:  20,
		Status:   domain.StatusActive,
		JoinedAt: time.Now().UTC(),
	}
	if err := s.UpsertUser(ctx, user); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	got, err := s.GetUser(ctx, 1001)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Credits != 20 || got.Username != "alice" {
		t.Fatalf("unexpected user: %+v", got)
	}

	// Mutating the returned copy must not leak back into the store.
	got.Credits = 999
	again, _ := s.GetUser(ctx, 1001)
	if again.Credits != 20 {
		t.Fatalf("expected stored credits unchanged, got %d", again.Credits)
	}

	users, err := s.ListUsers(ctx)
	if err != nil || len(users) != 1 {
		t.Fatalf("expected 1 user, got %d (err %v)", len(users), err)
	}
}

func TestMemoryUpsertRequiresUserID(t *testing.T) {
	s := NewMemory()
	if err := s.UpsertUser(context.Background(), domain.User{}); err == nil {
		t.Fatalf("expected error for missing user_id")
	}
}

func TestMemorySeedsOperationFlags(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	flags, err := s.ListOperationFlags(ctx)
	if err != nil {
		t.Fatalf("list flags failed: %v", err)
	}
	if len(flags) != len(domain.Games) {
		t.Fatalf("expected %d seeded flags, got %d", len(domain.Games), len(flags))
	}
	for _, flag := range flags {
		if flag.Active {
			t.Fatalf("expected %s seeded inactive", flag.Name)
		}
	}

	if err := s.SetOperationFlag(ctx, domain.GameMines, true); err != nil {
		t.Fatalf("set flag failed: %v", err)
	}

	active, err := s.GetOperationFlag(ctx, domain.GameMines)
	if err != nil || !active {
		t.Fatalf("expected mines active, got %v (err %v)", active, err)
	}

	active, err = s.GetOperationFlag(ctx, domain.GameAviator)
	if err != nil || active {
		t.Fatalf("expected aviator inactive, got %v (err %v)", active, err)
	}
}

func TestMemoryGiftCodeLifecycle(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	code, err := s.CreateGiftCode(ctx, 50, "admin")
	if err != nil {
		t.Fatalf("create gift code failed: %v", err)
	}
	if !codePattern.MatchString(code) {
		t.Fatalf("unexpected code format %q", code)
	}

	gift, err := s.GetGiftCode(ctx, code)
	if err != nil {
		t.Fatalf("get gift code failed: %v", err)
	}
	if gift.Credits != 50 || gift.CreatedBy != "admin" || len(gift.RedeemedBy) != 0 {
		t.Fatalf("unexpected gift code: %+v", gift)
	}

	if err := s.MarkRedeemed(ctx, code, 42); err != nil {
		t.Fatalf("mark redeemed failed: %v", err)
	}
	// Marking twice keeps the redeemer set duplicate-free.
	if err := s.MarkRedeemed(ctx, code, 42); err != nil {
		t.Fatalf("second mark redeemed failed: %v", err)
	}

	gift, _ = s.GetGiftCode(ctx, code)
	if len(gift.RedeemedBy) != 1 || gift.RedeemedBy[0] != 42 {
		t.Fatalf("expected single redeemer 42, got %v", gift.RedeemedBy)
	}

	if err := s.MarkRedeemed(ctx, "NOPE1234", 42); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown code, got %v", err)
	}

	if _, err := s.CreateGiftCode(ctx, 0, "admin"); err == nil {
		t.Fatalf("expected error for non-positive credits")
	}
}

func TestMemoryPendingRecordsReplaceAndClear(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	first := domain.PendingRegistration{UserID: 7, Status: domain.PendingAwaitingProof, CreatedAt: time.Now().UTC()}
	if err := s.SetPendingRegistration(ctx, first); err != nil {
		t.Fatalf("set pending registration failed: %v", err)
	}

	second := first
	second.Status = domain.PendingAwaitingReview
	second.ProofRef = "photo-1"
	if err := s.SetPendingRegistration(ctx, second); err != nil {
		t.Fatalf("replace pending registration failed: %v", err)
	}

	got, err := s.GetPendingRegistration(ctx, 7)
	if err != nil {
		t.Fatalf("get pending registration failed: %v", err)
	}
	if got.Status != domain.PendingAwaitingReview || got.ProofRef != "photo-1" {
		t.Fatalf("expected replacement to win, got %+v", got)
	}

	if err := s.ClearPendingRegistration(ctx, 7); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if _, err := s.GetPendingRegistration(ctx, 7); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected cleared record to be gone, got %v", err)
	}

	dep := domain.PendingDeposit{UserID: 7, Status: domain.PendingAwaitingProof, Amount: 200}
	if err := s.SetPendingDeposit(ctx, dep); err != nil {
		t.Fatalf("set pending deposit failed: %v", err)
	}
	gotDep, err := s.GetPendingDeposit(ctx, 7)
	if err != nil || gotDep.Amount != 200 {
		t.Fatalf("expected deposit amount 200, got %+v (err %v)", gotDep, err)
	}
	if err := s.ClearPendingDeposit(ctx, 7); err != nil {
		t.Fatalf("clear deposit failed: %v", err)
	}
}

func TestMemoryChannels(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	channel := domain.Channel{
		ChatID:  -100500,
		Title:   "Signals Mirror",
		OwnerID: 9,
		Status:  domain.ChannelPending,
		AddedAt: time.Now().UTC(),
	}
	if err := s.AddChannel(ctx, channel); err != nil {
		t.Fatalf("add channel failed: %v", err)
	}

	// Re-registration is a no-op, not an overwrite.
	dup := channel
	dup.Title = "renamed"
	if err := s.AddChannel(ctx, dup); err != nil {
		t.Fatalf("duplicate add failed: %v", err)
	}
	got, err := s.GetChannel(ctx, -100500)
	if err != nil || got.Title != "Signals Mirror" {
		t.Fatalf("expected original channel kept, got %+v (err %v)", got, err)
	}

	active, err := s.ListActiveChannels(ctx)
	if err != nil || len(active) != 0 {
		t.Fatalf("expected no active channels, got %d (err %v)", len(active), err)
	}

	if err := s.SetChannelStatus(ctx, -100500, domain.ChannelActive, 25); err != nil {
		t.Fatalf("set status failed: %v", err)
	}

	active, _ = s.ListActiveChannels(ctx)
	if len(active) != 1 || active[0].MemberCount != 25 {
		t.Fatalf("expected 1 active channel with 25 members, got %v", active)
	}

	if err := s.SetChannelStatus(ctx, -999, domain.ChannelActive, -1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown channel, got %v", err)
	}
}
