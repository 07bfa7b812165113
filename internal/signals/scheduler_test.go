package signals

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/jisjis-ai/telbotfun/internal/domain"
	"github.com/jisjis-ai/telbotfun/internal/store"
)

type broadcastCall struct {
	game string
	text string
}

type recordingBroadcaster struct {
	mu    sync.Mutex
	calls []broadcastCall
	err   error
}

func (r *recordingBroadcaster) BroadcastSignal(_ context.Context, game, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}
	r.calls = append(r.calls, broadcastCall{game: game, text: text})
	return nil
}

func (r *recordingBroadcaster) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func fastTimings(t *testing.T) {
	t.Helper()

	saved := []struct {
		v *time.Duration
		d time.Duration
	}{
		{&minesValidityWait, minesValidityWait},
		{&minesAnalyzingMin, minesAnalyzingMin},
		{&minesAnalyzingMax, minesAnalyzingMax},
		{&minesCooldown, minesCooldown},
		{&aviatorSettleWait, aviatorSettleWait},
	}
	t.Cleanup(func() {
		for _, s := range saved {
			*s.v = s.d
		}
	})

	minesValidityWait = time.Millisecond
	minesAnalyzingMin = time.Millisecond
	minesAnalyzingMax = time.Millisecond
	minesCooldown = time.Millisecond
	aviatorSettleWait = time.Millisecond
}

func newTestScheduler(t *testing.T, hour int) (*Scheduler, *store.Memory, *recordingBroadcaster) {
	t.Helper()

	mem := store.NewMemory()
	b := &recordingBroadcaster{}
	s := NewScheduler(mem, b, time.UTC, nil)

	fixed := time.Date(2025, time.March, 10, hour, 30, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	s.gen = &Generator{
		rng: rand.New(rand.NewSource(7)),
		now: time.Now,
	}

	return s, mem, b
}

func TestMinesRoundSkipsOutsideWindow(t *testing.T) {
	ctx := context.Background()
	s, mem, b := newTestScheduler(t, 15)

	if err := mem.SetOperationFlag(ctx, domain.GameMines, true); err != nil {
		t.Fatalf("SetOperationFlag: %v", err)
	}

	ran, err := s.runMinesRound(ctx)
	if err != nil {
		t.Fatalf("runMinesRound: %v", err)
	}
	if ran {
		t.Fatal("mines round ran outside its window")
	}
	if b.count() != 0 {
		t.Fatalf("%d broadcasts outside the window", b.count())
	}
}

func TestMinesRoundRespectsDisabledFlag(t *testing.T) {
	ctx := context.Background()
	s, _, b := newTestScheduler(t, 5)

	// Flags are seeded inactive.
	ran, err := s.runMinesRound(ctx)
	if err != nil {
		t.Fatalf("runMinesRound: %v", err)
	}
	if ran || b.count() != 0 {
		t.Fatalf("disabled game broadcast anyway: ran=%v calls=%d", ran, b.count())
	}
}

func TestMinesRoundBroadcastsInsideWindow(t *testing.T) {
	fastTimings(t)
	ctx := context.Background()
	s, mem, b := newTestScheduler(t, 5)

	if err := mem.SetOperationFlag(ctx, domain.GameMines, true); err != nil {
		t.Fatalf("SetOperationFlag: %v", err)
	}

	ran, err := s.runMinesRound(ctx)
	if err != nil {
		t.Fatalf("runMinesRound: %v", err)
	}
	if !ran {
		t.Fatal("open round did not run")
	}
	if b.count() != 4 {
		t.Fatalf("%d broadcasts, want signal, success, analyzing and entry notices", b.count())
	}
	if b.calls[0].game != domain.GameMines {
		t.Fatalf("broadcast for game %q", b.calls[0].game)
	}
}

func TestAviatorRoundBroadcastsAndConfirms(t *testing.T) {
	fastTimings(t)
	ctx := context.Background()
	s, mem, b := newTestScheduler(t, 14)

	if err := mem.SetOperationFlag(ctx, domain.GameAviator, true); err != nil {
		t.Fatalf("SetOperationFlag: %v", err)
	}
	// Put the target in the past so the round settles immediately.
	s.gen.now = func() time.Time { return time.Now().Add(-3 * time.Minute) }

	ran, err := s.runAviatorRound(ctx)
	if err != nil {
		t.Fatalf("runAviatorRound: %v", err)
	}
	if !ran {
		t.Fatal("open round did not run")
	}
	if b.count() != 2 {
		t.Fatalf("%d broadcasts, want prediction plus confirmation", b.count())
	}
}

func TestAviatorRoundSkipsOutsideWindow(t *testing.T) {
	ctx := context.Background()
	s, mem, b := newTestScheduler(t, 5)

	if err := mem.SetOperationFlag(ctx, domain.GameAviator, true); err != nil {
		t.Fatalf("SetOperationFlag: %v", err)
	}

	ran, err := s.runAviatorRound(ctx)
	if err != nil {
		t.Fatalf("runAviatorRound: %v", err)
	}
	if ran || b.count() != 0 {
		t.Fatalf("aviator ran at hour 5: ran=%v calls=%d", ran, b.count())
	}
}

func TestSyncWindowsFlipsFlags(t *testing.T) {
	ctx := context.Background()

	s, mem, _ := newTestScheduler(t, 5)
	if err := s.syncWindows(ctx); err != nil {
		t.Fatalf("syncWindows: %v", err)
	}
	assertFlag(t, mem, domain.GameMines, true)
	assertFlag(t, mem, domain.GameAviator, false)

	s, mem, _ = newTestScheduler(t, 14)
	if err := s.syncWindows(ctx); err != nil {
		t.Fatalf("syncWindows: %v", err)
	}
	assertFlag(t, mem, domain.GameMines, false)
	assertFlag(t, mem, domain.GameAviator, true)
}

func assertFlag(t *testing.T, mem *store.Memory, game string, want bool) {
	t.Helper()

	got, err := mem.GetOperationFlag(context.Background(), game)
	if err != nil {
		t.Fatalf("GetOperationFlag(%s): %v", game, err)
	}
	if got != want {
		t.Fatalf("flag %s = %v, want %v", game, got, want)
	}
}

func TestPreparationNoticeSentOncePerDay(t *testing.T) {
	ctx := context.Background()
	s, _, b := newTestScheduler(t, 23)

	s.sendPreparationNotices(ctx)
	if b.count() != 1 {
		t.Fatalf("%d notices after first sweep, want 1", b.count())
	}
	if b.calls[0].game != domain.GameMines {
		t.Fatalf("notice for game %q at hour 23", b.calls[0].game)
	}

	// Later sweeps within the same hour stay quiet.
	s.sendPreparationNotices(ctx)
	s.sendPreparationNotices(ctx)
	if b.count() != 1 {
		t.Fatalf("%d notices after repeated sweeps", b.count())
	}
}

func TestMinesLoopRefusesSecondRunner(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, _, b := newTestScheduler(t, 5)
	s.minesBusy.Store(true)

	s.wg.Add(1)
	done := make(chan struct{})
	go func() {
		s.minesLoop(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second mines loop did not bail out")
	}
	if b.count() != 0 {
		t.Fatalf("guarded loop still broadcast %d times", b.count())
	}
}
