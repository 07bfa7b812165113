package signals

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/jisjis-ai/telbotfun/internal/domain"
	"github.com/jisjis-ai/telbotfun/internal/store"
)

// Round pacing. Overridden in tests to keep them fast.
var (
	minesValidityWait  = 90 * time.Second
	minesAnalyzingMin  = 1 * time.Second
	minesAnalyzingMax  = 30 * time.Second
	minesCooldown      = 60 * time.Second
	minesRescheduleGap = 1 * time.Second
	aviatorInitialWait = 30 * time.Second
	aviatorSettleWait  = 30 * time.Second
	aviatorRoundGap    = 30 * time.Second
	idleRecheck        = 60 * time.Second
	errorBackoff       = 30 * time.Second
)

// Broadcaster delivers a signal message to the subscribed audience. The
// transport layer implements the fan-out.
type Broadcaster interface {
	BroadcastSignal(ctx context.Context, game, text string) error
}

// Scheduler owns the two game loops and the cron jobs that flip operating
// flags and send preparation notices. Stop cancels everything it started.
type Scheduler struct {
	store       store.Store
	broadcaster Broadcaster
	gen         *Generator
	loc         *time.Location
	logger      *logrus.Entry
	now         func() time.Time

	cron   *cron.Cron
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// One round in flight per game. A loop that finds its guard taken
	// refuses to start a second one.
	minesBusy   atomic.Bool
	aviatorBusy atomic.Bool

	noticeMu   sync.Mutex
	lastNotice map[string]string // game -> date of last preparation notice
}

func NewScheduler(st store.Store, b Broadcaster, loc *time.Location, logger *logrus.Entry) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		store:       st,
		broadcaster: b,
		gen:         NewGenerator(),
		loc:         loc,
		logger:      logger,
		now:         func() time.Time { return time.Now().In(loc) },
		cron:        cron.New(cron.WithLocation(loc), cron.WithSeconds()),
		lastNotice:  make(map[string]string),
	}
}

// Start aligns the flags with the current hour, registers the cron jobs and
// launches both game loops.
func (s *Scheduler) Start(ctx context.Context) error {
	if s == nil || s.store == nil || s.broadcaster == nil {
		return errors.New("scheduler is not configured")
	}

	ctx, s.cancel = context.WithCancel(ctx)

	if err := s.syncWindows(ctx); err != nil {
		return fmt.Errorf("align operating windows: %w", err)
	}

	if _, err := s.cron.AddFunc("0 0 * * * *", func() {
		if err := s.syncWindows(ctx); err != nil {
			s.log().WithError(err).Error("hourly window flip failed")
		}
	}); err != nil {
		return fmt.Errorf("schedule window flip: %w", err)
	}

	if _, err := s.cron.AddFunc("0 */5 * * * *", func() {
		s.sendPreparationNotices(ctx)
	}); err != nil {
		return fmt.Errorf("schedule preparation notices: %w", err)
	}

	s.cron.Start()

	s.wg.Add(2)
	go s.minesLoop(ctx)
	go s.aviatorLoop(ctx)

	s.log().WithField("timezone", s.loc.String()).Info("signal scheduler started")
	return nil
}

// Stop halts the cron jobs and waits for in-flight rounds to unwind.
func (s *Scheduler) Stop() {
	if s == nil {
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	s.wg.Wait()
}

// syncWindows flips each game's operating flag to match its window.
func (s *Scheduler) syncWindows(ctx context.Context) error {
	now := s.now()
	for _, game := range domain.Games {
		want := WithinOperatingWindow(game, now)
		current, err := s.store.GetOperationFlag(ctx, game)
		if err != nil {
			return fmt.Errorf("read %s flag: %w", game, err)
		}
		if current == want {
			continue
		}
		if err := s.store.SetOperationFlag(ctx, game, want); err != nil {
			return fmt.Errorf("flip %s flag: %w", game, err)
		}
		s.log().WithFields(logrus.Fields{
			"event":  "window_flip",
			"game":   game,
			"active": want,
		}).Info("operating window changed")
	}
	return nil
}

// sendPreparationNotices emits the pre-window warm-up once per game per day.
func (s *Scheduler) sendPreparationNotices(ctx context.Context) {
	now := s.now()
	today := now.Format("2006-01-02")

	for _, game := range domain.Games {
		if !PreparationDue(game, now) {
			continue
		}

		s.noticeMu.Lock()
		sent := s.lastNotice[game] == today
		if !sent {
			s.lastNotice[game] = today
		}
		s.noticeMu.Unlock()
		if sent {
			continue
		}

		text := fmt.Sprintf("⚙️ Preparando os sinais de %s. A janela abre em breve, fique atento!", game)
		if err := s.broadcaster.BroadcastSignal(ctx, game, text); err != nil {
			s.log().WithField("game", game).WithError(err).Error("preparation notice failed")
			s.noticeMu.Lock()
			delete(s.lastNotice, game)
			s.noticeMu.Unlock()
		}
	}
}

func (s *Scheduler) minesLoop(ctx context.Context) {
	defer s.wg.Done()

	if !s.minesBusy.CompareAndSwap(false, true) {
		return
	}
	defer s.minesBusy.Store(false)

	for ctx.Err() == nil {
		ran, err := s.runMinesRound(ctx)
		switch {
		case err != nil:
			s.log().WithField("game", domain.GameMines).WithError(err).Error("mines round failed")
			sleep(ctx, errorBackoff)
		case ran:
			sleep(ctx, minesRescheduleGap)
		default:
			sleep(ctx, idleRecheck)
		}
	}
}

// runMinesRound plays one full mines cycle: signal out, validity window,
// analyzing pause, then cooldown. Returns false when the window is closed.
func (s *Scheduler) runMinesRound(ctx context.Context) (bool, error) {
	open, err := s.gameOpen(ctx, domain.GameMines)
	if err != nil || !open {
		return false, err
	}

	sig := s.gen.Mines()
	if err := s.broadcaster.BroadcastSignal(ctx, domain.GameMines, sig.Message()); err != nil {
		return false, fmt.Errorf("broadcast mines signal: %w", err)
	}
	s.log().WithFields(logrus.Fields{
		"event": "signal_sent",
		"game":  domain.GameMines,
		"cells": sig.Cells,
	}).Info("mines signal broadcast")

	if !sleep(ctx, minesValidityWait) {
		return true, nil
	}

	if err := s.broadcaster.BroadcastSignal(ctx, domain.GameMines, "✅ Sinal finalizado com sucesso!"); err != nil {
		return true, fmt.Errorf("broadcast success notice: %w", err)
	}
	if err := s.broadcaster.BroadcastSignal(ctx, domain.GameMines, "🔎 Analisando a próxima rodada..."); err != nil {
		return true, fmt.Errorf("broadcast analyzing notice: %w", err)
	}
	analyzing := minesAnalyzingMin
	if extra := int64(minesAnalyzingMax - minesAnalyzingMin); extra > 0 {
		analyzing += time.Duration(s.gen.rng.Int63n(extra))
	}
	if !sleep(ctx, analyzing) {
		return true, nil
	}

	if err := s.broadcaster.BroadcastSignal(ctx, domain.GameMines, "🎯 Entrada confirmada, prepare a próxima!"); err != nil {
		return true, fmt.Errorf("broadcast entry notice: %w", err)
	}

	sleep(ctx, minesCooldown)
	return true, nil
}

func (s *Scheduler) aviatorLoop(ctx context.Context) {
	defer s.wg.Done()

	if !s.aviatorBusy.CompareAndSwap(false, true) {
		return
	}
	defer s.aviatorBusy.Store(false)

	if !sleep(ctx, aviatorInitialWait) {
		return
	}

	for ctx.Err() == nil {
		ran, err := s.runAviatorRound(ctx)
		switch {
		case err != nil:
			s.log().WithField("game", domain.GameAviator).WithError(err).Error("aviator round failed")
			sleep(ctx, errorBackoff)
		case ran:
			sleep(ctx, aviatorRoundGap)
		default:
			sleep(ctx, idleRecheck)
		}
	}
}

// runAviatorRound announces a multiplier with a target two minutes out, then
// confirms it shortly after the target passes.
func (s *Scheduler) runAviatorRound(ctx context.Context) (bool, error) {
	open, err := s.gameOpen(ctx, domain.GameAviator)
	if err != nil || !open {
		return false, err
	}

	sig := s.gen.Aviator()
	if err := s.broadcaster.BroadcastSignal(ctx, domain.GameAviator, sig.Message()); err != nil {
		return false, fmt.Errorf("broadcast aviator signal: %w", err)
	}
	s.log().WithFields(logrus.Fields{
		"event":      "signal_sent",
		"game":       domain.GameAviator,
		"multiplier": sig.Multiplier,
		"target":     sig.Target.Format(time.RFC3339),
	}).Info("aviator signal broadcast")

	wait := time.Until(sig.Target) + aviatorSettleWait
	if wait < 0 {
		wait = aviatorSettleWait
	}
	if !sleep(ctx, wait) {
		return true, nil
	}

	confirm := fmt.Sprintf("✅ Vela confirmada em %.2fx!", sig.Multiplier)
	if err := s.broadcaster.BroadcastSignal(ctx, domain.GameAviator, confirm); err != nil {
		return true, fmt.Errorf("broadcast aviator confirmation: %w", err)
	}

	return true, nil
}

// gameOpen checks both the stored flag and the wall-clock window, so a game
// an admin switched off stays silent even inside its hours.
func (s *Scheduler) gameOpen(ctx context.Context, game string) (bool, error) {
	if !WithinOperatingWindow(game, s.now()) {
		return false, nil
	}
	active, err := s.store.GetOperationFlag(ctx, game)
	if err != nil {
		return false, fmt.Errorf("read %s flag: %w", game, err)
	}
	return active, nil
}

func (s *Scheduler) log() *logrus.Entry {
	if s.logger != nil {
		return s.logger
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

// sleep waits for d or the context, whichever ends first. Reports whether
// the full duration elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
