// Package signals generates and schedules game signal broadcasts for the
// two supported games, each bound to its half of the day.
package signals

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

const (
	gridSize       = 5
	diamondCount   = 3
	minesOnBoard   = 3
	minesAttempts  = 3
	minesValidity  = 5 * time.Minute
	multiplierMin  = 1.00
	multiplierMax  = 7.00
	aviatorLead    = 2 * time.Minute
	targetSecFloor = 30
)

// MinesSignal is one mines-round prediction: three distinct safe cells on a
// 5x5 board, numbered 1 to 25 row by row.
type MinesSignal struct {
	Cells    [diamondCount]int
	Mines    int
	Attempts int
	ValidFor time.Duration
}

// AviatorSignal is one aviator-round prediction.
type AviatorSignal struct {
	Multiplier float64
	Target     time.Time
}

// Generator produces signals. rng and now are injectable so tests can pin
// the output.
type Generator struct {
	rng *rand.Rand
	now func() time.Time
}

func NewGenerator() *Generator {
	return &Generator{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
}

// Mines picks three distinct cells.
func (g *Generator) Mines() MinesSignal {
	sig := MinesSignal{
		Mines:    minesOnBoard,
		Attempts: minesAttempts,
		ValidFor: minesValidity,
	}

	seen := make(map[int]bool, diamondCount)
	for i := 0; i < diamondCount; {
		cell := g.rng.Intn(gridSize*gridSize) + 1
		if seen[cell] {
			continue
		}
		seen[cell] = true
		sig.Cells[i] = cell
		i++
	}

	return sig
}

// Aviator draws a multiplier between 1.00 and 7.00 and a target two minutes
// out, with the seconds forced into the 30 to 59 range so the round never
// lands on a boundary minute.
func (g *Generator) Aviator() AviatorSignal {
	multiplier := multiplierMin + g.rng.Float64()*(multiplierMax-multiplierMin)
	// Two decimal places, like the cash-out display.
	multiplier = float64(int(multiplier*100)) / 100

	target := g.now().Add(aviatorLead)
	sec := targetSecFloor + g.rng.Intn(60-targetSecFloor)
	target = time.Date(target.Year(), target.Month(), target.Day(),
		target.Hour(), target.Minute(), sec, 0, target.Location())

	return AviatorSignal{Multiplier: multiplier, Target: target}
}

// Board renders the 5x5 grid with the safe cells marked.
func (s MinesSignal) Board() string {
	safe := make(map[int]bool, diamondCount)
	for _, c := range s.Cells {
		safe[c] = true
	}

	var b strings.Builder
	for row := 0; row < gridSize; row++ {
		for col := 0; col < gridSize; col++ {
			cell := row*gridSize + col + 1
			if safe[cell] {
				b.WriteString("💎")
			} else {
				b.WriteString("⬜")
			}
		}
		if row < gridSize-1 {
			b.WriteByte('\n')
		}
	}

	return b.String()
}

// Message formats the mines broadcast text.
func (s MinesSignal) Message() string {
	return fmt.Sprintf(
		"🚨 SINAL CONFIRMADO 🚨\n\n%s\n\n💣 Minas: %d\n🎯 Tentativas: %d\n⏰ Válido por %d minutos",
		s.Board(), s.Mines, s.Attempts, int(s.ValidFor.Minutes()),
	)
}

// Message formats the aviator broadcast text.
func (s AviatorSignal) Message() string {
	return fmt.Sprintf(
		"✈️ SINAL AVIATOR ✈️\n\n💰 Sair em: %.2fx\n⏰ Horário: %s",
		s.Multiplier, s.Target.Format("15:04:05"),
	)
}
