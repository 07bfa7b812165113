package signals

import (
	"time"

	"github.com/jisjis-ai/telbotfun/internal/domain"
)

// Operating windows, in the scheduler's local timezone. Mines owns the first
// half of the day, aviator the second; hour 23 is a quiet hour used to warm
// up the next mines window.
const (
	minesOpenHour    = 0
	minesCloseHour   = 12
	aviatorOpenHour  = 12
	aviatorCloseHour = 23

	minesPrepHour   = 23
	aviatorPrepHour = 11
)

// WithinOperatingWindow reports whether the game may emit signals at the
// given wall-clock time. Unknown games are always closed.
func WithinOperatingWindow(game string, now time.Time) bool {
	hour := now.Hour()
	switch game {
	case domain.GameMines:
		return hour >= minesOpenHour && hour < minesCloseHour
	case domain.GameAviator:
		return hour >= aviatorOpenHour && hour < aviatorCloseHour
	default:
		return false
	}
}

// PreparationDue reports whether the pre-window notice for the game should
// go out at the given time. Each game has a single notice hour just before
// its window opens.
func PreparationDue(game string, now time.Time) bool {
	switch game {
	case domain.GameMines:
		return now.Hour() == minesPrepHour
	case domain.GameAviator:
		return now.Hour() == aviatorPrepHour
	default:
		return false
	}
}
