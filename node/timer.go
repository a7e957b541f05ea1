package node

import (
	"time"

	"go.uber.org/atomic"
)

const timerGranularity = 10 * time.Millisecond

// searchTimer is the single clock shared by all in-flight searches.
// One goroutine advances the tick counter; Search reads it before and
// after collection to log searches that used up their collector
// budget. The collector deadline itself is a context timeout.
type searchTimer struct {
	ticks *atomic.Int64
	stop  chan struct{}
}

func newSearchTimer() *searchTimer {
	t := &searchTimer{
		ticks: atomic.NewInt64(0),
		stop:  make(chan struct{}),
	}
	go t.run()
	return t
}

func (t *searchTimer) run() {
	ticker := time.NewTicker(timerGranularity)
	defer ticker.Stop()
	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			t.ticks.Inc()
		}
	}
}

func (t *searchTimer) Ticks() int64 {
	return t.ticks.Load()
}

// budgetTicks converts a wall-clock budget into timer ticks, rounding
// up so short budgets still get one tick.
func budgetTicks(d time.Duration) int64 {
	n := int64(d / timerGranularity)
	if d%timerGranularity != 0 || n == 0 {
		n++
	}
	return n
}

func (t *searchTimer) Close() {
	close(t.stop)
}
