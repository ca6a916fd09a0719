package js

import (
	"sync"
	"time"

	"github.com/dop251/goja"
)

// timer represents a scheduled setTimeout or setInterval callback.
type timer struct {
	id       int
	callback goja.Callable
	args     []goja.Value
	dueTime  time.Time
	interval time.Duration // 0 for setTimeout
}

// timerManager manages setTimeout and setInterval timers.
type timerManager struct {
	mu     sync.Mutex
	timers map[int]*timer
	nextID int
}

func newTimerManager() *timerManager {
	return &timerManager{
		timers: make(map[int]*timer),
		nextID: 1,
	}
}

func (tm *timerManager) schedule(callback goja.Callable, delay, interval time.Duration, args []goja.Value) int {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	id := tm.nextID
	tm.nextID++
	tm.timers[id] = &timer{
		id:       id,
		callback: callback,
		args:     args,
		dueTime:  time.Now().Add(delay),
		interval: interval,
	}
	return id
}

func (tm *timerManager) clearTimer(id int) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	delete(tm.timers, id)
}

// process runs every due timer. Interval timers are rescheduled.
func (tm *timerManager) process(r *Runtime) {
	tm.mu.Lock()
	now := time.Now()
	var due []*timer
	for _, t := range tm.timers {
		if !now.Before(t.dueTime) {
			due = append(due, t)
		}
	}
	tm.mu.Unlock()

	for _, t := range due {
		tm.mu.Lock()
		_, live := tm.timers[t.id]
		tm.mu.Unlock()
		if !live {
			continue
		}

		if _, err := t.callback(goja.Undefined(), t.args...); err != nil {
			r.reportError(err)
		}

		tm.mu.Lock()
		if _, still := tm.timers[t.id]; still {
			if t.interval > 0 {
				t.dueTime = time.Now().Add(t.interval)
			} else {
				delete(tm.timers, t.id)
			}
		}
		tm.mu.Unlock()
	}
}

func (tm *timerManager) hasPending() bool {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return len(tm.timers) > 0
}

// nextDue returns the time until the next timer fires and false when no
// timer is pending.
func (tm *timerManager) nextDue() (time.Duration, bool) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if len(tm.timers) == 0 {
		return 0, false
	}
	now := time.Now()
	min := time.Duration(-1)
	for _, t := range tm.timers {
		d := t.dueTime.Sub(now)
		if d <= 0 {
			return 0, true
		}
		if min < 0 || d < min {
			min = d
		}
	}
	return min, true
}

func (tm *timerManager) clear() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.timers = make(map[int]*timer)
}
