package quiz

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimerDuration is the time allowed per question, in seconds. Zero disables the countdown.
type TimerDuration int

const (
	TimerNone TimerDuration = 0
	Timer30   TimerDuration = 30
	Timer60   TimerDuration = 60
	Timer90   TimerDuration = 90
)

var TimerDurations = []TimerDuration{TimerNone, Timer30, Timer60, Timer90}

// ParseTimerDuration accepts "none", "0", "30", "30s" and the like.
func ParseTimerDuration(s string) (TimerDuration, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "none" {
		return TimerNone, nil
	}
	seconds, err := strconv.Atoi(strings.TrimSuffix(s, "s"))
	if err != nil {
		return TimerNone, fmt.Errorf("invalid timer %q, must be one of none, 30s, 60s, 90s", s)
	}
	for _, d := range TimerDurations {
		if int(d) == seconds {
			return d, nil
		}
	}
	return TimerNone, fmt.Errorf("invalid timer %q, must be one of none, 30s, 60s, 90s", s)
}

func (d TimerDuration) String() string {
	if d == TimerNone {
		return "None"
	}
	return strconv.Itoa(int(d)) + "s"
}

func (d TimerDuration) Enabled() bool {
	return d > TimerNone
}

// Ticker delivers the one-second countdown ticks.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock is the time source of a quiz session.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) NewTicker(d time.Duration) Ticker {
	return systemTicker{ticker: time.NewTicker(d)}
}

type systemTicker struct {
	ticker *time.Ticker
}

func (t systemTicker) C() <-chan time.Time {
	return t.ticker.C
}

func (t systemTicker) Stop() {
	t.ticker.Stop()
}

// countdown owns the goroutine that forwards ticks for one question.
type countdown struct {
	ticker Ticker
	done   chan struct{}
}

func startCountdown(clock Clock, onTick func(*countdown)) *countdown {
	cd := &countdown{
		ticker: clock.NewTicker(time.Second),
		done:   make(chan struct{}),
	}
	go func() {
		for {
			select {
			case <-cd.done:
				return
			case <-cd.ticker.C():
				onTick(cd)
			}
		}
	}()
	return cd
}

func (cd *countdown) stop() {
	if cd == nil {
		return
	}
	select {
	case <-cd.done:
	default:
		close(cd.done)
		cd.ticker.Stop()
	}
}
