// Package scheduler drives periodic signal generation with cron.
package scheduler

import (
	"context"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Trading hours for scheduled signals. Ticks are spread evenly inside this
// window; nothing fires overnight.
const (
	windowStartHour = 8
	windowEndHour   = 18
)

// Scheduler runs the signal task on a fixed daily cadence.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
}

// New builds a scheduler that invokes task signalsPerDay times per day,
// evenly spaced across the trading window. The task receives the parent
// context; long tasks should honor its cancellation.
func New(ctx context.Context, signalsPerDay int, task func(context.Context)) (*Scheduler, error) {
	logger := log.With().Str("component", "scheduler").Logger()
	c := cron.New()

	spec := cronSpec(signalsPerDay)
	if _, err := c.AddFunc(spec, func() { task(ctx) }); err != nil {
		return nil, fmt.Errorf("registering signal task: %w", err)
	}

	logger.Info().Str("spec", spec).Int("signals_per_day", signalsPerDay).
		Msg("signal task scheduled")

	return &Scheduler{cron: c, log: logger}, nil
}

// Start begins dispatching in a background goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts dispatching and waits for a running task to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("scheduler stopped")
}

// cronSpec spreads n daily ticks across the trading window. One tick a day
// fires at the window open; up to one tick per hour fires on the hour;
// beyond that, ticks repeat every windowMinutes/n minutes of every window
// hour.
func cronSpec(n int) string {
	windowHours := windowEndHour - windowStartHour
	hours := fmt.Sprintf("%d-%d", windowStartHour, windowEndHour-1)

	switch {
	case n <= 1:
		return fmt.Sprintf("0 %d * * *", windowStartHour)
	case n < windowHours:
		// Every (windowHours/n)th hour inside the window.
		step := windowHours / n
		var at []string
		for h := windowStartHour; h < windowEndHour && len(at) < n; h += step {
			at = append(at, fmt.Sprintf("%d", h))
		}
		return fmt.Sprintf("0 %s * * *", strings.Join(at, ","))
	case n == windowHours:
		return fmt.Sprintf("0 %s * * *", hours)
	default:
		// More than hourly: split each window hour.
		perHour := (n + windowHours - 1) / windowHours
		step := 60 / perHour
		if step < 1 {
			step = 1
		}
		return fmt.Sprintf("*/%d %s * * *", step, hours)
	}
}
