package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Monitor runs one polling cycle: query line status, decide whether the
// delay is worth reporting, deliver the notice. It holds no state between
// cycles; two identical delayed polls produce two notifications.
type Monitor struct {
	source   Source
	notifier Notifier
	minDelay time.Duration
	log      zerolog.Logger
}

// New creates a Monitor. Delays below minDelay are logged but not sent.
func New(source Source, notifier Notifier, minDelay time.Duration, log zerolog.Logger) *Monitor {
	return &Monitor{
		source:   source,
		notifier: notifier,
		minDelay: minDelay,
		log:      log,
	}
}

// CheckAndNotify performs a single check. Upstream failures abort before
// any webhook call; delivery failures drop the notice for this cycle.
func (m *Monitor) CheckAndNotify(ctx context.Context) error {
	notice, err := m.source.LineStatus(ctx)
	if err != nil {
		m.log.Error().Err(err).Msg("line status check failed")
		return fmt.Errorf("line status: %w", err)
	}
	if notice == nil {
		m.log.Info().Msg("no upcoming departure found")
		return nil
	}
	if notice.Delay < m.minDelay {
		m.log.Info().
			Str("line", notice.Line).
			Str("stop", notice.StopID).
			Dur("delay", notice.Delay).
			Msg("next departure on time")
		return nil
	}
	msg := notice.Message()
	if err := m.notifier.Send(ctx, msg); err != nil {
		m.log.Error().Err(err).Str("line", notice.Line).Msg("notification delivery failed")
		return fmt.Errorf("deliver notice: %w", err)
	}
	m.log.Info().
		Str("line", notice.Line).
		Str("stop", notice.StopID).
		Dur("delay", notice.Delay).
		Msg("delay notification sent")
	return nil
}
