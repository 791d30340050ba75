package staleness

import (
	"context"
	"sync"
	"time"

	"github.com/permupdate/permtrack/backend/internal/storage"
	"github.com/permupdate/permtrack/backend/internal/types"
	"github.com/rs/zerolog"
)

// Signal identifies one monitored aggregate feed
type Signal string

const (
	SignalDaily       Signal = "daily_throughput"
	SignalPercentiles Signal = "processing_times"
	SignalBacklog     Signal = "backlog"
)

// Status is the freshness verdict for one signal
type Status struct {
	Signal     Signal    `json:"signal"`
	LastRecord string    `json:"lastRecord"` // YYYY-MM-DD, empty when no record exists
	Stale      bool      `json:"stale"`
	CheckedAt  time.Time `json:"checkedAt"`
}

// Monitor periodically checks how old the newest aggregate records are and
// logs a warning when a feed stops updating. The upstream scraper runs
// nightly, so a record older than the threshold means the pipeline broke.
type Monitor struct {
	store     storage.Store
	interval  time.Duration
	threshold time.Duration
	logger    zerolog.Logger
	now       func() time.Time

	mu       sync.RWMutex
	statuses map[Signal]Status
}

// NewMonitor creates a staleness monitor
func NewMonitor(store storage.Store, interval, threshold time.Duration, logger zerolog.Logger) *Monitor {
	return &Monitor{
		store:     store,
		interval:  interval,
		threshold: threshold,
		logger:    logger.With().Str("component", "staleness_monitor").Logger(),
		now:       time.Now,
		statuses:  make(map[Signal]Status),
	}
}

// Start runs the check loop until ctx is cancelled
func (m *Monitor) Start(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.Info().
		Dur("interval", m.interval).
		Dur("threshold", m.threshold).
		Msg("staleness monitor started")

	m.CheckAll() // one pass up front so /health reflects reality immediately

	for {
		select {
		case <-ctx.Done():
			m.logger.Info().Msg("staleness monitor stopped")
			return

		case <-ticker.C:
			m.CheckAll()
		}
	}
}

// CheckAll refreshes the freshness verdict for every monitored signal
func (m *Monitor) CheckAll() {
	now := m.now()
	checks := []struct {
		signal Signal
		latest func() (string, error)
	}{
		{SignalDaily, m.latestDaily},
		{SignalPercentiles, m.latestPercentiles},
		{SignalBacklog, m.latestBacklog},
	}

	for _, check := range checks {
		lastRecord, err := check.latest()
		if err != nil {
			m.logger.Warn().Err(err).Str("signal", string(check.signal)).Msg("staleness check failed")
			continue
		}
		m.record(check.signal, lastRecord, now)
	}
}

func (m *Monitor) record(signal Signal, lastRecord string, now time.Time) {
	status := Status{Signal: signal, LastRecord: lastRecord, CheckedAt: now}

	if lastRecord == "" {
		status.Stale = true
	} else if recordDay, err := time.Parse("2006-01-02", lastRecord); err == nil {
		status.Stale = now.Sub(recordDay) > m.threshold
	} else {
		status.Stale = true
	}

	if status.Stale {
		m.logger.Warn().
			Str("signal", string(signal)).
			Str("last_record", lastRecord).
			Msg("aggregate feed is stale")
	}

	m.mu.Lock()
	m.statuses[signal] = status
	m.mu.Unlock()
}

func (m *Monitor) latestDaily() (string, error) {
	end := m.now()
	start := end.AddDate(0, 0, -14)
	rows, err := m.store.GetDailyThroughput(types.DateKey(start), types.DateKey(end))
	if err != nil || len(rows) == 0 {
		return "", err
	}
	return rows[len(rows)-1].Date, nil
}

func (m *Monitor) latestPercentiles() (string, error) {
	row, err := m.store.GetLatestProcessingTimes()
	if err != nil || row == nil {
		return "", err
	}
	return row.RecordDate, nil
}

func (m *Monitor) latestBacklog() (string, error) {
	row, err := m.store.GetLatestBacklog()
	if err != nil || row == nil {
		return "", err
	}
	return row.RecordDate, nil
}

// Statuses returns a snapshot of the current verdicts
func (m *Monitor) Statuses() []Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Status, 0, len(m.statuses))
	for _, signal := range []Signal{SignalDaily, SignalPercentiles, SignalBacklog} {
		if status, ok := m.statuses[signal]; ok {
			out = append(out, status)
		}
	}
	return out
}

// AnyStale reports whether any monitored feed is currently stale
func (m *Monitor) AnyStale() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, status := range m.statuses {
		if status.Stale {
			return true
		}
	}
	return false
}
