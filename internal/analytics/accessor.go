package analytics

import (
	"time"

	"github.com/permupdate/permtrack/backend/internal/metrics"
	"github.com/permupdate/permtrack/backend/internal/storage"
	"github.com/permupdate/permtrack/backend/internal/types"
	"github.com/rs/zerolog"
)

// Defaults are the documented fallback percentiles used when the aggregate
// store has no processing-time snapshot
type Defaults struct {
	P30Days int
	P50Days int
	P80Days int
}

// Accessor reads the precomputed aggregate signals from the store. Every
// operation absorbs its own data-access errors and degrades to an empty,
// zero or default result with a warning log; it never fails the caller.
// A prediction with degraded confidence is more useful to the end user
// than an outage.
type Accessor struct {
	store    storage.Store
	metrics  *metrics.Metrics
	defaults Defaults
	logger   zerolog.Logger
}

// NewAccessor creates a new aggregate data accessor
func NewAccessor(store storage.Store, m *metrics.Metrics, defaults Defaults, logger zerolog.Logger) *Accessor {
	return &Accessor{
		store:    store,
		metrics:  m,
		defaults: defaults,
		logger:   logger.With().Str("component", "analytics_accessor").Logger(),
	}
}

// DailyThroughput returns daily counts in [start, end], ascending by date.
// Missing data yields an empty slice, not an error.
func (a *Accessor) DailyThroughput(start, end time.Time) []types.DailyThroughput {
	rows, err := a.store.GetDailyThroughput(types.DateKey(start), types.DateKey(end))
	if err != nil {
		a.logger.Warn().Err(err).Msg("daily throughput unavailable, returning empty series")
		return []types.DailyThroughput{}
	}
	if rows == nil {
		rows = []types.DailyThroughput{}
	}
	return rows
}

// WeeklyThroughput returns Monday-start weekly totals in [start, end],
// ascending. The series may include the current, not-yet-complete week;
// callers computing a rate must exclude it (see CompletedWeeklyTotals).
func (a *Accessor) WeeklyThroughput(start, end time.Time) []types.WeeklyThroughput {
	rows, err := a.store.GetWeeklyThroughput(types.DateKey(start), types.DateKey(end))
	if err != nil {
		a.logger.Warn().Err(err).Msg("weekly throughput unavailable, returning empty series")
		return []types.WeeklyThroughput{}
	}
	if rows == nil {
		rows = []types.WeeklyThroughput{}
	}
	return rows
}

// CompletedWeeklyTotals returns the totals of the last n fully-elapsed
// Monday-start weeks relative to now, ascending. The current partial week
// is never included.
func (a *Accessor) CompletedWeeklyTotals(now time.Time, n int) []int {
	currentMonday := mondayOf(now)
	start := currentMonday.AddDate(0, 0, -7*n)
	end := currentMonday.AddDate(0, 0, -1) // any week starting before currentMonday has elapsed

	rows := a.WeeklyThroughput(start, end)
	totals := make([]int, 0, len(rows))
	for _, row := range rows {
		totals = append(totals, row.TotalCount)
	}
	return totals
}

// LatestProcessingTimes returns the most recent percentile snapshot, or the
// documented defaults when none exists. The predictor must remain available
// even with a cold aggregate store.
func (a *Accessor) LatestProcessingTimes() types.ProcessingTimePercentiles {
	row, err := a.store.GetLatestProcessingTimes()
	if err != nil {
		a.logger.Warn().Err(err).Msg("processing time percentiles unavailable, using defaults")
		row = nil
	}
	if row == nil {
		a.metrics.RecordDefaultSubstituted("percentiles")
		return types.ProcessingTimePercentiles{
			P30Days: a.defaults.P30Days,
			P50Days: a.defaults.P50Days,
			P80Days: a.defaults.P80Days,
		}
	}
	return *row
}

// CurrentBacklog returns the most recent pending-case count, or 0 if no
// snapshot exists.
func (a *Accessor) CurrentBacklog() int {
	row, err := a.store.GetLatestBacklog()
	if err != nil {
		a.logger.Warn().Err(err).Msg("backlog snapshot unavailable, using 0")
		row = nil
	}
	if row == nil {
		a.metrics.RecordDefaultSubstituted("backlog")
		return 0
	}
	return row.PendingCount
}

// BacklogSeries returns backlog snapshots in [start, end], ascending
func (a *Accessor) BacklogSeries(start, end time.Time) []types.BacklogSnapshot {
	rows, err := a.store.GetBacklogRange(types.DateKey(start), types.DateKey(end))
	if err != nil {
		a.logger.Warn().Err(err).Msg("backlog series unavailable, returning empty series")
		return []types.BacklogSnapshot{}
	}
	if rows == nil {
		rows = []types.BacklogSnapshot{}
	}
	return rows
}

// MonthlyVolume sums daily throughput per calendar month over [start, end]
func (a *Accessor) MonthlyVolume(start, end time.Time) []types.MonthlyVolume {
	daily := a.DailyThroughput(start, end)

	volumes := make([]types.MonthlyVolume, 0)
	for _, row := range daily {
		day, err := time.Parse("2006-01-02", row.Date)
		if err != nil {
			a.logger.Warn().Str("date", row.Date).Msg("skipping malformed date in daily throughput")
			continue
		}
		name := types.MonthName(day.Month())
		if n := len(volumes); n > 0 && volumes[n-1].Year == day.Year() && volumes[n-1].Month == name {
			volumes[n-1].TotalCount += row.TotalCount
			continue
		}
		volumes = append(volumes, types.MonthlyVolume{
			Year:       day.Year(),
			Month:      name,
			TotalCount: row.TotalCount,
		})
	}
	return volumes
}

// MonthlyStatusCount returns the exact month bucket count for a status,
// 0 if the bucket is absent.
func (a *Accessor) MonthlyStatusCount(status types.CaseStatus, year int, month time.Month) int {
	row, err := a.store.GetMonthlyStatusCount(status, types.MonthKey(year, month))
	if err != nil {
		a.logger.Warn().Err(err).
			Str("status", string(status)).
			Str("month_key", types.MonthKey(year, month)).
			Msg("monthly status count unavailable, using 0")
		return 0
	}
	if row == nil {
		return 0
	}
	return row.Count
}

// SumStatusBeforeMonth sums the counts of every month bucket strictly
// before (year, month) for the status. All chronological comparison runs
// on the centralized YYYY-MM month keys.
func (a *Accessor) SumStatusBeforeMonth(status types.CaseStatus, year int, month time.Month) int {
	rows, err := a.store.GetMonthlyStatusBefore(status, types.MonthKey(year, month))
	if err != nil {
		a.logger.Warn().Err(err).
			Str("status", string(status)).
			Str("month_key", types.MonthKey(year, month)).
			Msg("monthly status rows unavailable, using 0")
		return 0
	}

	sum := 0
	for _, row := range rows {
		sum += row.Count
	}
	return sum
}

// TodaysProgress compares today's throughput against yesterday's
func (a *Accessor) TodaysProgress(now time.Time) types.TodaysProgress {
	yesterday := now.AddDate(0, 0, -1)
	rows := a.DailyThroughput(yesterday, now)

	progress := types.TodaysProgress{Date: types.DateKey(now)}
	for _, row := range rows {
		switch row.Date {
		case types.DateKey(now):
			progress.TotalCount = row.TotalCount
		case types.DateKey(yesterday):
			progress.YesterdayCount = row.TotalCount
		}
	}
	if progress.YesterdayCount > 0 {
		progress.PercentChange = float64(progress.TotalCount-progress.YesterdayCount) / float64(progress.YesterdayCount) * 100.0
	}
	return progress
}

// mondayOf returns the Monday of t's week at midnight UTC
func mondayOf(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -offset)
}
