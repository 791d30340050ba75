package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/permupdate/permtrack/backend/internal/analytics"
	"github.com/permupdate/permtrack/backend/internal/cache"
	"github.com/permupdate/permtrack/backend/internal/types"
	"github.com/rs/zerolog"
)

const (
	defaultDailyDays    = 30
	defaultWeeklyWeeks  = 12
	defaultMonthlyBack  = 12
	maxDailyDays        = 365
	maxWeeklyWeeks      = 104
	maxMonthlyBack      = 36
	dashboardBacklogDay = 90
)

// DashboardHandler serves the aggregate series the dashboard renders
type DashboardHandler struct {
	accessor *analytics.Accessor
	cache    *cache.ResponseCache
	logger   zerolog.Logger
	now      func() time.Time
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(accessor *analytics.Accessor, responseCache *cache.ResponseCache, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		accessor: accessor,
		cache:    responseCache,
		logger:   logger.With().Str("component", "dashboard_handler").Logger(),
		now:      time.Now,
	}
}

// GetDashboard returns the full dashboard bundle
// GET /api/data/dashboard?days=N
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", defaultDailyDays, maxDailyDays)
	cacheKey := "dashboard:" + strconv.Itoa(days)

	if payload := h.cache.Get(cacheKey); payload != nil {
		w.Header().Set("Content-Type", "application/json")
		w.Write(payload)
		return
	}

	now := h.now()
	start := now.AddDate(0, 0, -days)
	data := types.DashboardData{
		DailySeries:    h.accessor.DailyThroughput(start, now),
		WeeklySeries:   h.accessor.WeeklyThroughput(start, now),
		MonthlySeries:  h.accessor.MonthlyVolume(now.AddDate(0, -defaultMonthlyBack, 0), now),
		BacklogSeries:  h.accessor.BacklogSeries(now.AddDate(0, 0, -dashboardBacklogDay), now),
		CurrentBacklog: h.accessor.CurrentBacklog(),
		TodaysProgress: h.accessor.TodaysProgress(now),
	}

	payload, err := json.Marshal(data)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to marshal dashboard data")
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	h.cache.Set(cacheKey, payload)

	w.Header().Set("Content-Type", "application/json")
	w.Write(payload)
}

// GetDailyVolume returns the daily throughput series
// GET /api/data/daily-volume?start_date=&end_date=
func (h *DashboardHandler) GetDailyVolume(w http.ResponseWriter, r *http.Request) {
	start, end, err := queryDateRange(r, h.now(), defaultDailyDays)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	rows := h.accessor.DailyThroughput(start, end)
	if rows == nil {
		rows = []types.DailyThroughput{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rows)
}

// GetWeeklyVolumes returns the weekly throughput series
// GET /api/data/weekly-volumes?start_date=&end_date=
func (h *DashboardHandler) GetWeeklyVolumes(w http.ResponseWriter, r *http.Request) {
	start, end, err := queryDateRange(r, h.now(), 7*defaultWeeklyWeeks)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	rows := h.accessor.WeeklyThroughput(start, end)
	if rows == nil {
		rows = []types.WeeklyThroughput{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rows)
}

// GetMonthlyVolumes returns per-month totals derived from the daily series
// GET /api/data/monthly-volumes?months=N
func (h *DashboardHandler) GetMonthlyVolumes(w http.ResponseWriter, r *http.Request) {
	months := queryInt(r, "months", defaultMonthlyBack, maxMonthlyBack)
	now := h.now()

	rows := h.accessor.MonthlyVolume(now.AddDate(0, -months, 0), now)
	if rows == nil {
		rows = []types.MonthlyVolume{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rows)
}

// queryDateRange reads optional start_date and end_date params. end_date
// defaults to today and start_date to defaultBackDays before the end.
func queryDateRange(r *http.Request, now time.Time, defaultBackDays int) (time.Time, time.Time, error) {
	end := now
	if raw := r.URL.Query().Get("end_date"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid end_date, expected YYYY-MM-DD")
		}
		end = parsed
	}

	start := end.AddDate(0, 0, -defaultBackDays)
	if raw := r.URL.Query().Get("start_date"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid start_date, expected YYYY-MM-DD")
		}
		start = parsed
	}

	if start.After(end) {
		return time.Time{}, time.Time{}, errors.New("start_date must be before end_date")
	}
	return start, end, nil
}

// queryInt reads a positive integer query param, clamped to max
func queryInt(r *http.Request, name string, fallback, max int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	if n > max {
		return max
	}
	return n
}
