package analytics

import (
	"errors"
	"testing"
	"time"

	"github.com/permupdate/permtrack/backend/internal/metrics"
	"github.com/permupdate/permtrack/backend/internal/types"
	"github.com/rs/zerolog"
)

// stubStore serves canned rows, or a single error for every read
type stubStore struct {
	daily   []types.DailyThroughput
	weekly  []types.WeeklyThroughput
	ptimes  *types.ProcessingTimePercentiles
	backlog *types.BacklogSnapshot
	monthly []types.MonthlyStatusCount
	err     error
}

func (s *stubStore) GetDailyThroughput(start, end string) ([]types.DailyThroughput, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []types.DailyThroughput
	for _, row := range s.daily {
		if row.Date >= start && row.Date <= end {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *stubStore) GetWeeklyThroughput(start, end string) ([]types.WeeklyThroughput, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []types.WeeklyThroughput
	for _, row := range s.weekly {
		if row.WeekStart >= start && row.WeekStart <= end {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *stubStore) GetLatestProcessingTimes() (*types.ProcessingTimePercentiles, error) {
	return s.ptimes, s.err
}

func (s *stubStore) GetLatestBacklog() (*types.BacklogSnapshot, error) {
	return s.backlog, s.err
}

func (s *stubStore) GetBacklogRange(_, _ string) ([]types.BacklogSnapshot, error) {
	if s.err != nil || s.backlog == nil {
		return nil, s.err
	}
	return []types.BacklogSnapshot{*s.backlog}, nil
}

func (s *stubStore) GetMonthlyStatusCount(status types.CaseStatus, monthKey string) (*types.MonthlyStatusCount, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, row := range s.monthly {
		if row.Status == status && row.MonthKey == monthKey {
			return &row, nil
		}
	}
	return nil, nil
}

func (s *stubStore) GetMonthlyStatusBefore(status types.CaseStatus, monthKey string) ([]types.MonthlyStatusCount, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []types.MonthlyStatusCount
	for _, row := range s.monthly {
		if row.Status == status && row.MonthKey < monthKey {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *stubStore) SavePredictionRequest(types.PredictionRequestRecord) error { return nil }
func (s *stubStore) AttachPredictionResult(string, string, string, int, float64) error {
	return nil
}
func (s *stubStore) GetPredictionRequests(string) ([]types.PredictionRequestRecord, error) {
	return nil, nil
}
func (s *stubStore) GetPredictionRequest(string, string) (*types.PredictionRequestRecord, error) {
	return nil, nil
}

func newTestAccessor(store *stubStore) (*Accessor, *metrics.Metrics) {
	m := metrics.New()
	return NewAccessor(store, m, Defaults{P30Days: 75, P50Days: 150, P80Days: 300}, zerolog.Nop()), m
}

func TestDailyThroughputDegradesToEmpty(t *testing.T) {
	a, _ := newTestAccessor(&stubStore{err: errors.New("table missing")})

	rows := a.DailyThroughput(time.Now().AddDate(0, 0, -30), time.Now())
	if len(rows) != 0 {
		t.Errorf("expected empty series on store error, got %d rows", len(rows))
	}
}

func TestCompletedWeeklyTotalsExcludesCurrentWeek(t *testing.T) {
	store := &stubStore{weekly: []types.WeeklyThroughput{
		{WeekStart: "2024-05-13", TotalCount: 2800},
		{WeekStart: "2024-05-20", TotalCount: 3000},
		{WeekStart: "2024-05-27", TotalCount: 3100},
		{WeekStart: "2024-06-03", TotalCount: 400}, // in progress, must not appear
	}}
	a, _ := newTestAccessor(store)

	// Wednesday June 5th: the week of June 3rd has not finished.
	now := time.Date(2024, 6, 5, 10, 0, 0, 0, time.UTC)
	totals := a.CompletedWeeklyTotals(now, 4)

	if len(totals) != 3 {
		t.Fatalf("expected 3 complete weeks, got %d (%v)", len(totals), totals)
	}
	for _, total := range totals {
		if total == 400 {
			t.Error("current partial week leaked into completed totals")
		}
	}
}

func TestCompletedWeeklyTotalsWindowBound(t *testing.T) {
	store := &stubStore{weekly: []types.WeeklyThroughput{
		{WeekStart: "2024-04-29", TotalCount: 9999}, // older than the 4-week window
		{WeekStart: "2024-05-06", TotalCount: 2900},
		{WeekStart: "2024-05-13", TotalCount: 2900},
		{WeekStart: "2024-05-20", TotalCount: 2900},
		{WeekStart: "2024-05-27", TotalCount: 2900},
	}}
	a, _ := newTestAccessor(store)

	totals := a.CompletedWeeklyTotals(time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), 4)
	if len(totals) != 4 {
		t.Fatalf("expected 4 weeks inside the window, got %d", len(totals))
	}
}

func TestLatestProcessingTimesDefaults(t *testing.T) {
	tests := []struct {
		name  string
		store *stubStore
	}{
		{"no snapshot", &stubStore{}},
		{"store error", &stubStore{err: errors.New("timeout")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, m := newTestAccessor(tt.store)
			pt := a.LatestProcessingTimes()
			if pt.P50Days != 150 || pt.P80Days != 300 {
				t.Errorf("expected defaults 150/300, got %d/%d", pt.P50Days, pt.P80Days)
			}
			if m.DefaultsSubstituted("percentiles") != 1 {
				t.Error("expected a substitution to be counted")
			}
		})
	}
}

func TestLatestProcessingTimesPassesThrough(t *testing.T) {
	store := &stubStore{ptimes: &types.ProcessingTimePercentiles{RecordDate: "2024-06-01", P30Days: 60, P50Days: 120, P80Days: 250}}
	a, m := newTestAccessor(store)

	pt := a.LatestProcessingTimes()
	if pt.P50Days != 120 {
		t.Errorf("expected stored p50 120, got %d", pt.P50Days)
	}
	if m.DefaultsSubstituted("percentiles") != 0 {
		t.Error("unexpected substitution counted")
	}
}

func TestCurrentBacklogDegradesToZero(t *testing.T) {
	a, m := newTestAccessor(&stubStore{err: errors.New("no table")})

	if got := a.CurrentBacklog(); got != 0 {
		t.Errorf("expected backlog 0 on error, got %d", got)
	}
	if m.DefaultsSubstituted("backlog") != 1 {
		t.Error("expected a backlog substitution to be counted")
	}
}

func TestMonthlyVolumeGroupsByMonth(t *testing.T) {
	store := &stubStore{daily: []types.DailyThroughput{
		{Date: "2024-03-30", TotalCount: 100},
		{Date: "2024-03-31", TotalCount: 150},
		{Date: "not-a-date", TotalCount: 999},
		{Date: "2024-04-01", TotalCount: 200},
	}}
	a, _ := newTestAccessor(store)

	volumes := a.MonthlyVolume(
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC),
	)
	if len(volumes) != 2 {
		t.Fatalf("expected 2 months, got %d (%v)", len(volumes), volumes)
	}
	if volumes[0].Month != "March" || volumes[0].TotalCount != 250 {
		t.Errorf("expected March=250, got %s=%d", volumes[0].Month, volumes[0].TotalCount)
	}
	if volumes[1].Month != "April" || volumes[1].TotalCount != 200 {
		t.Errorf("expected April=200, got %s=%d", volumes[1].Month, volumes[1].TotalCount)
	}
}

func TestSumStatusBeforeMonth(t *testing.T) {
	store := &stubStore{monthly: []types.MonthlyStatusCount{
		{Status: types.StatusPendingReview, MonthKey: "2023-12", Count: 3000},
		{Status: types.StatusPendingReview, MonthKey: "2024-01", Count: 4000},
		{Status: types.StatusPendingReview, MonthKey: "2024-02", Count: 5000},
		{Status: types.StatusCertified, MonthKey: "2024-01", Count: 7777}, // wrong status
	}}
	a, _ := newTestAccessor(store)

	if got := a.SumStatusBeforeMonth(types.StatusPendingReview, 2024, time.February); got != 7000 {
		t.Errorf("expected 7000 pending before Feb 2024, got %d", got)
	}
	if got := a.SumStatusBeforeMonth(types.StatusPendingReview, 2023, time.December); got != 0 {
		t.Errorf("expected 0 before the earliest bucket, got %d", got)
	}
}

func TestSumStatusBeforeMonthDegradesToZero(t *testing.T) {
	a, _ := newTestAccessor(&stubStore{err: errors.New("throttled")})

	if got := a.SumStatusBeforeMonth(types.StatusPendingReview, 2024, time.April); got != 0 {
		t.Errorf("expected 0 on store error, got %d", got)
	}
}

func TestMonthlyStatusCountAbsentMonth(t *testing.T) {
	a, _ := newTestAccessor(&stubStore{})

	if got := a.MonthlyStatusCount(types.StatusPendingReview, 2024, time.April); got != 0 {
		t.Errorf("expected 0 for absent bucket, got %d", got)
	}
}

func TestTodaysProgress(t *testing.T) {
	store := &stubStore{daily: []types.DailyThroughput{
		{Date: "2024-06-04", TotalCount: 400},
		{Date: "2024-06-05", TotalCount: 500},
	}}
	a, _ := newTestAccessor(store)

	progress := a.TodaysProgress(time.Date(2024, 6, 5, 15, 0, 0, 0, time.UTC))
	if progress.TotalCount != 500 || progress.YesterdayCount != 400 {
		t.Fatalf("expected 500 today / 400 yesterday, got %d/%d", progress.TotalCount, progress.YesterdayCount)
	}
	if progress.PercentChange != 25.0 {
		t.Errorf("expected +25%% change, got %v", progress.PercentChange)
	}
}

func TestTodaysProgressNoYesterday(t *testing.T) {
	store := &stubStore{daily: []types.DailyThroughput{
		{Date: "2024-06-05", TotalCount: 500},
	}}
	a, _ := newTestAccessor(store)

	progress := a.TodaysProgress(time.Date(2024, 6, 5, 15, 0, 0, 0, time.UTC))
	if progress.PercentChange != 0 {
		t.Errorf("expected 0%% change with no baseline, got %v", progress.PercentChange)
	}
}

func TestMondayOf(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2024-06-03", "2024-06-03"}, // Monday maps to itself
		{"2024-06-05", "2024-06-03"},
		{"2024-06-09", "2024-06-03"}, // Sunday still belongs to Monday's week
	}
	for _, tt := range tests {
		in, _ := time.Parse("2006-01-02", tt.in)
		if got := mondayOf(in).Format("2006-01-02"); got != tt.want {
			t.Errorf("mondayOf(%s): expected %s, got %s", tt.in, tt.want, got)
		}
	}
}
