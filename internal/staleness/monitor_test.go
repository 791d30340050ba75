package staleness

import (
	"testing"
	"time"

	"github.com/permupdate/permtrack/backend/internal/storage"
	"github.com/permupdate/permtrack/backend/internal/types"
	"github.com/rs/zerolog"
)

// freshStore reports records for configurable dates
type freshStore struct {
	*storage.NoopStore
	dailyDate   string
	ptimesDate  string
	backlogDate string
}

func (s *freshStore) GetDailyThroughput(_, _ string) ([]types.DailyThroughput, error) {
	if s.dailyDate == "" {
		return nil, nil
	}
	return []types.DailyThroughput{{Date: s.dailyDate, TotalCount: 100}}, nil
}

func (s *freshStore) GetLatestProcessingTimes() (*types.ProcessingTimePercentiles, error) {
	if s.ptimesDate == "" {
		return nil, nil
	}
	return &types.ProcessingTimePercentiles{RecordDate: s.ptimesDate, P50Days: 150, P80Days: 300}, nil
}

func (s *freshStore) GetLatestBacklog() (*types.BacklogSnapshot, error) {
	if s.backlogDate == "" {
		return nil, nil
	}
	return &types.BacklogSnapshot{RecordDate: s.backlogDate, PendingCount: 40000}, nil
}

func newTestMonitor(store storage.Store) *Monitor {
	m := NewMonitor(store, time.Minute, 48*time.Hour, zerolog.Nop())
	m.now = func() time.Time { return time.Date(2024, 6, 5, 12, 0, 0, 0, time.UTC) }
	return m
}

func TestCheckAllFresh(t *testing.T) {
	store := &freshStore{
		NoopStore:   storage.NewNoopStore(),
		dailyDate:   "2024-06-04",
		ptimesDate:  "2024-06-04",
		backlogDate: "2024-06-05",
	}
	m := newTestMonitor(store)

	m.CheckAll()

	if m.AnyStale() {
		t.Errorf("expected all feeds fresh, got %+v", m.Statuses())
	}
	if len(m.Statuses()) != 3 {
		t.Errorf("expected 3 statuses, got %d", len(m.Statuses()))
	}
}

func TestCheckAllDetectsStaleFeed(t *testing.T) {
	store := &freshStore{
		NoopStore:   storage.NewNoopStore(),
		dailyDate:   "2024-06-04",
		ptimesDate:  "2024-05-20", // well past the 48h threshold
		backlogDate: "2024-06-05",
	}
	m := newTestMonitor(store)

	m.CheckAll()

	if !m.AnyStale() {
		t.Fatal("expected a stale feed")
	}
	for _, status := range m.Statuses() {
		stale := status.Signal == SignalPercentiles
		if status.Stale != stale {
			t.Errorf("signal %s: expected stale=%v, got %v", status.Signal, stale, status.Stale)
		}
	}
}

func TestCheckAllMissingRecordIsStale(t *testing.T) {
	m := newTestMonitor(&freshStore{NoopStore: storage.NewNoopStore()})

	m.CheckAll()

	if !m.AnyStale() {
		t.Fatal("expected empty feeds to be reported stale")
	}
	for _, status := range m.Statuses() {
		if !status.Stale || status.LastRecord != "" {
			t.Errorf("signal %s: expected stale with empty record, got %+v", status.Signal, status)
		}
	}
}
