package storage

import "github.com/permupdate/permtrack/backend/internal/types"

// Store defines the aggregate-store interface. All aggregate tables are
// maintained by the external ingestion pipeline and read-only here; only
// the prediction audit trail is written.
type Store interface {
	GetDailyThroughput(start, end string) ([]types.DailyThroughput, error)
	GetWeeklyThroughput(start, end string) ([]types.WeeklyThroughput, error)
	GetLatestProcessingTimes() (*types.ProcessingTimePercentiles, error)
	GetLatestBacklog() (*types.BacklogSnapshot, error)
	GetBacklogRange(start, end string) ([]types.BacklogSnapshot, error)
	GetMonthlyStatusCount(status types.CaseStatus, monthKey string) (*types.MonthlyStatusCount, error)
	GetMonthlyStatusBefore(status types.CaseStatus, monthKey string) ([]types.MonthlyStatusCount, error)

	SavePredictionRequest(rec types.PredictionRequestRecord) error
	AttachPredictionResult(dateKey, id, completionDate string, estimatedDays int, confidence float64) error
	GetPredictionRequests(dateKey string) ([]types.PredictionRequestRecord, error)
	GetPredictionRequest(dateKey, id string) (*types.PredictionRequestRecord, error)
}

// NoopStore is a no-op implementation when DynamoDB is disabled. Reads
// return nothing, which the accessor turns into its documented defaults.
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (s *NoopStore) GetDailyThroughput(_, _ string) ([]types.DailyThroughput, error) {
	return nil, nil
}
func (s *NoopStore) GetWeeklyThroughput(_, _ string) ([]types.WeeklyThroughput, error) {
	return nil, nil
}
func (s *NoopStore) GetLatestProcessingTimes() (*types.ProcessingTimePercentiles, error) {
	return nil, nil
}
func (s *NoopStore) GetLatestBacklog() (*types.BacklogSnapshot, error) { return nil, nil }
func (s *NoopStore) GetBacklogRange(_, _ string) ([]types.BacklogSnapshot, error) {
	return nil, nil
}
func (s *NoopStore) GetMonthlyStatusCount(_ types.CaseStatus, _ string) (*types.MonthlyStatusCount, error) {
	return nil, nil
}
func (s *NoopStore) GetMonthlyStatusBefore(_ types.CaseStatus, _ string) ([]types.MonthlyStatusCount, error) {
	return nil, nil
}
func (s *NoopStore) SavePredictionRequest(_ types.PredictionRequestRecord) error { return nil }
func (s *NoopStore) AttachPredictionResult(_, _, _ string, _ int, _ float64) error {
	return nil
}
func (s *NoopStore) GetPredictionRequests(_ string) ([]types.PredictionRequestRecord, error) {
	return nil, nil
}
func (s *NoopStore) GetPredictionRequest(_, _ string) (*types.PredictionRequestRecord, error) {
	return nil, nil
}
