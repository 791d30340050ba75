package types

import "time"

// CaseStatus represents the adjudication status of a PERM case
type CaseStatus string

const (
	StatusPendingReview   CaseStatus = "pending-review"
	StatusCertified       CaseStatus = "certified"
	StatusDenied          CaseStatus = "denied"
	StatusWithdrawn       CaseStatus = "withdrawn"
	StatusReconsideration CaseStatus = "reconsideration"
	StatusRFIIssued       CaseStatus = "rfi-issued"
)

// AllStatuses returns all defined case statuses
var AllStatuses = []CaseStatus{
	StatusPendingReview,
	StatusCertified,
	StatusDenied,
	StatusWithdrawn,
	StatusReconsideration,
	StatusRFIIssued,
}

// DailyThroughput is the count of queue transitions on one calendar date
type DailyThroughput struct {
	Date       string `json:"date" dynamodbav:"Date"` // YYYY-MM-DD (sort key)
	TotalCount int    `json:"totalCount" dynamodbav:"TotalCount"`
	DayOfWeek  string `json:"dayOfWeek" dynamodbav:"DayOfWeek"`
}

// WeeklyThroughput is the sum of daily throughput over a Monday-start week.
// Only fully-elapsed weeks are complete.
type WeeklyThroughput struct {
	WeekStart  string `json:"weekStart" dynamodbav:"WeekStart"` // Monday, YYYY-MM-DD (sort key)
	TotalCount int    `json:"totalCount" dynamodbav:"TotalCount"`
}

// MonthlyStatusCount is a point-in-time count of cases in a given status,
// bucketed by the case's original submission month
type MonthlyStatusCount struct {
	Status   CaseStatus `json:"status" dynamodbav:"Status"`     // partition key
	MonthKey string     `json:"monthKey" dynamodbav:"MonthKey"` // YYYY-MM (sort key)
	Year     int        `json:"year" dynamodbav:"Year"`
	Month    string     `json:"month" dynamodbav:"Month"` // calendar month name
	Count    int        `json:"count" dynamodbav:"Count"`
	IsActive bool       `json:"isActive" dynamodbav:"IsActive"`
}

// ProcessingTimePercentiles is the distribution of completed-case durations
// as of a snapshot date
type ProcessingTimePercentiles struct {
	RecordDate string `json:"recordDate" dynamodbav:"RecordDate"` // YYYY-MM-DD (sort key)
	P30Days    int    `json:"p30Days" dynamodbav:"P30Days"`
	P50Days    int    `json:"p50Days" dynamodbav:"P50Days"`
	P80Days    int    `json:"p80Days" dynamodbav:"P80Days"`
}

// BacklogSnapshot is a point-in-time total pending-case count
type BacklogSnapshot struct {
	RecordDate   string `json:"recordDate" dynamodbav:"RecordDate"` // YYYY-MM-DD (sort key)
	PendingCount int    `json:"pendingCount" dynamodbav:"PendingCount"`
}

// MonthlyVolume is daily throughput summed per calendar month (dashboard series)
type MonthlyVolume struct {
	Year       int    `json:"year"`
	Month      string `json:"month"`
	TotalCount int    `json:"totalCount"`
}

// TodaysProgress compares today's throughput against yesterday's
type TodaysProgress struct {
	Date           string  `json:"date"`
	TotalCount     int     `json:"totalCount"`
	YesterdayCount int     `json:"yesterdayCount"`
	PercentChange  float64 `json:"percentChange"`
}

// DashboardData bundles the series the dashboard renders
type DashboardData struct {
	DailySeries    []DailyThroughput  `json:"dailySeries"`
	WeeklySeries   []WeeklyThroughput `json:"weeklySeries"`
	MonthlySeries  []MonthlyVolume    `json:"monthlySeries"`
	BacklogSeries  []BacklogSnapshot  `json:"backlogSeries"`
	CurrentBacklog int                `json:"currentBacklog"`
	TodaysProgress TodaysProgress     `json:"todaysProgress"`
}

// DateKey formats a time as the YYYY-MM-DD key used across all tables
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
