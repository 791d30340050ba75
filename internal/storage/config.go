package storage

import "os"

// DynamoMode represents the DynamoDB connection mode
type DynamoMode string

const (
	DynamoModeLocal DynamoMode = "local"
	DynamoModeAWS   DynamoMode = "aws"
	DynamoModeNone  DynamoMode = "none"
)

// Constant partition keys for the single-partition time-series tables
const (
	recordTypeDaily   = "daily"
	recordTypeWeekly  = "weekly"
	recordTypePTimes  = "ptimes"
	recordTypeBacklog = "backlog"
)

// DynamoConfig holds DynamoDB configuration
type DynamoConfig struct {
	Mode                    DynamoMode
	Endpoint                string // for local mode
	Region                  string
	DailyThroughputTable    string
	WeeklyThroughputTable   string
	MonthlyStatusTable      string
	ProcessingTimesTable    string
	BacklogTable            string
	PredictionRequestsTable string
}

// LoadDynamoConfig loads DynamoDB config from environment
func LoadDynamoConfig() DynamoConfig {
	mode := DynamoMode(getEnv("DYNAMO_MODE", "none"))
	if mode != DynamoModeLocal && mode != DynamoModeAWS {
		mode = DynamoModeNone
	}

	return DynamoConfig{
		Mode:                    mode,
		Endpoint:                getEnv("DYNAMO_ENDPOINT", "http://localhost:8000"),
		Region:                  getEnv("DYNAMO_REGION", "us-east-1"),
		DailyThroughputTable:    getEnv("DYNAMO_DAILY_TABLE", "permtrack-daily-throughput"),
		WeeklyThroughputTable:   getEnv("DYNAMO_WEEKLY_TABLE", "permtrack-weekly-throughput"),
		MonthlyStatusTable:      getEnv("DYNAMO_MONTHLY_STATUS_TABLE", "permtrack-monthly-status"),
		ProcessingTimesTable:    getEnv("DYNAMO_PROCESSING_TIMES_TABLE", "permtrack-processing-times"),
		BacklogTable:            getEnv("DYNAMO_BACKLOG_TABLE", "permtrack-backlog"),
		PredictionRequestsTable: getEnv("DYNAMO_PREDICTION_REQUESTS_TABLE", "permtrack-prediction-requests"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
