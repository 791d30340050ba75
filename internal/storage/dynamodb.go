package storage

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/permupdate/permtrack/backend/internal/types"
	"github.com/rs/zerolog"
)

// DynamoDBStore implements Store using AWS DynamoDB
type DynamoDBStore struct {
	client *dynamodb.Client
	config DynamoConfig
	logger zerolog.Logger
}

// NewDynamoDBStore creates a new DynamoDB store
func NewDynamoDBStore(ctx context.Context, cfg DynamoConfig, logger zerolog.Logger) (*DynamoDBStore, error) {
	var client *dynamodb.Client

	if cfg.Mode == DynamoModeLocal {
		// For local mode, build the client directly without LoadDefaultConfig.
		// LoadDefaultConfig probes the EC2 IMDS endpoint which hangs on EC2
		// instances when static credentials are intended.
		client = dynamodb.New(dynamodb.Options{
			Region:       cfg.Region,
			BaseEndpoint: aws.String(cfg.Endpoint),
			Credentials:  credentials.NewStaticCredentialsProvider("local", "local", ""),
		})
	} else {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client = dynamodb.NewFromConfig(awsCfg)
	}

	store := &DynamoDBStore{
		client: client,
		config: cfg,
		logger: logger,
	}

	// Create tables in local mode
	if cfg.Mode == DynamoModeLocal {
		if err := CreateTablesIfNotExist(ctx, client, cfg, logger); err != nil {
			return nil, err
		}
	}

	logger.Info().
		Str("mode", string(cfg.Mode)).
		Str("region", cfg.Region).
		Msg("DynamoDB store initialized")

	return store, nil
}

// queryRange queries a single-partition time-series table for sort keys
// within [start, end] inclusive, ascending.
func (s *DynamoDBStore) queryRange(table, recordType, sortAttr, start, end string) (*dynamodb.QueryOutput, error) {
	keyCond := expression.Key("RecordType").Equal(expression.Value(recordType)).
		And(expression.Key(sortAttr).Between(expression.Value(start), expression.Value(end)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	return s.client.Query(context.Background(), &dynamodb.QueryInput{
		TableName:                 aws.String(table),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
}

// queryLatest returns the most recent item in a single-partition table
func (s *DynamoDBStore) queryLatest(table, recordType string) (*dynamodb.QueryOutput, error) {
	keyCond := expression.Key("RecordType").Equal(expression.Value(recordType))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	return s.client.Query(context.Background(), &dynamodb.QueryInput{
		TableName:                 aws.String(table),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
		Limit:                     aws.Int32(1),
	})
}

func (s *DynamoDBStore) GetDailyThroughput(start, end string) ([]types.DailyThroughput, error) {
	result, err := s.queryRange(s.config.DailyThroughputTable, recordTypeDaily, "Date", start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily throughput: %w", err)
	}

	var rows []types.DailyThroughput
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal daily throughput: %w", err)
	}
	return rows, nil
}

func (s *DynamoDBStore) GetWeeklyThroughput(start, end string) ([]types.WeeklyThroughput, error) {
	result, err := s.queryRange(s.config.WeeklyThroughputTable, recordTypeWeekly, "WeekStart", start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query weekly throughput: %w", err)
	}

	var rows []types.WeeklyThroughput
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal weekly throughput: %w", err)
	}
	return rows, nil
}

func (s *DynamoDBStore) GetLatestProcessingTimes() (*types.ProcessingTimePercentiles, error) {
	result, err := s.queryLatest(s.config.ProcessingTimesTable, recordTypePTimes)
	if err != nil {
		return nil, fmt.Errorf("failed to query processing times: %w", err)
	}
	if len(result.Items) == 0 {
		return nil, nil
	}

	var row types.ProcessingTimePercentiles
	if err := attributevalue.UnmarshalMap(result.Items[0], &row); err != nil {
		return nil, fmt.Errorf("failed to unmarshal processing times: %w", err)
	}
	return &row, nil
}

func (s *DynamoDBStore) GetLatestBacklog() (*types.BacklogSnapshot, error) {
	result, err := s.queryLatest(s.config.BacklogTable, recordTypeBacklog)
	if err != nil {
		return nil, fmt.Errorf("failed to query backlog: %w", err)
	}
	if len(result.Items) == 0 {
		return nil, nil
	}

	var row types.BacklogSnapshot
	if err := attributevalue.UnmarshalMap(result.Items[0], &row); err != nil {
		return nil, fmt.Errorf("failed to unmarshal backlog snapshot: %w", err)
	}
	return &row, nil
}

func (s *DynamoDBStore) GetBacklogRange(start, end string) ([]types.BacklogSnapshot, error) {
	result, err := s.queryRange(s.config.BacklogTable, recordTypeBacklog, "RecordDate", start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query backlog range: %w", err)
	}

	var rows []types.BacklogSnapshot
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal backlog range: %w", err)
	}
	return rows, nil
}

func (s *DynamoDBStore) GetMonthlyStatusCount(status types.CaseStatus, monthKey string) (*types.MonthlyStatusCount, error) {
	keyCond := expression.Key("Status").Equal(expression.Value(string(status))).
		And(expression.Key("MonthKey").Equal(expression.Value(monthKey)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	result, err := s.client.Query(context.Background(), &dynamodb.QueryInput{
		TableName:                 aws.String(s.config.MonthlyStatusTable),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly status count: %w", err)
	}
	if len(result.Items) == 0 {
		return nil, nil
	}

	var row types.MonthlyStatusCount
	if err := attributevalue.UnmarshalMap(result.Items[0], &row); err != nil {
		return nil, fmt.Errorf("failed to unmarshal monthly status count: %w", err)
	}
	return &row, nil
}

// GetMonthlyStatusBefore returns every month bucket for the status strictly
// before monthKey. Lexicographic order on YYYY-MM keys matches chronology.
func (s *DynamoDBStore) GetMonthlyStatusBefore(status types.CaseStatus, monthKey string) ([]types.MonthlyStatusCount, error) {
	keyCond := expression.Key("Status").Equal(expression.Value(string(status))).
		And(expression.Key("MonthKey").LessThan(expression.Value(monthKey)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	result, err := s.client.Query(context.Background(), &dynamodb.QueryInput{
		TableName:                 aws.String(s.config.MonthlyStatusTable),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly status before %s: %w", monthKey, err)
	}

	var rows []types.MonthlyStatusCount
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal monthly status rows: %w", err)
	}
	return rows, nil
}

func (s *DynamoDBStore) SavePredictionRequest(rec types.PredictionRequestRecord) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal prediction request: %w", err)
	}

	_, err = s.client.PutItem(context.Background(), &dynamodb.PutItemInput{
		TableName: aws.String(s.config.PredictionRequestsTable),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to save prediction request: %w", err)
	}
	return nil
}

// AttachPredictionResult fills in the result fields of an existing audit
// record. The record is never otherwise mutated after its initial write.
func (s *DynamoDBStore) AttachPredictionResult(dateKey, id, completionDate string, estimatedDays int, confidence float64) error {
	update := expression.Set(expression.Name("CompletionDate"), expression.Value(completionDate)).
		Set(expression.Name("EstimatedDays"), expression.Value(estimatedDays)).
		Set(expression.Name("Confidence"), expression.Value(confidence))
	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	key, err := attributevalue.MarshalMap(map[string]string{"DateKey": dateKey, "ID": id})
	if err != nil {
		return fmt.Errorf("failed to marshal key: %w", err)
	}

	_, err = s.client.UpdateItem(context.Background(), &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.config.PredictionRequestsTable),
		Key:                       key,
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return fmt.Errorf("failed to attach prediction result: %w", err)
	}
	return nil
}

func (s *DynamoDBStore) GetPredictionRequests(dateKey string) ([]types.PredictionRequestRecord, error) {
	keyCond := expression.Key("DateKey").Equal(expression.Value(dateKey))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	result, err := s.client.Query(context.Background(), &dynamodb.QueryInput{
		TableName:                 aws.String(s.config.PredictionRequestsTable),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query prediction requests: %w", err)
	}

	var rows []types.PredictionRequestRecord
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prediction requests: %w", err)
	}
	return rows, nil
}

func (s *DynamoDBStore) GetPredictionRequest(dateKey, id string) (*types.PredictionRequestRecord, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"DateKey": dateKey, "ID": id})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal key: %w", err)
	}

	result, err := s.client.GetItem(context.Background(), &dynamodb.GetItemInput{
		TableName: aws.String(s.config.PredictionRequestsTable),
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction request: %w", err)
	}
	if result.Item == nil {
		return nil, nil
	}

	var row types.PredictionRequestRecord
	if err := attributevalue.UnmarshalMap(result.Item, &row); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prediction request: %w", err)
	}
	return &row, nil
}

// NewStore creates the appropriate store based on configuration
func NewStore(ctx context.Context, logger zerolog.Logger) (Store, error) {
	cfg := LoadDynamoConfig()

	switch cfg.Mode {
	case DynamoModeLocal, DynamoModeAWS:
		return NewDynamoDBStore(ctx, cfg, logger)
	default:
		logger.Info().Msg("DynamoDB disabled (DYNAMO_MODE=none)")
		return NewNoopStore(), nil
	}
}
