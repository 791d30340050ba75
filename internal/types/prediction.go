package types

// LetterPriority classifies the employer-name first letter's queue priority
type LetterPriority string

const (
	PriorityHigh   LetterPriority = "HIGH"
	PriorityMedium LetterPriority = "MEDIUM"
	PriorityLow    LetterPriority = "LOW"
)

// LetterImpact describes how the letter shifts the estimate relative to average
type LetterImpact string

const (
	ImpactFaster  LetterImpact = "FASTER"
	ImpactAverage LetterImpact = "AVERAGE"
	ImpactSlower  LetterImpact = "SLOWER"
)

// PredictionRequestRecord is the append-only audit record of a prediction call.
// Result fields stay empty until the computation completes.
type PredictionRequestRecord struct {
	DateKey        string  `json:"dateKey" dynamodbav:"DateKey"` // request date, partition key
	ID             string  `json:"id" dynamodbav:"ID"`           // uuid, sort key
	SubmitDate     string  `json:"submitDate" dynamodbav:"SubmitDate"`
	Letter         string  `json:"letter" dynamodbav:"Letter"`
	CaseNumber     string  `json:"caseNumber,omitempty" dynamodbav:"CaseNumber"`
	RequestedAt    string  `json:"requestedAt" dynamodbav:"RequestedAt"` // RFC3339
	CompletionDate string  `json:"completionDate,omitempty" dynamodbav:"CompletionDate"`
	EstimatedDays  int     `json:"estimatedDays,omitempty" dynamodbav:"EstimatedDays"`
	Confidence     float64 `json:"confidence,omitempty" dynamodbav:"Confidence"`
}

// QueueAnalysis carries the raw queue-model figures behind an estimate
type QueueAnalysis struct {
	CurrentBacklog     int     `json:"currentBacklog"`
	QueuePosition      int     `json:"queuePosition"`
	WeeklyRate         float64 `json:"weeklyRate"`
	DailyRate          float64 `json:"dailyRate"`
	QueueWaitWeeks     float64 `json:"queueWaitWeeks"`
	DaysAlreadyInQueue int     `json:"daysAlreadyInQueue"`
	LetterImpactDays   int     `json:"letterImpactDays"`
}

// FactorsConsidered is explanatory metadata returned with an estimate
type FactorsConsidered struct {
	QueueTime        int            `json:"queueTime"` // days already waited
	DaysRemaining    int            `json:"daysRemaining"`
	TotalJourneyDays int            `json:"totalJourneyDays"`
	Letter           string         `json:"letter"`
	LetterPriority   LetterPriority `json:"letterPriority"`
	ProcessingImpact LetterImpact   `json:"processingImpact"`
}

// EstimateResult is the full queue-position estimate
type EstimateResult struct {
	RequestID       string            `json:"requestId,omitempty"`
	CaseNumber      string            `json:"caseNumber,omitempty"`
	SubmitDate      string            `json:"submitDate"`
	Letter          string            `json:"employerFirstLetter"`
	CompletionDate  string            `json:"estimatedCompletionDate"`
	UpperBoundDate  string            `json:"upperBoundDate"`
	EstimatedDays   int               `json:"estimatedDays"` // total journey
	RemainingDays   int               `json:"remainingDays"`
	UpperBoundDays  int               `json:"upperBoundDays"`
	QueueAnalysis   QueueAnalysis     `json:"queueAnalysis"`
	Factors         FactorsConsidered `json:"factorsConsidered"`
	ConfidenceLevel float64           `json:"confidenceLevel"`
}

// SimpleEstimateResult is the percentile-only estimate. It is a separate
// shape on purpose: the two modes produce different numbers for the same
// input and must never be conflated.
type SimpleEstimateResult struct {
	SubmitDate      string  `json:"submitDate"`
	CompletionDate  string  `json:"estimatedCompletionDate"` // submitDate + p50
	UpperBoundDate  string  `json:"upperBoundDate"`          // submitDate + p80
	MedianDays      int     `json:"medianDays"`
	UpperBoundDays  int     `json:"upperBoundDays"`
	ConfidenceLevel float64 `json:"confidenceLevel"`
}
