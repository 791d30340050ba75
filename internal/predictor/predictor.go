package predictor

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/permupdate/permtrack/backend/internal/analytics"
	"github.com/permupdate/permtrack/backend/internal/metrics"
	"github.com/permupdate/permtrack/backend/internal/storage"
	"github.com/permupdate/permtrack/backend/internal/types"
	"github.com/rs/zerolog"
)

// ErrFutureSubmitDate is returned when the submission date lies in the
// future. It is a caller input error, not data unavailability.
var ErrFutureSubmitDate = errors.New("submission date cannot be in the future")

// Config carries the predictor tunables. The weights and margins encode
// empirical beliefs about the queue and are kept configurable so they can
// be recalibrated without code changes.
type Config struct {
	LetterWeight      float64 // share of intra-month order explained by the letter
	DayWeight         float64 // share explained by day of month
	UpperBoundMargin  float64 // pessimistic multiplier on remaining days
	DefaultWeeklyRate float64 // cases/week fallback
	RateWindowWeeks   int     // complete weeks averaged for the rate
	MinRateSamples    int     // minimum complete weeks before trusting the average
	ConfidenceLevel   float64 // reported literally, not fitted
}

// Predictor estimates completion dates from the accessor's aggregate
// snapshot. It is a pure function of its inputs plus that snapshot; the
// only side effect is the append-only audit record per call.
type Predictor struct {
	accessor *analytics.Accessor
	store    storage.Store
	metrics  *metrics.Metrics
	cfg      Config
	logger   zerolog.Logger
	now      func() time.Time
}

// New creates a new Predictor
func New(accessor *analytics.Accessor, store storage.Store, m *metrics.Metrics, cfg Config, logger zerolog.Logger) *Predictor {
	return &Predictor{
		accessor: accessor,
		store:    store,
		metrics:  m,
		cfg:      cfg,
		logger:   logger.With().Str("component", "predictor").Logger(),
		now:      time.Now,
	}
}

// Estimate computes the queue-position completion estimate for a case
// submitted on submitDate under the given employer first letter. The
// optional caseNumber is echoed into the audit trail only.
func (p *Predictor) Estimate(submitDate time.Time, letter, caseNumber string) (*types.EstimateResult, error) {
	normalized, ordinal, err := NormalizeLetter(letter)
	if err != nil {
		p.metrics.RecordInputError()
		return nil, err
	}

	today := dateOnly(p.now())
	submitDate = dateOnly(submitDate)
	if submitDate.After(today) {
		p.metrics.RecordInputError()
		return nil, ErrFutureSubmitDate
	}

	// Open the audit record before computing; the result is attached after.
	record := types.PredictionRequestRecord{
		DateKey:     types.DateKey(today),
		ID:          uuid.NewString(),
		SubmitDate:  types.DateKey(submitDate),
		Letter:      normalized,
		CaseNumber:  caseNumber,
		RequestedAt: p.now().UTC().Format(time.RFC3339),
	}
	recorded := true
	if err := p.store.SavePredictionRequest(record); err != nil {
		// The estimate is the primary contract; the audit trail is secondary.
		p.logger.Error().Err(err).Msg("failed to persist prediction request")
		p.metrics.RecordAuditWriteError()
		recorded = false
	}

	year, month := submitDate.Year(), submitDate.Month()

	// Every case still pending from an earlier submission month is assumed
	// processed before any case from the target month.
	casesBeforeMonth := p.accessor.SumStatusBeforeMonth(types.StatusPendingReview, year, month)

	// Within the month, order is modeled as mostly alphabetic with a small
	// day-of-month component.
	sameMonthTotal := p.accessor.MonthlyStatusCount(types.StatusPendingReview, year, month)
	positionFraction := p.cfg.LetterWeight*(float64(ordinal)/25.0) +
		p.cfg.DayWeight*(float64(submitDate.Day()-1)/30.0)
	sameMonthCases := float64(sameMonthTotal) * positionFraction

	queuePosition := float64(casesBeforeMonth) + sameMonthCases

	weeklyRate := p.weeklyRate(today)
	remainingDays := int(math.Round(7.0 * queuePosition / weeklyRate))

	// Informational only: remainingDays already measures from the front of
	// the current queue to the computed position, so elapsed time is never
	// subtracted from it.
	daysInQueue := int(today.Sub(submitDate).Hours() / 24)
	if daysInQueue < 0 {
		daysInQueue = 0
	}
	totalJourneyDays := daysInQueue + remainingDays

	// Fixed pessimistic margin. The percentile snapshot is a separate,
	// independent estimate and is never blended in here.
	upperBoundDays := int(math.Ceil(float64(remainingDays) * p.cfg.UpperBoundMargin))

	completionDate := today.AddDate(0, 0, remainingDays)
	upperBoundDate := today.AddDate(0, 0, upperBoundDays)

	result := &types.EstimateResult{
		RequestID:      record.ID,
		CaseNumber:     caseNumber,
		SubmitDate:     types.DateKey(submitDate),
		Letter:         normalized,
		CompletionDate: types.DateKey(completionDate),
		UpperBoundDate: types.DateKey(upperBoundDate),
		EstimatedDays:  totalJourneyDays,
		RemainingDays:  remainingDays,
		UpperBoundDays: upperBoundDays,
		QueueAnalysis: types.QueueAnalysis{
			CurrentBacklog:     p.accessor.CurrentBacklog(),
			QueuePosition:      int(math.Round(queuePosition)),
			WeeklyRate:         weeklyRate,
			DailyRate:          weeklyRate / 7.0,
			QueueWaitWeeks:     queuePosition / weeklyRate,
			DaysAlreadyInQueue: daysInQueue,
			LetterImpactDays:   p.letterImpactDays(ordinal, sameMonthTotal, weeklyRate),
		},
		Factors: types.FactorsConsidered{
			QueueTime:        daysInQueue,
			DaysRemaining:    remainingDays,
			TotalJourneyDays: totalJourneyDays,
			Letter:           normalized,
			LetterPriority:   LetterPriority(ordinal),
			ProcessingImpact: LetterImpact(ordinal),
		},
		ConfidenceLevel: p.cfg.ConfidenceLevel,
	}

	if recorded {
		err := p.store.AttachPredictionResult(record.DateKey, record.ID,
			result.CompletionDate, result.EstimatedDays, result.ConfidenceLevel)
		if err != nil {
			p.logger.Error().Err(err).Str("request_id", record.ID).Msg("failed to attach prediction result")
			p.metrics.RecordAuditWriteError()
		}
	}

	p.metrics.RecordPrediction()
	p.logger.Info().
		Str("request_id", record.ID).
		Str("submit_date", result.SubmitDate).
		Str("letter", normalized).
		Int("remaining_days", remainingDays).
		Str("completion_date", result.CompletionDate).
		Msg("prediction served")

	return result, nil
}

// EstimateFromPercentiles is the secondary, queue-position-independent
// estimate: completion = submitDate + p50, upper bound = submitDate + p80.
// It is deliberately a distinct operation with a distinct result shape.
func (p *Predictor) EstimateFromPercentiles(submitDate time.Time) (*types.SimpleEstimateResult, error) {
	today := dateOnly(p.now())
	submitDate = dateOnly(submitDate)
	if submitDate.After(today) {
		p.metrics.RecordInputError()
		return nil, ErrFutureSubmitDate
	}

	pt := p.accessor.LatestProcessingTimes()

	p.metrics.RecordPercentileEstimate()
	return &types.SimpleEstimateResult{
		SubmitDate:      types.DateKey(submitDate),
		CompletionDate:  types.DateKey(submitDate.AddDate(0, 0, pt.P50Days)),
		UpperBoundDate:  types.DateKey(submitDate.AddDate(0, 0, pt.P80Days)),
		MedianDays:      pt.P50Days,
		UpperBoundDays:  pt.P80Days,
		ConfidenceLevel: p.cfg.ConfidenceLevel,
	}, nil
}

// weeklyRate averages the last complete weeks of throughput. With fewer
// than MinRateSamples complete weeks the configured default applies; a
// rate is never derived from 0-2 samples.
func (p *Predictor) weeklyRate(today time.Time) float64 {
	totals := p.accessor.CompletedWeeklyTotals(today, p.cfg.RateWindowWeeks)
	if len(totals) < p.cfg.MinRateSamples {
		p.logger.Warn().
			Int("complete_weeks", len(totals)).
			Int("required", p.cfg.MinRateSamples).
			Float64("default_rate", p.cfg.DefaultWeeklyRate).
			Msg("insufficient weekly throughput samples, using default rate")
		p.metrics.RecordDefaultSubstituted("weekly_rate")
		return p.cfg.DefaultWeeklyRate
	}

	sum := 0
	for _, total := range totals {
		sum += total
	}
	rate := float64(sum) / float64(len(totals))
	if rate <= 0 {
		p.metrics.RecordDefaultSubstituted("weekly_rate")
		return p.cfg.DefaultWeeklyRate
	}
	return rate
}

// letterImpactDays expresses how many days the letter shifts the estimate
// relative to a mid-alphabet submission in the same month. Negative for
// early letters.
func (p *Predictor) letterImpactDays(ordinal, sameMonthTotal int, weeklyRate float64) int {
	shift := p.cfg.LetterWeight * (float64(ordinal)/25.0 - 0.5) * float64(sameMonthTotal)
	return int(math.Round(7.0 * shift / weeklyRate))
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
