package services

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/trendduel/trendduel-ai-go/internal/config"
	"github.com/trendduel/trendduel-ai-go/internal/models"
)

// PatternAnalyzer detects recurring calendar alignment in a keyword's
// historical peaks. Candidate cycles are checked in strict priority order
// (annual, quarterly, monthly, weekly) and the first cycle whose bucket
// consistency clears its threshold wins. Annual goes first deliberately:
// seasonal and business keywords are the common case and must not be
// misclassified as higher-frequency noise. When nothing clears its bar the
// classification is event-driven, which intentionally carries no predicted
// next date.
type PatternAnalyzer struct {
	cfg    *config.PatternConfig
	logger *logrus.Logger
}

// NewPatternAnalyzer creates a new pattern analyzer.
func NewPatternAnalyzer(cfg *config.PatternConfig, logger *logrus.Logger) *PatternAnalyzer {
	return &PatternAnalyzer{cfg: cfg, logger: logger}
}

// Analyze classifies the peak history for one keyword. asOf anchors the
// next-occurrence projection so the result is a pure function of its inputs;
// permuting the peak list never changes the outcome because peaks are sorted
// before any bucketing.
func (pa *PatternAnalyzer) Analyze(keyword string, peaks []models.HistoricalPeak, asOf time.Time) *models.PatternAnalysis {
	if len(peaks) < 2 {
		return &models.PatternAnalysis{
			Keyword:     keyword,
			PatternType: models.PatternNone,
			Frequency:   "insufficient history",
			Description: "Not enough recorded peaks to classify a pattern.",
		}
	}

	sorted := make([]models.HistoricalPeak, len(peaks))
	copy(sorted, peaks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	dates := make([]time.Time, len(sorted))
	for i, p := range sorted {
		dates[i] = p.Date
	}

	checks := []func(string, []time.Time, time.Time) *models.PatternAnalysis{
		pa.checkAnnual,
		pa.checkQuarterly,
		pa.checkMonthly,
		pa.checkWeekly,
	}
	for _, check := range checks {
		if analysis := check(keyword, dates, asOf); analysis != nil {
			pa.logger.WithFields(logrus.Fields{
				"keyword":      keyword,
				"pattern_type": analysis.PatternType,
				"confidence":   analysis.Confidence,
			}).Debug("Pattern detected")
			return analysis
		}
	}

	return pa.eventDriven(keyword, dates)
}

// checkAnnual buckets peaks by calendar month.
func (pa *PatternAnalyzer) checkAnnual(keyword string, dates []time.Time, asOf time.Time) *models.PatternAnalysis {
	if len(dates) < pa.cfg.AnnualMinPeaks {
		return nil
	}

	counts := make(map[int]int)
	for _, d := range dates {
		counts[int(d.Month())]++
	}
	month, consistency := dominantBucket(counts, len(dates))
	if consistency < pa.cfg.AnnualConsistency {
		return nil
	}

	occurrences := datesInMonth(dates, time.Month(month))
	meanDay := meanDayOfMonth(occurrences)
	confidence := math.Round(consistency * 100)

	next := time.Date(asOf.Year(), time.Month(month), meanDay, 0, 0, 0, 0, time.UTC)
	if !next.After(asOf) {
		next = next.AddDate(1, 0, 0)
	}

	return &models.PatternAnalysis{
		Keyword:               keyword,
		PatternType:           models.PatternAnnual,
		Confidence:            confidence,
		Frequency:             fmt.Sprintf("every %s", time.Month(month)),
		HistoricalOccurrences: occurrences,
		NextPredicted: &models.PredictedPeak{
			Date:       next,
			RangeStart: next.AddDate(0, 0, -7),
			RangeEnd:   next.AddDate(0, 0, 7),
			Confidence: confidence,
		},
		PatternStrength: consistency,
		Description: fmt.Sprintf("Peaks recur in %s in %.0f%% of recorded years.",
			time.Month(month), consistency*100),
	}
}

// checkQuarterly buckets peaks by week-of-quarter.
func (pa *PatternAnalyzer) checkQuarterly(keyword string, dates []time.Time, asOf time.Time) *models.PatternAnalysis {
	if len(dates) < pa.cfg.QuarterlyMinPeaks {
		return nil
	}

	counts := make(map[int]int)
	for _, d := range dates {
		counts[weekOfQuarter(d)]++
	}
	week, consistency := dominantBucket(counts, len(dates))
	if consistency < pa.cfg.QuarterlyConsistency {
		return nil
	}

	confidence := math.Round(consistency * 100)
	next := nextQuarterWeek(asOf, week)

	return &models.PatternAnalysis{
		Keyword:               keyword,
		PatternType:           models.PatternQuarterly,
		Confidence:            confidence,
		Frequency:             fmt.Sprintf("week %d of each quarter", week+1),
		HistoricalOccurrences: append([]time.Time(nil), dates...),
		NextPredicted: &models.PredictedPeak{
			Date:       next,
			RangeStart: next.AddDate(0, 0, -3),
			RangeEnd:   next.AddDate(0, 0, 3),
			Confidence: confidence,
		},
		PatternStrength: consistency,
		Description: fmt.Sprintf("Peaks cluster in week %d of the quarter with %.0f%% consistency.",
			week+1, consistency*100),
	}
}

// checkMonthly finds the day-of-month window (center ± tolerance, circular
// over the month) holding the largest share of peaks.
func (pa *PatternAnalyzer) checkMonthly(keyword string, dates []time.Time, asOf time.Time) *models.PatternAnalysis {
	if len(dates) < pa.cfg.MonthlyMinPeaks {
		return nil
	}

	tolerance := pa.cfg.MonthlyDayTolerance
	bestDay, bestCount := 0, 0
	for center := 1; center <= 31; center++ {
		count := 0
		for _, d := range dates {
			if circularDayDistance(d.Day(), center) <= tolerance {
				count++
			}
		}
		if count > bestCount {
			bestCount = count
			bestDay = center
		}
	}

	consistency := float64(bestCount) / float64(len(dates))
	if consistency < pa.cfg.MonthlyConsistency {
		return nil
	}

	confidence := math.Round(consistency * 100)
	next := time.Date(asOf.Year(), asOf.Month(), bestDay, 0, 0, 0, 0, time.UTC)
	if !next.After(asOf) {
		next = next.AddDate(0, 1, 0)
	}

	return &models.PatternAnalysis{
		Keyword:               keyword,
		PatternType:           models.PatternMonthly,
		Confidence:            confidence,
		Frequency:             fmt.Sprintf("around day %d of each month", bestDay),
		HistoricalOccurrences: append([]time.Time(nil), dates...),
		NextPredicted: &models.PredictedPeak{
			Date:       next,
			RangeStart: next.AddDate(0, 0, -tolerance),
			RangeEnd:   next.AddDate(0, 0, tolerance),
			Confidence: confidence,
		},
		PatternStrength: consistency,
		Description: fmt.Sprintf("Peaks fall within %d days of day %d in %.0f%% of months.",
			tolerance, bestDay, consistency*100),
	}
}

// checkWeekly buckets peaks by day-of-week. The strictest consistency bar of
// the cycle ladder: high-frequency matches are cheap, so the evidence has to
// be strong.
func (pa *PatternAnalyzer) checkWeekly(keyword string, dates []time.Time, asOf time.Time) *models.PatternAnalysis {
	if len(dates) < pa.cfg.WeeklyMinPeaks {
		return nil
	}

	counts := make(map[int]int)
	for _, d := range dates {
		counts[int(d.Weekday())]++
	}
	weekday, consistency := dominantBucket(counts, len(dates))
	if consistency < pa.cfg.WeeklyConsistency {
		return nil
	}

	confidence := math.Round(consistency * 100)
	next := asOf.AddDate(0, 0, 1)
	for int(next.Weekday()) != weekday {
		next = next.AddDate(0, 0, 1)
	}
	next = time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, time.UTC)

	return &models.PatternAnalysis{
		Keyword:               keyword,
		PatternType:           models.PatternWeekly,
		Confidence:            confidence,
		Frequency:             fmt.Sprintf("every %s", time.Weekday(weekday)),
		HistoricalOccurrences: append([]time.Time(nil), dates...),
		NextPredicted: &models.PredictedPeak{
			Date:       next,
			RangeStart: next.AddDate(0, 0, -1),
			RangeEnd:   next.AddDate(0, 0, 1),
			Confidence: confidence,
		},
		PatternStrength: consistency,
		Description: fmt.Sprintf("Peaks land on a %s in %.0f%% of occurrences.",
			time.Weekday(weekday), consistency*100),
	}
}

// eventDriven is the fallback when no cycle clears its bar. The coefficient of
// variation of inter-peak intervals is reported as an irregularity score, and
// no next date is predicted: the absence of a prediction is the signal.
func (pa *PatternAnalyzer) eventDriven(keyword string, dates []time.Time) *models.PatternAnalysis {
	intervals := make([]float64, 0, len(dates)-1)
	for i := 1; i < len(dates); i++ {
		intervals = append(intervals, dates[i].Sub(dates[i-1]).Hours()/24)
	}
	irregularity := coefficientOfVariation(intervals)

	return &models.PatternAnalysis{
		Keyword:               keyword,
		PatternType:           models.PatternEventDriven,
		Confidence:            math.Round(math.Max(0, 1-irregularity) * 100),
		Frequency:             "irregular",
		HistoricalOccurrences: append([]time.Time(nil), dates...),
		PatternStrength:       irregularity,
		Description: fmt.Sprintf("No calendar cycle detected; inter-peak interval irregularity %.2f.",
			irregularity),
	}
}

// dominantBucket returns the bucket with the highest count and its share of
// the total. Ties resolve to the lowest bucket key to keep results stable.
func dominantBucket(counts map[int]int, total int) (bucket int, share float64) {
	keys := make([]int, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	best := -1
	for _, k := range keys {
		if counts[k] > best {
			best = counts[k]
			bucket = k
		}
	}
	return bucket, float64(best) / float64(total)
}

func datesInMonth(dates []time.Time, month time.Month) []time.Time {
	var out []time.Time
	for _, d := range dates {
		if d.Month() == month {
			out = append(out, d)
		}
	}
	return out
}

func meanDayOfMonth(dates []time.Time) int {
	if len(dates) == 0 {
		return 15
	}
	sum := 0
	for _, d := range dates {
		sum += d.Day()
	}
	day := int(math.Round(float64(sum) / float64(len(dates))))
	if day < 1 {
		day = 1
	}
	if day > 28 {
		day = 28
	}
	return day
}

func weekOfQuarter(d time.Time) int {
	quarterStart := time.Date(d.Year(), time.Month(3*((int(d.Month())-1)/3)+1), 1, 0, 0, 0, 0, time.UTC)
	days := int(d.Sub(quarterStart).Hours() / 24)
	week := days / 7
	if week > 12 {
		week = 12
	}
	return week
}

func nextQuarterWeek(asOf time.Time, week int) time.Time {
	quarterStart := time.Date(asOf.Year(), time.Month(3*((int(asOf.Month())-1)/3)+1), 1, 0, 0, 0, 0, time.UTC)
	// Mid-week of the target bucket.
	candidate := quarterStart.AddDate(0, 0, week*7+3)
	if candidate.After(asOf) {
		return candidate
	}
	return quarterStart.AddDate(0, 3, 0).AddDate(0, 0, week*7+3)
}

func circularDayDistance(a, b int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	// A month is at most 31 days; wrap distance across the boundary.
	if wrap := 31 - d; wrap < d {
		return wrap
	}
	return d
}
