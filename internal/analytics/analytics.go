// Package analytics builds the mood trend series and summary statistics from
// a user's journal entries.
package analytics

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"reflecto/api/internal/sentiment"
	"reflecto/api/internal/store"
)

// SentimentCounts tallies entry sentiment labels for one day.
type SentimentCounts struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
	Total    int `json:"total"`
}

// Point is one day's aggregated mood/energy statistics. Days without entries
// are present in the series with zeroed values so charts keep their x-axis.
type Point struct {
	Date            string          `json:"date"`
	MoodAvg         float64         `json:"mood_avg"`
	ProductivityAvg float64         `json:"productivity_avg"`
	CombinedAvg     float64         `json:"combined_avg"`
	EnergyScore     float64         `json:"energy_score"`
	SentimentScore  float64         `json:"sentiment_score"`
	SentimentCounts SentimentCounts `json:"sentiment_counts"`
}

// Trends is the /api/analytics/trends payload.
type Trends struct {
	Range  string  `json:"range"`
	Series []Point `json:"series"`
	TZ     string  `json:"tz"`
}

// Summary is the /api/analytics/summary payload.
type Summary struct {
	Range        string             `json:"range"`
	Averages     Averages           `json:"averages"`
	SentimentPct map[string]int     `json:"sentiment_pct"`
	Correlations map[string]float64 `json:"correlations"`
	Streaks      Streaks            `json:"streaks"`
	Highlights   Highlights         `json:"highlights"`
	TotalEntries int                `json:"total_entries"`
}

type Averages struct {
	Mood         float64 `json:"mood"`
	Productivity float64 `json:"productivity"`
	Combined     float64 `json:"combined"`
	Energy       float64 `json:"energy"`
}

type Streaks struct {
	Current int `json:"current"`
	Best    int `json:"best"`
}

type Highlights struct {
	BestDay  *Point `json:"best_day"`
	ToughDay *Point `json:"tough_day"`
}

// Engine buckets journal entries into local calendar days.
type Engine struct {
	loc *time.Location
}

func NewEngine(loc *time.Location) *Engine {
	return &Engine{loc: loc}
}

func (e *Engine) Location() *time.Location {
	return e.loc
}

// RangeStart returns local midnight at the start of the requested range.
func (e *Engine) RangeStart(rangeKey string, now time.Time) (time.Time, error) {
	local := now.In(e.loc)
	days := 0
	switch rangeKey {
	case "7d":
		days = 6
	case "30d":
		days = 29
	case "6mo":
		days = 182
	case "1y", "12mo":
		days = 364
	default:
		return time.Time{}, fmt.Errorf("invalid date_range parameter")
	}
	start := local.AddDate(0, 0, -days)
	return time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, e.loc), nil
}

func sentimentScore(label string) float64 {
	switch label {
	case sentiment.LabelPositive:
		return 9.0
	case sentiment.LabelNegative:
		return 3.0
	default:
		return 6.0
	}
}

// overall is the combined well-being score: mood-weighted with productivity
// and sentiment, discounted slightly when the entry reads as sarcastic.
func overall(mood, prod, sentimentVal float64, sarcasm string) float64 {
	eff := sentimentVal
	if sarcasm == sentiment.Sarcastic {
		eff *= 0.9
	}
	score := 0.5*mood + 0.3*prod + 0.2*eff
	return round2(math.Max(0, math.Min(10, score)))
}

func energy(mood, prod float64) float64 {
	return round2(mood * prod / 10.0)
}

// BuildSeries groups entries by local calendar day between the range start
// and now, averaging per-day scores and gap-filling empty days.
func (e *Engine) BuildSeries(entries []store.JournalEntry, rangeKey string, now time.Time) ([]Point, error) {
	start, err := e.RangeStart(rangeKey, now)
	if err != nil {
		return nil, err
	}
	end := now.In(e.loc)

	type dayAccum struct {
		mood, prod, combined, energy, sentiment float64
		counts                                  SentimentCounts
		n                                       int
	}
	days := make(map[string]*dayAccum)

	for _, entry := range entries {
		local := entry.CreatedAt.In(e.loc)
		key := local.Format("2006-01-02")

		mood := float64(entry.Mood)
		prod := float64(entry.Productivity)
		label := strings.ToLower(entry.Sentiment)
		if label == "" {
			label = sentiment.LabelNeutral
		}
		score := sentimentScore(label)

		accum := days[key]
		if accum == nil {
			accum = &dayAccum{}
			days[key] = accum
		}
		accum.mood += mood
		accum.prod += prod
		accum.combined += overall(mood, prod, score, strings.ToLower(entry.Sarcasm))
		accum.energy += energy(mood, prod)
		accum.sentiment += score
		accum.n++
		switch label {
		case sentiment.LabelPositive:
			accum.counts.Positive++
		case sentiment.LabelNegative:
			accum.counts.Negative++
		default:
			accum.counts.Neutral++
		}
		accum.counts.Total++
	}

	var series []Point
	for cursor := start; !dayAfter(cursor, end); cursor = cursor.AddDate(0, 0, 1) {
		key := cursor.Format("2006-01-02")
		point := Point{Date: key}
		if accum := days[key]; accum != nil {
			n := float64(accum.n)
			point.MoodAvg = round2(accum.mood / n)
			point.ProductivityAvg = round2(accum.prod / n)
			point.CombinedAvg = round2(accum.combined / n)
			point.EnergyScore = round2(accum.energy / n)
			point.SentimentScore = round2(accum.sentiment / n / 10.0) // scaled 0-1
			point.SentimentCounts = accum.counts
		}
		series = append(series, point)
	}
	if series == nil {
		series = []Point{}
	}
	return series, nil
}

// Summarize reduces a daily series into range-level statistics. Days with a
// zero combined score (no entries) are excluded from averages but still
// appear in streak and highlight calculations the same way the series shows
// them.
func (e *Engine) Summarize(series []Point, rangeKey string, now time.Time) Summary {
	var valid []Point
	totalEntries := 0
	positives := 0
	for _, point := range series {
		totalEntries += point.SentimentCounts.Total
		positives += point.SentimentCounts.Positive
		if point.CombinedAvg > 0 {
			valid = append(valid, point)
		}
	}

	averages := Averages{}
	if len(valid) > 0 {
		n := float64(len(valid))
		var mood, prod, combined, energySum float64
		for _, point := range valid {
			mood += point.MoodAvg
			prod += point.ProductivityAvg
			combined += point.CombinedAvg
			energySum += point.EnergyScore
		}
		averages = Averages{
			Mood:         round2(mood / n),
			Productivity: round2(prod / n),
			Combined:     round2(combined / n),
			Energy:       round2(energySum / n),
		}
	}

	sentimentPct := map[string]int{"positive": 0}
	if totalEntries > 0 {
		sentimentPct["positive"] = int(math.Round(100 * float64(positives) / float64(totalEntries)))
	}

	moods := make([]float64, 0, len(valid))
	prods := make([]float64, 0, len(valid))
	for _, point := range valid {
		moods = append(moods, point.MoodAvg)
		prods = append(prods, point.ProductivityAvg)
	}

	summary := Summary{
		Range:        rangeKey,
		Averages:     averages,
		SentimentPct: sentimentPct,
		Correlations: map[string]float64{"mood_vs_productivity": round2(correlation(moods, prods))},
		Streaks:      e.streaks(series, now),
		TotalEntries: totalEntries,
	}

	if len(series) > 0 {
		best, tough := series[0], series[0]
		for _, point := range series[1:] {
			if point.CombinedAvg > best.CombinedAvg {
				best = point
			}
			if point.CombinedAvg < tough.CombinedAvg {
				tough = point
			}
		}
		bestCopy, toughCopy := best, tough
		summary.Highlights = Highlights{BestDay: &bestCopy, ToughDay: &toughCopy}
	}

	return summary
}

// streaks computes the current run of consecutive journaled days ending
// today, and the best run anywhere in the range.
func (e *Engine) streaks(series []Point, now time.Time) Streaks {
	var dates []time.Time
	for _, point := range series {
		if point.SentimentCounts.Total == 0 {
			continue
		}
		day, err := time.ParseInLocation("2006-01-02", point.Date, e.loc)
		if err != nil {
			continue
		}
		dates = append(dates, day)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })

	local := now.In(e.loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, e.loc)

	current := 0
	for i, date := range dates {
		if date.Equal(today.AddDate(0, 0, -i)) {
			current++
		} else {
			break
		}
	}

	best, run := 0, 0
	for i := range dates {
		if i == 0 || dates[i].Equal(dates[i-1].AddDate(0, 0, -1)) {
			run++
			if run > best {
				best = run
			}
		} else {
			run = 1
		}
	}

	return Streaks{Current: current, Best: best}
}

// correlation is Pearson's r; 0 when undefined (fewer than two points or
// zero variance).
func correlation(xs, ys []float64) float64 {
	if len(xs) != len(ys) || len(xs) < 2 {
		return 0
	}
	n := float64(len(xs))
	var meanX, meanY float64
	for i := range xs {
		meanX += xs[i]
		meanY += ys[i]
	}
	meanX /= n
	meanY /= n

	var cov, varX, varY float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0
	}
	return cov / (math.Sqrt(varX) * math.Sqrt(varY))
}

func dayAfter(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC).After(time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
