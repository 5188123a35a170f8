package client

import (
	"fmt"
	"math"
	"time"
)

// SentimentPoint is one day of the server's trends series.
type SentimentPoint struct {
	Date            string         `json:"date"`
	MoodAvg         float64        `json:"mood_avg"`
	ProductivityAvg float64        `json:"productivity_avg"`
	CombinedAvg     float64        `json:"combined_avg"`
	EnergyScore     float64        `json:"energy_score"`
	SentimentScore  float64        `json:"sentiment_score"`
	SentimentCounts map[string]int `json:"sentiment_counts"`
}

// DisplayPoint is one chart-ready bucket after display aggregation.
type DisplayPoint struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// DisplaySeries re-buckets a daily series for charting. The policy depends
// on the range: 7d keeps each day with a weekday label, 30d collapses the
// days into chunks of seven labelled "Week N", and 6mo/1y group by calendar
// month (1y adds a two-digit year to disambiguate months across the wrap).
// Bucket scores are the mean of the member days' combined averages, rounded
// to one decimal. The input slice is never modified.
func DisplaySeries(series []SentimentPoint, timeRange string) []DisplayPoint {
	if len(series) == 0 {
		return []DisplayPoint{}
	}

	switch timeRange {
	case "7d":
		points := make([]DisplayPoint, 0, len(series))
		for _, p := range series {
			points = append(points, DisplayPoint{
				Label: weekdayLabel(p.Date),
				Score: round1(p.CombinedAvg),
			})
		}
		return points
	case "30d":
		points := make([]DisplayPoint, 0, (len(series)+6)/7)
		for start := 0; start < len(series); start += 7 {
			end := start + 7
			if end > len(series) {
				end = len(series)
			}
			chunk := series[start:end]
			var sum float64
			for _, p := range chunk {
				sum += p.CombinedAvg
			}
			score := 0.0
			if len(chunk) > 0 {
				score = sum / float64(len(chunk))
			}
			points = append(points, DisplayPoint{
				Label: fmt.Sprintf("Week %d", start/7+1),
				Score: round1(score),
			})
		}
		return points
	default:
		return monthlySeries(series, timeRange == "1y" || timeRange == "12mo")
	}
}

// monthlySeries groups days by calendar month in first-appearance order.
func monthlySeries(series []SentimentPoint, withYear bool) []DisplayPoint {
	type bucket struct {
		label string
		sum   float64
		count int
	}
	var order []string
	buckets := make(map[string]*bucket)
	for _, p := range series {
		day, err := time.Parse("2006-01-02", p.Date)
		if err != nil {
			continue
		}
		key := day.Format("2006-01")
		b, ok := buckets[key]
		if !ok {
			label := day.Format("Jan")
			if withYear {
				label = day.Format("Jan 06")
			}
			b = &bucket{label: label}
			buckets[key] = b
			order = append(order, key)
		}
		b.sum += p.CombinedAvg
		b.count++
	}

	points := make([]DisplayPoint, 0, len(order))
	for _, key := range order {
		b := buckets[key]
		points = append(points, DisplayPoint{
			Label: b.label,
			Score: round1(b.sum / float64(b.count)),
		})
	}
	return points
}

func weekdayLabel(date string) string {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return day.Format("Mon")
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
