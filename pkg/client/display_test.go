package client

import (
	"fmt"
	"math"
	"reflect"
	"testing"
	"time"
)

func dailySeries(start time.Time, scores []float64) []SentimentPoint {
	series := make([]SentimentPoint, len(scores))
	for i, score := range scores {
		series[i] = SentimentPoint{
			Date:        start.AddDate(0, 0, i).Format("2006-01-02"),
			CombinedAvg: score,
		}
	}
	return series
}

func TestDisplaySeriesWeek(t *testing.T) {
	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC) // a Monday
	series := dailySeries(start, []float64{5, 6.24, 0, 7.5, 8, 3.33, 9})

	points := DisplaySeries(series, "7d")
	if len(points) != len(series) {
		t.Fatalf("got %d points, want %d", len(points), len(series))
	}

	wantLabels := []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
	for i, p := range points {
		if p.Label != wantLabels[i] {
			t.Errorf("point %d: label = %q, want %q", i, p.Label, wantLabels[i])
		}
	}
	if points[1].Score != 6.2 {
		t.Errorf("score = %v, want 6.2", points[1].Score)
	}
}

func TestDisplaySeriesMonthChunks(t *testing.T) {
	cases := []struct {
		days int
		want int
	}{
		{30, 5},
		{29, 5},
		{28, 4},
		{7, 1},
		{1, 1},
	}
	start := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d_days", tc.days), func(t *testing.T) {
			scores := make([]float64, tc.days)
			for i := range scores {
				scores[i] = float64(i%10) + 0.37
			}
			series := dailySeries(start, scores)

			points := DisplaySeries(series, "30d")
			if len(points) != tc.want {
				t.Fatalf("got %d chunks, want %d", len(points), tc.want)
			}

			for i, p := range points {
				wantLabel := fmt.Sprintf("Week %d", i+1)
				if p.Label != wantLabel {
					t.Errorf("chunk %d: label = %q, want %q", i, p.Label, wantLabel)
				}
				lo, hi := i*7, (i+1)*7
				if hi > len(scores) {
					hi = len(scores)
				}
				var sum float64
				for _, s := range scores[lo:hi] {
					sum += s
				}
				want := math.Round(sum/float64(hi-lo)*10) / 10
				if math.Abs(p.Score-want) > 1e-6 {
					t.Errorf("chunk %d: score = %v, want %v", i, p.Score, want)
				}
			}
		})
	}
}

func TestDisplaySeriesMonthlyGrouping(t *testing.T) {
	// Spans a year boundary so the 1y variant needs the year suffix.
	start := time.Date(2024, 11, 20, 0, 0, 0, 0, time.UTC)
	scores := make([]float64, 75)
	for i := range scores {
		scores[i] = 6
	}
	series := dailySeries(start, scores)

	halfYear := DisplaySeries(series, "6mo")
	wantShort := []string{"Nov", "Dec", "Jan", "Feb"}
	if len(halfYear) != len(wantShort) {
		t.Fatalf("6mo: got %d groups, want %d", len(halfYear), len(wantShort))
	}
	for i, p := range halfYear {
		if p.Label != wantShort[i] {
			t.Errorf("6mo group %d: label = %q, want %q", i, p.Label, wantShort[i])
		}
		if p.Score != 6 {
			t.Errorf("6mo group %d: score = %v, want 6", i, p.Score)
		}
	}

	fullYear := DisplaySeries(series, "1y")
	wantYear := []string{"Nov 24", "Dec 24", "Jan 25", "Feb 25"}
	for i, p := range fullYear {
		if p.Label != wantYear[i] {
			t.Errorf("1y group %d: label = %q, want %q", i, p.Label, wantYear[i])
		}
	}
}

func TestDisplaySeriesIdempotent(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	series := dailySeries(start, []float64{4.2, 0, 7.77, 5, 6, 8.1, 3, 2.5, 9})
	original := make([]SentimentPoint, len(series))
	copy(original, series)

	for _, timeRange := range []string{"7d", "30d", "6mo", "1y"} {
		first := DisplaySeries(series, timeRange)
		second := DisplaySeries(series, timeRange)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("%s: repeated calls disagree", timeRange)
		}
		if !reflect.DeepEqual(series, original) {
			t.Fatalf("%s: input series was modified", timeRange)
		}
	}
}

func TestDisplaySeriesEmpty(t *testing.T) {
	for _, timeRange := range []string{"7d", "30d", "6mo", "1y"} {
		points := DisplaySeries(nil, timeRange)
		if points == nil || len(points) != 0 {
			t.Errorf("%s: got %v, want empty slice", timeRange, points)
		}
	}
}
