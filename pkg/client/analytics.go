package client

import (
	"context"
	"net/http"
	"net/url"
)

// TrendsResponse is the server's daily mood-trend series.
type TrendsResponse struct {
	Range  string           `json:"range"`
	Series []SentimentPoint `json:"series"`
	TZ     string           `json:"tz"`
}

// SummaryResponse aggregates a range into averages, streaks and highlights.
type SummaryResponse struct {
	Range        string             `json:"range"`
	Averages     SummaryAverages    `json:"averages"`
	SentimentPct map[string]int     `json:"sentiment_pct"`
	Correlations map[string]float64 `json:"correlations"`
	Streaks      SummaryStreaks     `json:"streaks"`
	Highlights   SummaryHighlights  `json:"highlights"`
	TotalEntries int                `json:"total_entries"`
}

type SummaryAverages struct {
	Mood         float64 `json:"mood"`
	Productivity float64 `json:"productivity"`
	Combined     float64 `json:"combined"`
	Energy       float64 `json:"energy"`
}

type SummaryStreaks struct {
	Current int `json:"current"`
	Best    int `json:"best"`
}

type SummaryHighlights struct {
	BestDay  *SentimentPoint `json:"best_day"`
	ToughDay *SentimentPoint `json:"tough_day"`
}

// Trends fetches the gap-filled daily series for a user and range
// ("7d", "30d", "6mo", "1y").
func (c *Client) Trends(ctx context.Context, userUID, timeRange string) (TrendsResponse, error) {
	var response TrendsResponse
	err := c.do(ctx, http.MethodGet, "/api/analytics/trends?"+analyticsQuery(userUID, timeRange), nil, &response)
	return response, err
}

// Summary fetches the aggregate statistics for a user and range.
func (c *Client) Summary(ctx context.Context, userUID, timeRange string) (SummaryResponse, error) {
	var response SummaryResponse
	err := c.do(ctx, http.MethodGet, "/api/analytics/summary?"+analyticsQuery(userUID, timeRange), nil, &response)
	return response, err
}

func analyticsQuery(userUID, timeRange string) string {
	values := url.Values{}
	values.Set("user_uid", userUID)
	if timeRange != "" {
		values.Set("date_range", timeRange)
	}
	return values.Encode()
}
