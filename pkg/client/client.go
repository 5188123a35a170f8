// Package client is a Go client for the Reflecto API. It mirrors what the
// web frontend does: journal CRUD with a locally sorted cache, display
// re-bucketing of the sentiment series, and a serialized chat relay.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

// Entry is one journal record as returned by the API.
type Entry struct {
	ID            string  `json:"id"`
	UserUID       string  `json:"user_uid"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Mood          int     `json:"mood"`
	Productivity  int     `json:"productivity"`
	Sentiment     string  `json:"sentiment,omitempty"`
	PolarityScore float64 `json:"polarity_score"`
	Sarcasm       string  `json:"sarcasm,omitempty"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

// updatedTime parses the entry's updated_at. Malformed or missing timestamps
// sort as the zero time, so broken records sink to the end of a
// newest-first list instead of breaking the sort.
func (e Entry) updatedTime() time.Time {
	t, err := time.Parse(time.RFC3339, e.UpdatedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// JournalInput is the payload for creating or updating an entry.
type JournalInput struct {
	UserUID      string `json:"user_uid"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Mood         int    `json:"mood"`
	Productivity int    `json:"productivity"`
}

// ValidationError reports client-side input problems before any network call.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid journal input: " + strings.Join(e.Problems, "; ")
}

// APIError is a non-2xx response decoded from the server's error envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// NewWithHTTPClient uses the given http.Client, e.g. for tests.
func NewWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	c := New(baseURL)
	c.httpClient = httpClient
	return c
}

// ListJournals fetches all of a user's entries sorted newest-first by
// updated_at.
func (c *Client) ListJournals(ctx context.Context, userUID string) ([]Entry, error) {
	var response struct {
		Count    int     `json:"count"`
		Journals []Entry `json:"journals"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/journals/"+url.PathEscape(userUID), nil, &response); err != nil {
		return nil, err
	}
	entries := response.Journals
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].updatedTime().After(entries[j].updatedTime())
	})
	return entries, nil
}

// SaveJournal creates an entry, or updates one when editingID is non-empty.
// The server returns the full mutated record so callers can patch their local
// list by id without a follow-up fetch.
func (c *Client) SaveJournal(ctx context.Context, input JournalInput, editingID string) (Entry, error) {
	if err := validateInput(input); err != nil {
		return Entry{}, err
	}

	method := http.MethodPost
	path := "/api/journals/"
	if editingID != "" {
		method = http.MethodPut
		path = "/api/journals/" + url.PathEscape(editingID)
	}

	var response struct {
		Success bool   `json:"success"`
		Journal Entry  `json:"journal"`
		Message string `json:"message"`
	}
	if err := c.do(ctx, method, path, input, &response); err != nil {
		return Entry{}, err
	}
	return response.Journal, nil
}

// DeleteJournal removes an entry by id. Deletion is immediate and
// irreversible.
func (c *Client) DeleteJournal(ctx context.Context, journalID string) error {
	return c.do(ctx, http.MethodDelete, "/api/journals/"+url.PathEscape(journalID), nil, nil)
}

func validateInput(input JournalInput) error {
	var problems []string
	if strings.TrimSpace(input.UserUID) == "" {
		problems = append(problems, "user_uid is required")
	}
	if strings.TrimSpace(input.Title) == "" {
		problems = append(problems, "title is required")
	}
	if strings.TrimSpace(input.Description) == "" {
		problems = append(problems, "description is required")
	}
	if input.Mood < 1 || input.Mood > 10 {
		problems = append(problems, "mood must be between 1 and 10")
	}
	if input.Productivity < 1 || input.Productivity > 10 {
		problems = append(problems, "productivity must be between 1 and 10")
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, target any) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var envelope struct {
			Code  string `json:"code"`
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil {
			apiErr.Code = envelope.Code
			apiErr.Message = envelope.Error
		}
		return apiErr
	}

	if target == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
