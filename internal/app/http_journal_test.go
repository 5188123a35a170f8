package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"reflecto/api/internal/store"
)

func postJSON(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestCreateJournalReturnsFullRecord(t *testing.T) {
	svc := newTestService(newFakeStore())
	handler := NewHTTPServer(svc, "*").Handler()

	rr := postJSON(t, handler, "/api/journals/", `{
		"user_uid": "u1",
		"title": "Morning pages",
		"description": "Felt grateful and calm after journaling.",
		"mood": 8,
		"productivity": 6
	}`)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rr.Code, rr.Body.String())
	}

	var response struct {
		Success bool               `json:"success"`
		Message string             `json:"message"`
		ID      string             `json:"id"`
		Journal store.JournalEntry `json:"journal"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if !response.Success || response.Message != "Journal entry added" {
		t.Errorf("envelope = %+v", response)
	}
	if response.ID == "" || response.ID != response.Journal.ID {
		t.Errorf("id mismatch: %q vs %q", response.ID, response.Journal.ID)
	}
	if response.Journal.Sentiment != "positive" {
		t.Errorf("sentiment = %q, want positive", response.Journal.Sentiment)
	}
	if response.Journal.Mood != 8 || response.Journal.Productivity != 6 {
		t.Errorf("scores = %d/%d", response.Journal.Mood, response.Journal.Productivity)
	}
}

func TestCreateJournalValidation(t *testing.T) {
	svc := newTestService(newFakeStore())
	handler := NewHTTPServer(svc, "*").Handler()

	cases := []struct {
		name string
		body string
	}{
		{"missing user_uid", `{"title":"t","description":"d","mood":5,"productivity":5}`},
		{"missing title", `{"user_uid":"u1","description":"d","mood":5,"productivity":5}`},
		{"missing description", `{"user_uid":"u1","title":"t","mood":5,"productivity":5}`},
		{"mood too low", `{"user_uid":"u1","title":"t","description":"d","mood":0,"productivity":5}`},
		{"mood too high", `{"user_uid":"u1","title":"t","description":"d","mood":11,"productivity":5}`},
		{"productivity too low", `{"user_uid":"u1","title":"t","description":"d","mood":5,"productivity":0}`},
		{"title too long", fmt.Sprintf(`{"user_uid":"u1","title":%q,"description":"d","mood":5,"productivity":5}`, strings.Repeat("x", 201))},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := postJSON(t, handler, "/api/journals/", tc.body)
			if rr.Code != http.StatusUnprocessableEntity {
				t.Errorf("status = %d, want 422: %s", rr.Code, rr.Body.String())
			}
			var response map[string]any
			if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
				t.Fatalf("parse response: %v", err)
			}
			if response["code"] != "VALIDATION_ERROR" {
				t.Errorf("code = %v", response["code"])
			}
		})
	}
}

func TestListJournalsSortedNewestFirst(t *testing.T) {
	fs := newFakeStore()
	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		fs.journals[fmt.Sprintf("jrnl_%d", i)] = store.JournalEntry{
			ID:        fmt.Sprintf("jrnl_%d", i),
			UserUID:   "u1",
			Title:     fmt.Sprintf("entry %d", i),
			CreatedAt: now.Add(time.Duration(i) * time.Hour),
		}
	}
	fs.journals["other"] = store.JournalEntry{ID: "other", UserUID: "u2", CreatedAt: now}

	svc := newTestService(fs)
	handler := NewHTTPServer(svc, "*").Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/journals/u1", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}

	var response struct {
		Count    int                  `json:"count"`
		Journals []store.JournalEntry `json:"journals"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if response.Count != 3 || len(response.Journals) != 3 {
		t.Fatalf("count = %d, journals = %d, want 3", response.Count, len(response.Journals))
	}
	for i := 1; i < len(response.Journals); i++ {
		if response.Journals[i].CreatedAt.After(response.Journals[i-1].CreatedAt) {
			t.Errorf("journals not sorted newest-first at index %d", i)
		}
	}
	for _, entry := range response.Journals {
		if entry.UserUID != "u1" {
			t.Errorf("journal %s belongs to %s", entry.ID, entry.UserUID)
		}
	}
}

func TestListJournalsEmptyUser(t *testing.T) {
	svc := newTestService(newFakeStore())
	handler := NewHTTPServer(svc, "*").Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/journals/ghost", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var response struct {
		Count    int               `json:"count"`
		Journals []json.RawMessage `json:"journals"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if response.Count != 0 || response.Journals == nil {
		t.Errorf("want count 0 with non-null journals array, got %s", rr.Body.String())
	}
}

func TestUpdateJournal(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs)
	handler := NewHTTPServer(svc, "*").Handler()

	created := postJSON(t, handler, "/api/journals/", `{
		"user_uid": "u1",
		"title": "Draft",
		"description": "It was okay.",
		"mood": 5,
		"productivity": 5
	}`)
	var createResp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(created.Body.Bytes(), &createResp); err != nil {
		t.Fatalf("parse create response: %v", err)
	}

	req := httptest.NewRequest(http.MethodPut, "/api/journals/"+createResp.ID, strings.NewReader(`{
		"user_uid": "u1",
		"title": "Better day",
		"description": "Actually it turned out great, really happy.",
		"mood": 9,
		"productivity": 8
	}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	var response struct {
		Success bool               `json:"success"`
		Message string             `json:"message"`
		Journal store.JournalEntry `json:"journal"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if response.Message != "Journal updated successfully" {
		t.Errorf("message = %q", response.Message)
	}
	if response.Journal.Mood != 9 || response.Journal.Sentiment != "positive" {
		t.Errorf("journal = %+v", response.Journal)
	}
}

func TestUpdateJournalNotFound(t *testing.T) {
	svc := newTestService(newFakeStore())
	handler := NewHTTPServer(svc, "*").Handler()

	req := httptest.NewRequest(http.MethodPut, "/api/journals/missing", strings.NewReader(`{
		"user_uid": "u1",
		"title": "t",
		"description": "d",
		"mood": 5,
		"productivity": 5
	}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
	var response map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if response["error"] != "Journal not found" {
		t.Errorf("error = %v", response["error"])
	}
}

func TestDeleteJournal(t *testing.T) {
	fs := newFakeStore()
	fs.journals["jrnl_x"] = store.JournalEntry{ID: "jrnl_x", UserUID: "u1", CreatedAt: time.Now()}
	svc := newTestService(fs)
	handler := NewHTTPServer(svc, "*").Handler()

	req := httptest.NewRequest(http.MethodDelete, "/api/journals/jrnl_x", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	if _, ok := fs.journals["jrnl_x"]; ok {
		t.Error("journal still present after delete")
	}

	// Deleting again is a 404.
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/journals/jrnl_x", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rr.Code)
	}
}
