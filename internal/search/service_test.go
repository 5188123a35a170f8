package search

import (
	"errors"
	"testing"
)

type fakeBackend struct {
	healthy bool
	results []Result
	total   int
	err     error
	indexed []JournalRecord
	deleted []string
}

func (f *fakeBackend) Healthy() bool { return f.healthy }

func (f *fakeBackend) Search(q Query) ([]Result, int, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.results, f.total, nil
}

func (f *fakeBackend) IndexJournal(rec JournalRecord) error {
	f.indexed = append(f.indexed, rec)
	return nil
}

func (f *fakeBackend) IndexJournals(recs []JournalRecord) error {
	f.indexed = append(f.indexed, recs...)
	return nil
}

func (f *fakeBackend) DeleteJournal(id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func TestServiceSearchPrimary(t *testing.T) {
	backend := &fakeBackend{
		healthy: true,
		results: []Result{{ID: "j1", UserUID: "u1", Title: "Morning run"}},
		total:   1,
	}
	svc := NewService(backend, nil)

	resp := svc.Search(Query{Text: "run", UserUID: "u1"})
	if resp.Total != 1 || len(resp.Results) != 1 {
		t.Fatalf("response = %+v, want the backend hit", resp)
	}
	if resp.Query != "run" {
		t.Errorf("query echo = %q, want %q", resp.Query, "run")
	}
}

func TestServiceSearchUnhealthyBackendWithoutFallback(t *testing.T) {
	backend := &fakeBackend{healthy: false}
	svc := NewService(backend, nil)

	resp := svc.Search(Query{Text: "run"})
	if resp.Results == nil {
		t.Fatal("results must be non-nil even when empty")
	}
	if len(resp.Results) != 0 || resp.Total != 0 {
		t.Errorf("response = %+v, want empty", resp)
	}
}

func TestServiceSearchBackendError(t *testing.T) {
	backend := &fakeBackend{healthy: true, err: errors.New("boom")}
	svc := NewService(backend, nil)

	resp := svc.Search(Query{Text: "run"})
	if len(resp.Results) != 0 || resp.Total != 0 {
		t.Errorf("response = %+v, want empty after backend error", resp)
	}
}

func TestServiceSearchNilBackend(t *testing.T) {
	svc := NewService(nil, nil)

	resp := svc.Search(Query{Text: "run"})
	if resp.Results == nil || len(resp.Results) != 0 {
		t.Errorf("response = %+v, want empty non-nil results", resp)
	}
}

func TestServiceIndexSkipsUnhealthyBackend(t *testing.T) {
	backend := &fakeBackend{healthy: false}
	svc := NewService(backend, nil)

	svc.IndexJournal(JournalRecord{ID: "j1"})
	svc.DeleteJournal("j1")

	if len(backend.indexed) != 0 || len(backend.deleted) != 0 {
		t.Errorf("unhealthy backend received writes: %+v", backend)
	}
}
