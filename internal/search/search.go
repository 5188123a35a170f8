// Package search provides full-text search over journal entries, backed by
// Meilisearch with a PostgreSQL FTS fallback.
package search

// Result is a single search hit returned to the caller.
type Result struct {
	ID        string `json:"id"`
	UserUID   string `json:"user_uid"`
	Title     string `json:"title"`
	Snippet   string `json:"snippet"`
	Sentiment string `json:"sentiment,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Query describes a search request.
type Query struct {
	Text    string
	UserUID string // empty = all users
	Limit   int
	Offset  int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// Backend is a searcher that also maintains its own index.
type Backend interface {
	Searcher
	IndexJournal(rec JournalRecord) error
	IndexJournals(recs []JournalRecord) error
	DeleteJournal(id string) error
}

// JournalRecord is the data we index for a journal entry.
type JournalRecord struct {
	ID          string `json:"id"`
	UserUID     string `json:"user_uid"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Sentiment   string `json:"sentiment"`
	CreatedAt   string `json:"created_at"`
}
