package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true — if Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search queries the journals table using plainto_tsquery and ts_rank, with
// ts_headline for snippets.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	where := "j.fts @@ plainto_tsquery('english', $1)"
	args := []any{q.Text}
	if q.UserUID != "" {
		where += " AND j.user_uid = $2"
		args = append(args, q.UserUID)
	}

	ctx := context.Background()

	countSQL := fmt.Sprintf("SELECT count(*) FROM journals j WHERE %s", where)
	var total int
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	dataSQL := fmt.Sprintf(`
		SELECT j.id, j.user_uid, j.title,
			ts_headline('english', coalesce(j.description, ''), plainto_tsquery('english', $1), 'MaxFragments=1,MaxWords=30') AS snippet,
			coalesce(j.sentiment, ''), to_char(j.created_at, 'YYYY-MM-DD"T"HH24:MI:SSOF')
		FROM journals j
		WHERE %s
		ORDER BY ts_rank(j.fts, plainto_tsquery('english', $1)) DESC
		LIMIT %d OFFSET %d`, where, limit, offset)

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.ID, &r.UserUID, &r.Title, &r.Snippet, &r.Sentiment, &r.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		results = append(results, r)
	}

	return results, total, rows.Err()
}

// LoadAllRecords returns all journal entries for full reindexing.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]JournalRecord, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, user_uid, title, coalesce(description, ''), coalesce(sentiment, ''),
			to_char(created_at, 'YYYY-MM-DD"T"HH24:MI:SSOF')
		FROM journals
	`)
	if err != nil {
		return nil, fmt.Errorf("load journals: %w", err)
	}
	defer rows.Close()

	records := make([]JournalRecord, 0)
	for rows.Next() {
		var rec JournalRecord
		if err := rows.Scan(&rec.ID, &rec.UserUID, &rec.Title, &rec.Description, &rec.Sentiment, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan journal: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journals: %w", err)
	}

	return records, nil
}
