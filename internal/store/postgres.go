package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, display_name, password_hash, created_at
		FROM users
		WHERE email=$1
	`, email).Scan(&user.ID, &user.Email, &user.DisplayName, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, display_name, password_hash, created_at
		FROM users
		WHERE id=$1
	`, userID).Scan(&user.ID, &user.Email, &user.DisplayName, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, user User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, display_name, password_hash)
		VALUES ($1, $2, $3, $4)
	`, user.ID, user.Email, user.DisplayName, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

const journalColumns = `id, user_uid, title, description, mood, productivity,
	sentiment, polarity_score, sarcasm, analysis, created_at, updated_at`

func scanJournal(row interface{ Scan(...any) error }) (JournalEntry, error) {
	var entry JournalEntry
	var sentiment, sarcasm sql.NullString
	var analysis []byte
	err := row.Scan(
		&entry.ID,
		&entry.UserUID,
		&entry.Title,
		&entry.Description,
		&entry.Mood,
		&entry.Productivity,
		&sentiment,
		&entry.PolarityScore,
		&sarcasm,
		&analysis,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		return JournalEntry{}, err
	}
	entry.Sentiment = sentiment.String
	entry.Sarcasm = sarcasm.String
	entry.Analysis = analysis
	return entry, nil
}

func (s *PostgresStore) InsertJournal(ctx context.Context, entry JournalEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO journals (id, user_uid, title, description, mood, productivity,
			sentiment, polarity_score, sarcasm, analysis, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, entry.ID, entry.UserUID, entry.Title, entry.Description, entry.Mood, entry.Productivity,
		nullString(entry.Sentiment), entry.PolarityScore, nullString(entry.Sarcasm),
		[]byte(entry.Analysis), entry.CreatedAt, entry.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert journal: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetJournal(ctx context.Context, journalID string) (JournalEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+journalColumns+`
		FROM journals
		WHERE id=$1
	`, journalID)
	return scanJournal(row)
}

// ListJournalsByUser returns all of a user's entries, newest first.
func (s *PostgresStore) ListJournalsByUser(ctx context.Context, userUID string) ([]JournalEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+journalColumns+`
		FROM journals
		WHERE user_uid=$1
		ORDER BY created_at DESC
	`, userUID)
	if err != nil {
		return nil, fmt.Errorf("list journals: %w", err)
	}
	defer rows.Close()

	items := make([]JournalEntry, 0)
	for rows.Next() {
		entry, err := scanJournal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan journal: %w", err)
		}
		items = append(items, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journals: %w", err)
	}
	return items, nil
}

// ListJournalsInRange returns a user's entries with created_at inside
// [from, to], ascending, for analytics bucketing.
func (s *PostgresStore) ListJournalsInRange(ctx context.Context, userUID string, from, to time.Time) ([]JournalEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+journalColumns+`
		FROM journals
		WHERE user_uid=$1 AND created_at >= $2 AND created_at <= $3
		ORDER BY created_at ASC
	`, userUID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list journals in range: %w", err)
	}
	defer rows.Close()

	items := make([]JournalEntry, 0)
	for rows.Next() {
		entry, err := scanJournal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan journal: %w", err)
		}
		items = append(items, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journals: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) UpdateJournal(ctx context.Context, entry JournalEntry) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE journals
		SET title=$2, description=$3, mood=$4, productivity=$5,
			sentiment=$6, polarity_score=$7, sarcasm=$8, analysis=$9, updated_at=$10
		WHERE id=$1
	`, entry.ID, entry.Title, entry.Description, entry.Mood, entry.Productivity,
		nullString(entry.Sentiment), entry.PolarityScore, nullString(entry.Sarcasm),
		[]byte(entry.Analysis), entry.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update journal: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update journal rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStore) DeleteJournal(ctx context.Context, journalID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM journals WHERE id=$1`, journalID)
	if err != nil {
		return fmt.Errorf("delete journal: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete journal rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListAllJournals streams every entry, used for search reindexing on boot.
func (s *PostgresStore) ListAllJournals(ctx context.Context) ([]JournalEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+journalColumns+`
		FROM journals
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list all journals: %w", err)
	}
	defer rows.Close()

	items := make([]JournalEntry, 0)
	for rows.Next() {
		entry, err := scanJournal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan journal: %w", err)
		}
		items = append(items, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journals: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) SaveRefreshSession(ctx context.Context, tokenHash string, user User, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_sessions (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_hash) DO UPDATE SET user_id=EXCLUDED.user_id, expires_at=EXCLUDED.expires_at, revoked_at=NULL
	`, tokenHash, user.ID, expiresAt)
	if err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) LookupRefreshSession(ctx context.Context, tokenHash string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.email, u.display_name, u.created_at
		FROM refresh_sessions rs
		JOIN users u ON u.id = rs.user_id
		WHERE rs.token_hash = $1
			AND rs.revoked_at IS NULL
			AND rs.expires_at > NOW()
	`, tokenHash).Scan(&user.ID, &user.Email, &user.DisplayName, &user.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE refresh_sessions SET revoked_at=NOW() WHERE token_hash=$1`, tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

// IsNotFound reports whether err means the row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
