package history

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pevans/wikifeed/article"
	"github.com/pevans/wikifeed/feedmode"
)

// ErrEntryNotFound is returned when no entry has the requested ID.
var ErrEntryNotFound = errors.New("history entry not found")

// Store records served articles in SQLite.
type Store struct {
	db *sql.DB
}

// Entry is one article served to a reader.
type Entry struct {
	EntryID     uuid.UUID     `json:"entry_id"`
	ArticleID   string        `json:"article_id"`
	Title       string        `json:"title"`
	URL         string        `json:"url"`
	Mode        feedmode.Mode `json:"mode"`
	Thumbnail   *string       `json:"thumbnail,omitempty"`
	ReadingTime int           `json:"reading_time"`
	ServedAt    time.Time     `json:"served_at"`
}

// Filter narrows List results.
type Filter struct {
	Mode   *feedmode.Mode
	Since  *time.Time
	Limit  int
	Offset int
}

// NewStore opens (or creates) the history database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS history (
		entry_id TEXT PRIMARY KEY,
		article_id TEXT NOT NULL,
		title TEXT NOT NULL,
		url TEXT NOT NULL,
		mode TEXT NOT NULL,
		thumbnail TEXT,
		reading_time INTEGER NOT NULL DEFAULT 1,
		served_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_history_served_at ON history(served_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores that a was served in mode.
func (s *Store) Record(a *article.Article, mode feedmode.Mode) (*Entry, error) {
	if a == nil || a.ID == "" {
		return nil, errors.New("article ID is required")
	}

	entry := &Entry{
		EntryID:     uuid.New(),
		ArticleID:   a.ID,
		Title:       a.Title,
		URL:         a.URL,
		Mode:        mode,
		ReadingTime: a.ReadingTime(),
		ServedAt:    time.Now().UTC().Truncate(0),
	}
	if a.Thumbnail != nil && a.Thumbnail.Source != "" {
		source := a.Thumbnail.Source
		entry.Thumbnail = &source
	}

	query := `
		INSERT INTO history (
			entry_id, article_id, title, url, mode,
			thumbnail, reading_time, served_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		entry.EntryID.String(),
		entry.ArticleID,
		entry.Title,
		entry.URL,
		string(entry.Mode),
		entry.Thumbnail,
		entry.ReadingTime,
		formatTime(entry.ServedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert history entry: %w", err)
	}

	return entry, nil
}

// Get retrieves an entry by ID.
func (s *Store) Get(entryID uuid.UUID) (*Entry, error) {
	query := `
		SELECT entry_id, article_id, title, url, mode,
		       thumbnail, reading_time, served_at
		FROM history
		WHERE entry_id = ?
	`

	entry, err := scanEntry(s.db.QueryRow(query, entryID.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query history entry: %w", err)
	}

	return entry, nil
}

// List returns entries newest first.
func (s *Store) List(filter Filter) ([]Entry, error) {
	query := `
		SELECT entry_id, article_id, title, url, mode,
		       thumbnail, reading_time, served_at
		FROM history
	`

	var whereClauses []string
	var args []any

	if filter.Mode != nil {
		whereClauses = append(whereClauses, "mode = ?")
		args = append(args, string(*filter.Mode))
	}
	if filter.Since != nil {
		whereClauses = append(whereClauses, "served_at >= ?")
		args = append(args, formatTime(*filter.Since))
	}

	if len(whereClauses) > 0 {
		query += " WHERE " + strings.Join(whereClauses, " AND ")
	}

	query += " ORDER BY served_at DESC, rowid DESC"

	// SQLite only accepts OFFSET after a LIMIT
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	} else if filter.Offset > 0 {
		query += " LIMIT -1"
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, *entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	return entries, nil
}

// Delete removes one entry.
func (s *Store) Delete(entryID uuid.UUID) error {
	result, err := s.db.Exec("DELETE FROM history WHERE entry_id = ?", entryID.String())
	if err != nil {
		return fmt.Errorf("failed to delete history entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrEntryNotFound
	}

	return nil
}

// Clear removes every entry and returns how many were removed.
func (s *Store) Clear() (int64, error) {
	result, err := s.db.Exec("DELETE FROM history")
	if err != nil {
		return 0, fmt.Errorf("failed to clear history: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	var entryIDStr, articleID, title, url, mode, servedAtStr string
	var thumbnail sql.NullString
	var readingTime int

	err := row.Scan(
		&entryIDStr, &articleID, &title, &url, &mode,
		&thumbnail, &readingTime, &servedAtStr,
	)
	if err != nil {
		return nil, err
	}

	entryID, err := uuid.Parse(entryIDStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse entry ID: %w", err)
	}

	entry := &Entry{
		EntryID:     entryID,
		ArticleID:   articleID,
		Title:       title,
		URL:         url,
		Mode:        feedmode.Mode(mode),
		ReadingTime: readingTime,
		ServedAt:    parseTime(servedAtStr),
	}
	if thumbnail.Valid {
		entry.Thumbnail = &thumbnail.String
	}

	return entry, nil
}

func formatTime(t time.Time) string {
	// Fixed-width UTC so lexical order matches time order
	return t.UTC().Truncate(0).Format("2006-01-02T15:04:05.000000000Z07:00")
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t.Truncate(0)
}
