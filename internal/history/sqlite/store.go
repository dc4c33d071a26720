package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/devices-agents/agentboard/internal/history"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store implements history.Store using SQLite.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	owned  bool
	closed bool
}

// NewWithDB creates a store on a shared connection, such as the one the
// preference store uses. Close leaves the connection open.
func NewWithDB(db *sql.DB) (*Store, error) {
	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize history tables: %w", err)
	}
	return store, nil
}

// NewInMemory creates a new in-memory SQLite store (useful for testing).
func NewInMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db, owned: true}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

// initialize creates the necessary tables and indexes.
func (s *Store) initialize() error {
	schema := `
		CREATE TABLE IF NOT EXISTS triggers (
			id TEXT PRIMARY KEY,
			timestamp INTEGER NOT NULL,
			agent TEXT NOT NULL,
			pipeline TEXT NOT NULL,
			branch TEXT NOT NULL,
			message TEXT,
			targets TEXT,
			build_number INTEGER DEFAULT 0,
			web_url TEXT,
			error TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_triggers_timestamp ON triggers(timestamp DESC);
		CREATE INDEX IF NOT EXISTS idx_triggers_agent ON triggers(agent);
		CREATE INDEX IF NOT EXISTS idx_triggers_branch ON triggers(branch);
	`

	_, err := s.db.Exec(schema)
	return err
}

const selectColumns = `
	SELECT id, timestamp, agent, pipeline, branch, message, targets,
		build_number, web_url, error
	FROM triggers`

// Add adds a new history entry and returns its ID.
func (s *Store) Add(ctx context.Context, entry history.Entry) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", history.ErrStoreClosed
	}

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	targetsJSON, err := json.Marshal(entry.Targets)
	if err != nil {
		return "", fmt.Errorf("failed to encode targets: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO triggers (
			id, timestamp, agent, pipeline, branch, message, targets,
			build_number, web_url, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.ID, entry.Timestamp.UnixNano(), entry.AgentID, entry.Pipeline, entry.Branch,
		entry.Message, string(targetsJSON), entry.BuildNumber, entry.WebURL, entry.Error,
	)
	if err != nil {
		return "", fmt.Errorf("failed to add history entry: %w", err)
	}

	return entry.ID, nil
}

// Get retrieves a single history entry by ID.
func (s *Store) Get(ctx context.Context, id string) (history.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return history.Entry{}, history.ErrStoreClosed
	}

	if id == "" {
		return history.Entry{}, history.ErrInvalidID
	}

	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)

	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return history.Entry{}, history.ErrNotFound
	}
	if err != nil {
		return history.Entry{}, fmt.Errorf("failed to get history entry: %w", err)
	}

	return entry, nil
}

// List retrieves history entries matching the query options.
func (s *Store) List(ctx context.Context, opts history.QueryOptions) ([]history.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, history.ErrStoreClosed
	}

	query, args := buildListQuery(opts, false)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list history entries: %w", err)
	}
	defer rows.Close()

	var entries []history.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// Count returns the number of entries matching the query options.
func (s *Store) Count(ctx context.Context, opts history.QueryOptions) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, history.ErrStoreClosed
	}

	query, args := buildListQuery(opts, true)
	var count int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count history entries: %w", err)
	}

	return count, nil
}

// Clear removes all history entries.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return history.ErrStoreClosed
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM triggers"); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}

	return nil
}

// Close closes the store and releases resources.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

func buildListQuery(opts history.QueryOptions, countOnly bool) (string, []any) {
	var query string
	if countOnly {
		query = "SELECT COUNT(*) FROM triggers WHERE 1=1"
	} else {
		query = selectColumns + " WHERE 1=1"
	}

	var args []any

	if opts.AgentID != "" {
		query += " AND agent = ?"
		args = append(args, opts.AgentID)
	}

	if opts.Branch != "" {
		query += " AND branch = ?"
		args = append(args, opts.Branch)
	}

	if opts.FailedOnly {
		query += " AND error IS NOT NULL AND error != ''"
	}

	if countOnly {
		return query, args
	}

	query += " ORDER BY timestamp DESC"

	// SQLite needs a LIMIT before OFFSET.
	if opts.Limit > 0 || opts.Offset > 0 {
		limit := opts.Limit
		if limit <= 0 {
			limit = -1
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, opts.Offset)
	}

	return query, args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (history.Entry, error) {
	var entry history.Entry
	var nanos int64
	var message, targetsJSON, webURL, errText sql.NullString

	err := row.Scan(
		&entry.ID, &nanos, &entry.AgentID, &entry.Pipeline, &entry.Branch,
		&message, &targetsJSON, &entry.BuildNumber, &webURL, &errText,
	)
	if err != nil {
		return entry, err
	}

	entry.Timestamp = time.Unix(0, nanos).UTC()
	entry.Message = message.String
	entry.WebURL = webURL.String
	entry.Error = errText.String
	if targetsJSON.Valid {
		json.Unmarshal([]byte(targetsJSON.String), &entry.Targets)
	}

	return entry, nil
}
