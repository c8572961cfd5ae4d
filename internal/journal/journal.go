// Package journal keeps a local append-mostly record of every order the
// service handled, independent of the shared ledger. The ledger is the
// source of truth for the business; the journal exists so operators can
// answer "what did we do with that message" after the fact, including for
// orders that never reached the ledger.
package journal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"orderline/internal/order"
)

// Entry is one journaled order.
type Entry struct {
	ID        string
	Sender    string
	State     order.State
	Row       int // ledger row, 0 until persisted
	Total     int
	RawText   string
	OrderJSON string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Journal is a SQLite-backed order log. Safe for concurrent use.
type Journal struct {
	db     *sql.DB
	mu     sync.Mutex
	dbPath string
}

// Open creates or opens the journal database at the given path.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	j := &Journal{db: db, dbPath: path}
	if err := j.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return j, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Path returns the database file path.
func (j *Journal) Path() string {
	return j.dbPath
}

func (j *Journal) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		sender TEXT NOT NULL,
		state TEXT NOT NULL,
		row INTEGER DEFAULT 0,
		total INTEGER DEFAULT 0,
		raw_text TEXT NOT NULL,
		order_json TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_orders_sender ON orders(sender);
	CREATE INDEX IF NOT EXISTS idx_orders_state ON orders(state);
	`
	_, err := j.db.Exec(schema)
	return err
}

// Record inserts a new entry for a freshly drafted (or immediately failed)
// order. The order may be nil for parse failures.
func (j *Journal) Record(id, sender string, state order.State, rawText string, o *order.Order) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	orderJSON := ""
	total := 0
	if o != nil {
		total = o.GrandTotal()
		if data, err := json.Marshal(o); err == nil {
			orderJSON = string(data)
		}
	}

	now := time.Now().UTC()
	_, err := j.db.Exec(`
		INSERT INTO orders (id, sender, state, total, raw_text, order_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, sender, string(state), total, rawText, orderJSON, now, now)
	if err != nil {
		return fmt.Errorf("failed to record order %s: %w", id, err)
	}
	return nil
}

// SetState moves an entry to a new lifecycle state. A persisted order also
// records the ledger row it landed on.
func (j *Journal) SetState(id string, state order.State, row int) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	res, err := j.db.Exec(`
		UPDATE orders SET state = ?, row = ?, updated_at = ? WHERE id = ?`,
		string(state), row, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update order %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("unknown order %s", id)
	}
	return nil
}

// Get returns a single entry by id.
func (j *Journal) Get(id string) (*Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	row := j.db.QueryRow(`
		SELECT id, sender, state, row, total, raw_text, order_json, created_at, updated_at
		FROM orders WHERE id = ?`, id)

	var e Entry
	err := row.Scan(&e.ID, &e.Sender, &e.State, &e.Row, &e.Total,
		&e.RawText, &e.OrderJSON, &e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("unknown order %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order %s: %w", id, err)
	}
	return &e, nil
}

// Recent returns the newest entries, most recent first.
func (j *Journal) Recent(limit int) ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.Query(`
		SELECT id, sender, state, row, total, raw_text, order_json, created_at, updated_at
		FROM orders ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Sender, &e.State, &e.Row, &e.Total,
			&e.RawText, &e.OrderJSON, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountByState returns how many entries sit in each lifecycle state.
func (j *Journal) CountByState() (map[order.State]int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.Query(`SELECT state, COUNT(*) FROM orders GROUP BY state`)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	defer rows.Close()

	counts := make(map[order.State]int)
	for rows.Next() {
		var state string
		var n int
		if err := rows.Scan(&state, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[order.State(state)] = n
	}
	return counts, rows.Err()
}
