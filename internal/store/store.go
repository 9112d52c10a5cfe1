// Package store persists order tags, hidden-order records, and settings in a
// local SQLite database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"ordercloak/internal/engine"
	"ordercloak/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS order_tags (
	order_id TEXT PRIMARY KEY,
	tags     TEXT NOT NULL DEFAULT '[]',
	notes    TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS hidden_orders (
	id         TEXT PRIMARY KEY,
	order_id   TEXT NOT NULL UNIQUE,
	kind       TEXT NOT NULL,
	order_data TEXT NOT NULL DEFAULT '{}',
	username   TEXT NOT NULL DEFAULT '',
	hidden_at  TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// SQLiteStore implements the engine's persistence collaborator on a local
// SQLite file. Safe for concurrent use; database/sql serializes access.
type SQLiteStore struct {
	db  *sql.DB
	log *zap.Logger
}

var _ engine.Storage = (*SQLiteStore)(nil)

// Open opens (creating if needed) the database at path and ensures the
// schema exists.
func Open(path string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	// modernc.org/sqlite serializes writes per connection; a single
	// connection avoids SQLITE_BUSY under concurrent commands.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return &SQLiteStore{db: db, log: logger.Named("store")}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetOrderTags returns the persisted tags for an order, or (nil, nil) when
// none are stored.
func (s *SQLiteStore) GetOrderTags(ctx context.Context, orderID string) (*types.TagData, error) {
	var tagsJSON, notes string
	err := s.db.QueryRowContext(ctx,
		`SELECT tags, notes FROM order_tags WHERE order_id = ?`, orderID,
	).Scan(&tagsJSON, &notes)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query order tags: %w", err)
	}
	data := &types.TagData{Notes: notes}
	if err := json.Unmarshal([]byte(tagsJSON), &data.Tags); err != nil {
		s.log.Warn("corrupt tag list, dropped", zap.String("order_id", orderID), zap.Error(err))
		data.Tags = nil
	}
	return data, nil
}

// StoreOrderTags upserts the tags for an order.
func (s *SQLiteStore) StoreOrderTags(ctx context.Context, orderID string, data types.TagData) error {
	tags := data.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO order_tags (order_id, tags, notes, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(order_id) DO UPDATE SET tags = excluded.tags,
			notes = excluded.notes, updated_at = excluded.updated_at`,
		orderID, string(tagsJSON), data.Notes, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("store order tags: %w", err)
	}
	return nil
}

// GetAllHiddenOrders returns every hidden-order record, most recent first.
func (s *SQLiteStore) GetAllHiddenOrders(ctx context.Context) ([]types.HiddenOrder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_id, kind, order_data, username, hidden_at
		FROM hidden_orders ORDER BY hidden_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query hidden orders: %w", err)
	}
	defer rows.Close()

	var out []types.HiddenOrder
	for rows.Next() {
		var rec types.HiddenOrder
		var dataJSON string
		if err := rows.Scan(&rec.ID, &rec.OrderID, &rec.Kind, &dataJSON, &rec.Username, &rec.HiddenAt); err != nil {
			return nil, fmt.Errorf("scan hidden order: %w", err)
		}
		if err := json.Unmarshal([]byte(dataJSON), &rec.OrderData); err != nil {
			s.log.Warn("corrupt order data, dropped", zap.String("order_id", rec.OrderID), zap.Error(err))
			rec.OrderData = types.OrderRecord{OrderNumber: rec.OrderID}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// PutHiddenOrder upserts a hidden-order record, keyed by order id so a
// replayed hide replaces the previous record instead of duplicating it.
func (s *SQLiteStore) PutHiddenOrder(ctx context.Context, rec types.HiddenOrder) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.HiddenAt.IsZero() {
		rec.HiddenAt = time.Now().UTC()
	}
	dataJSON, err := json.Marshal(rec.OrderData)
	if err != nil {
		return fmt.Errorf("encode order data: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO hidden_orders (id, order_id, kind, order_data, username, hidden_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(order_id) DO UPDATE SET kind = excluded.kind,
			order_data = excluded.order_data, username = excluded.username,
			hidden_at = excluded.hidden_at`,
		rec.ID, rec.OrderID, rec.Kind, string(dataJSON), rec.Username, rec.HiddenAt)
	if err != nil {
		return fmt.Errorf("store hidden order: %w", err)
	}
	return nil
}

// DeleteHiddenOrder removes the hidden-order record for an order. Deleting a
// record that does not exist is not an error.
func (s *SQLiteStore) DeleteHiddenOrder(ctx context.Context, orderID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM hidden_orders WHERE order_id = ?`, orderID); err != nil {
		return fmt.Errorf("delete hidden order: %w", err)
	}
	return nil
}

// Get reads a settings value, or "" when the key is unset.
func (s *SQLiteStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query setting %s: %w", key, err)
	}
	return value, nil
}

// Set upserts a settings value.
func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("store setting %s: %w", key, err)
	}
	return nil
}
