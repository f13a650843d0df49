package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jwebster45206/desert-planet/internal/logger"
	"github.com/jwebster45206/desert-planet/pkg/state"
	"github.com/jwebster45206/desert-planet/pkg/storage"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS saves (
	save_id    TEXT PRIMARY KEY,
	document   TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);`

// SQLiteStorage implements the Storage interface on a single SQLite file.
type SQLiteStorage struct {
	db     *sql.DB
	logger *slog.Logger
}

// Ensure SQLiteStorage implements Storage interface
var _ storage.Storage = (*SQLiteStorage)(nil)

// OpenSQLiteStorage opens (creating if needed) the database at path and
// applies the schema.
func OpenSQLiteStorage(path string, logger *slog.Logger) (*SQLiteStorage, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
		}
	}

	dsn := cleanPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}

	logger.Info("SQLite storage opened", "path", cleanPath)
	return &SQLiteStorage{db: db, logger: logger}, nil
}

func (s *SQLiteStorage) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite ping failed: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStorage) SaveGameState(ctx context.Context, saveID string, gs *state.GameState) error {
	if gs == nil {
		return errors.New("gamestate cannot be nil")
	}

	data, err := gs.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to encode gamestate: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO saves (save_id, document, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(save_id) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at`,
		saveID, string(data), time.Now().UTC().UnixMilli())
	if err != nil {
		logger.WithSaveID(s.logger, saveID).Error("Failed to save gamestate", "error", err)
		return fmt.Errorf("failed to save gamestate: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) CreateGameState(ctx context.Context, saveID string, gs *state.GameState) error {
	if gs == nil {
		return errors.New("gamestate cannot be nil")
	}

	data, err := gs.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to encode gamestate: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO saves (save_id, document, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(save_id) DO NOTHING`,
		saveID, string(data), time.Now().UTC().UnixMilli())
	if err != nil {
		logger.WithSaveID(s.logger, saveID).Error("Failed to create gamestate", "error", err)
		return fmt.Errorf("failed to create gamestate: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to create gamestate: %w", err)
	}
	if n == 0 {
		return storage.ErrSaveExists
	}
	return nil
}

func (s *SQLiteStorage) LoadGameState(ctx context.Context, saveID string) (*state.GameState, error) {
	log := logger.WithSaveID(s.logger, saveID)
	var document string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM saves WHERE save_id = ?`, saveID).Scan(&document)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn("Gamestate not found")
			return nil, nil
		}
		log.Error("Failed to load gamestate", "error", err)
		return nil, fmt.Errorf("failed to load gamestate: %w", err)
	}

	gs, err := state.FromJSON([]byte(document))
	if err != nil {
		log.Error("Failed to decode gamestate", "error", err)
		return nil, fmt.Errorf("failed to decode gamestate %s: %w", saveID, err)
	}
	return gs, nil
}

func (s *SQLiteStorage) DeleteGameState(ctx context.Context, saveID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM saves WHERE save_id = ?`, saveID); err != nil {
		logger.WithSaveID(s.logger, saveID).Error("Failed to delete gamestate", "error", err)
		return fmt.Errorf("failed to delete gamestate: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) ListSaves(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT save_id FROM saves ORDER BY save_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list saves: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan save id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list saves: %w", err)
	}
	return ids, nil
}
