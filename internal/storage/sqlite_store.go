package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/satory074/dreamscope/internal/models"
)

// SQLiteStore is the single-file backend, selected when the config path
// ends in .db. Interpretations and settings are stored as JSON columns;
// the schema is created in place on Init.
type SQLiteStore struct {
	path string
	db   *sql.DB
	log  *zap.Logger
}

func NewSQLiteStore(path string, log *zap.Logger) *SQLiteStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &SQLiteStore{path: path, log: log}
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS entries (
	id INTEGER PRIMARY KEY,
	created_at TEXT NOT NULL,
	content TEXT NOT NULL,
	interpretation TEXT,
	tags TEXT
);
CREATE TABLE IF NOT EXISTS symbol_stats (
	key TEXT PRIMARY KEY,
	data TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

func (s *SQLiteStore) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	if _, err := s.db.Exec(sqliteSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	if _, err := s.GetSettings(); err != nil {
		return err
	}
	return nil
}

func (s *SQLiteStore) Load() error {
	if s.db != nil {
		return nil
	}
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return fmt.Errorf("storage not initialized, run 'dreamscope init' first")
	}
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) Entries() ([]models.Entry, error) {
	if s.db == nil {
		return nil, ErrNotLoaded
	}
	rows, err := s.db.Query(`SELECT id, created_at, content, interpretation, tags FROM entries ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []models.Entry
	for rows.Next() {
		var (
			e          models.Entry
			createdAt  string
			interpJSON sql.NullString
			tagsJSON   sql.NullString
		)
		if err := rows.Scan(&e.ID, &createdAt, &e.Content, &interpJSON, &tagsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w: %v", e.ID, ErrCorrupted, err)
		}
		e.CreatedAt = t
		if interpJSON.Valid && interpJSON.String != "" {
			var interp models.Interpretation
			if err := json.Unmarshal([]byte(interpJSON.String), &interp); err != nil {
				return nil, fmt.Errorf("entry %d: %w: %v", e.ID, ErrCorrupted, err)
			}
			e.Interpretation = &interp
		}
		if tagsJSON.Valid && tagsJSON.String != "" {
			if err := json.Unmarshal([]byte(tagsJSON.String), &e.Tags); err != nil {
				return nil, fmt.Errorf("entry %d: %w: %v", e.ID, ErrCorrupted, err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) AddEntry(e models.Entry) error {
	if s.db == nil {
		return ErrNotLoaded
	}
	interpJSON, tagsJSON, err := marshalEntryBlobs(e)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO entries (id, created_at, content, interpretation, tags) VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.CreatedAt.Format(time.RFC3339Nano), e.Content, interpJSON, tagsJSON,
	)
	if err != nil {
		return classifyWriteError("failed to insert entry", err)
	}
	s.writeSnapshot()
	return nil
}

func (s *SQLiteStore) ReplaceEntries(entries []models.Entry) error {
	if s.db == nil {
		return ErrNotLoaded
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM entries`); err != nil {
		return classifyWriteError("failed to clear entries", err)
	}
	for _, e := range entries {
		interpJSON, tagsJSON, err := marshalEntryBlobs(e)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(
			`INSERT INTO entries (id, created_at, content, interpretation, tags) VALUES (?, ?, ?, ?, ?)`,
			e.ID, e.CreatedAt.Format(time.RFC3339Nano), e.Content, interpJSON, tagsJSON,
		); err != nil {
			return classifyWriteError("failed to insert entry", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return classifyWriteError("failed to commit entries", err)
	}
	s.writeSnapshot()
	return nil
}

func marshalEntryBlobs(e models.Entry) (interpJSON, tagsJSON string, err error) {
	if e.Interpretation != nil {
		b, err := json.Marshal(e.Interpretation)
		if err != nil {
			return "", "", fmt.Errorf("failed to serialize interpretation: %w", err)
		}
		interpJSON = string(b)
	}
	if e.Tags != nil {
		b, err := json.Marshal(e.Tags)
		if err != nil {
			return "", "", fmt.Errorf("failed to serialize tags: %w", err)
		}
		tagsJSON = string(b)
	}
	return interpJSON, tagsJSON, nil
}

func (s *SQLiteStore) writeSnapshot() {
	entries, err := s.Entries()
	if err != nil {
		s.log.Warn("backup snapshot skipped", zap.Error(err))
		return
	}
	settings, err := s.GetSettings()
	if err != nil {
		settings = models.DefaultSettings()
	}
	data, err := json.Marshal(NewBackup(time.Now(), entries, settings))
	if err != nil {
		s.log.Warn("backup snapshot write failed", zap.Error(err))
		return
	}
	if err := s.setMeta(KeyBackup, string(data)); err != nil {
		s.log.Warn("backup snapshot write failed", zap.Error(err))
	}
}

func (s *SQLiteStore) getMeta(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteStore) setMeta(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return classifyWriteError("failed to write "+key, err)
}

func (s *SQLiteStore) GetSettings() (models.Settings, error) {
	if s.db == nil {
		return models.Settings{}, ErrNotLoaded
	}
	value, found, err := s.getMeta(KeySettings)
	if err != nil {
		return models.DefaultSettings(), err
	}
	if !found {
		return models.DefaultSettings(), nil
	}
	settings := models.DefaultSettings()
	if err := json.Unmarshal([]byte(value), &settings); err != nil {
		return models.DefaultSettings(), fmt.Errorf("settings: %w: %v", ErrCorrupted, err)
	}
	return settings, nil
}

func (s *SQLiteStore) SaveSettings(settings models.Settings) error {
	if s.db == nil {
		return ErrNotLoaded
	}
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to serialize settings: %w", err)
	}
	if err := s.setMeta(KeySettings, string(data)); err != nil {
		return err
	}
	s.writeSnapshot()
	return nil
}

func (s *SQLiteStore) GetSymbolStats() (map[string]*models.SymbolStat, error) {
	if s.db == nil {
		return nil, ErrNotLoaded
	}
	rows, err := s.db.Query(`SELECT key, data FROM symbol_stats`)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbol stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]*models.SymbolStat)
	for rows.Next() {
		var key, data string
		if err := rows.Scan(&key, &data); err != nil {
			return nil, fmt.Errorf("failed to scan symbol stat: %w", err)
		}
		var stat models.SymbolStat
		if err := json.Unmarshal([]byte(data), &stat); err != nil {
			return nil, fmt.Errorf("symbol stat %s: %w: %v", key, ErrCorrupted, err)
		}
		stats[key] = &stat
	}
	return stats, rows.Err()
}

func (s *SQLiteStore) SaveSymbolStats(stats map[string]*models.SymbolStat) error {
	if s.db == nil {
		return ErrNotLoaded
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM symbol_stats`); err != nil {
		return classifyWriteError("failed to clear symbol stats", err)
	}
	for key, stat := range stats {
		data, err := json.Marshal(stat)
		if err != nil {
			return fmt.Errorf("failed to serialize symbol stat %s: %w", key, err)
		}
		if _, err := tx.Exec(`INSERT INTO symbol_stats (key, data) VALUES (?, ?)`, key, string(data)); err != nil {
			return classifyWriteError("failed to insert symbol stat", err)
		}
	}
	return classifyWriteError("failed to commit symbol stats", tx.Commit())
}

func (s *SQLiteStore) Onboarded() (bool, error) {
	if s.db == nil {
		return false, ErrNotLoaded
	}
	value, found, err := s.getMeta(KeyOnboarded)
	if err != nil {
		return false, err
	}
	return found && value == "true", nil
}

func (s *SQLiteStore) MarkOnboarded() error {
	if s.db == nil {
		return ErrNotLoaded
	}
	return s.setMeta(KeyOnboarded, "true")
}

func (s *SQLiteStore) Snapshot() (*Backup, error) {
	if s.db == nil {
		return nil, ErrNotLoaded
	}
	value, found, err := s.getMeta(KeyBackup)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	var b Backup
	if err := json.Unmarshal([]byte(value), &b); err != nil {
		return nil, fmt.Errorf("backup: %w: %v", ErrCorrupted, err)
	}
	return &b, nil
}

func (s *SQLiteStore) Reset() error {
	if s.db == nil {
		return ErrNotLoaded
	}
	for _, stmt := range []string{`DELETE FROM entries`, `DELETE FROM symbol_stats`, `DELETE FROM meta`} {
		if _, err := s.db.Exec(stmt); err != nil {
			return classifyWriteError("failed to reset storage", err)
		}
	}
	return s.SaveSettings(models.DefaultSettings())
}

func (s *SQLiteStore) Clear() error {
	if s.db == nil {
		return ErrNotLoaded
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	s.db = nil
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove database: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetConfigPath() string {
	return s.path
}
