package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/peterbourgon/diskv/v3"
	"go.uber.org/zap"

	"github.com/satory074/dreamscope/internal/models"
)

// DiskvStore persists each logical record as one key in a diskv base
// directory. Values are JSON. This is the default backend; it mirrors the
// bounded set of named records the application works with.
type DiskvStore struct {
	basePath string
	d        *diskv.Diskv
	log      *zap.Logger
}

func NewDiskvStore(basePath string, log *zap.Logger) *DiskvStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &DiskvStore{basePath: basePath, log: log}
}

func (s *DiskvStore) open() {
	s.d = diskv.New(diskv.Options{
		BasePath:     s.basePath,
		CacheSizeMax: 1024 * 1024, // 1MB
	})
}

func (s *DiskvStore) Init() error {
	if err := os.MkdirAll(s.basePath, 0700); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}
	s.open()

	if s.d.Has(KeyDreams) {
		return fmt.Errorf("storage already initialized at %s", s.basePath)
	}
	if err := s.writeJSON(KeyDreams, []models.Entry{}); err != nil {
		return err
	}
	if err := s.writeJSON(KeySettings, models.DefaultSettings()); err != nil {
		return err
	}
	return s.writeJSON(KeySymbolStats, map[string]*models.SymbolStat{})
}

func (s *DiskvStore) Load() error {
	if s.d != nil {
		return nil
	}
	if _, err := os.Stat(s.basePath); os.IsNotExist(err) {
		return fmt.Errorf("storage not initialized, run 'dreamscope init' first")
	}
	s.open()
	return nil
}

func (s *DiskvStore) Close() error {
	return nil
}

func (s *DiskvStore) writeJSON(key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", key, err)
	}
	return classifyWriteError("failed to write "+key, s.d.Write(key, data))
}

// readJSON decodes one record. A missing key leaves the target untouched
// and reports found=false; an unparseable value reports ErrCorrupted so
// the caller can reset and re-persist.
func (s *DiskvStore) readJSON(key string, target any) (bool, error) {
	data, err := s.d.Read(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return false, fmt.Errorf("%s: %w: %v", key, ErrCorrupted, err)
	}
	return true, nil
}

func (s *DiskvStore) Entries() ([]models.Entry, error) {
	if s.d == nil {
		return nil, ErrNotLoaded
	}
	var entries []models.Entry
	if _, err := s.readJSON(KeyDreams, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *DiskvStore) AddEntry(e models.Entry) error {
	entries, err := s.Entries()
	if err != nil {
		return err
	}
	entries = append(entries, e)
	return s.persistEntries(entries)
}

func (s *DiskvStore) ReplaceEntries(entries []models.Entry) error {
	if s.d == nil {
		return ErrNotLoaded
	}
	if entries == nil {
		entries = []models.Entry{}
	}
	return s.persistEntries(entries)
}

func (s *DiskvStore) persistEntries(entries []models.Entry) error {
	if err := s.writeJSON(KeyDreams, entries); err != nil {
		return err
	}
	s.writeSnapshot(entries)
	return nil
}

// writeSnapshot records the backup envelope next to the data. Snapshot
// failures are swallowed: losing the backup must never fail the save.
func (s *DiskvStore) writeSnapshot(entries []models.Entry) {
	settings, err := s.GetSettings()
	if err != nil {
		settings = models.DefaultSettings()
	}
	if err := s.writeJSON(KeyBackup, NewBackup(time.Now(), entries, settings)); err != nil {
		s.log.Warn("backup snapshot write failed", zap.Error(err))
	}
}

func (s *DiskvStore) GetSettings() (models.Settings, error) {
	if s.d == nil {
		return models.Settings{}, ErrNotLoaded
	}
	settings := models.DefaultSettings()
	if _, err := s.readJSON(KeySettings, &settings); err != nil {
		return models.DefaultSettings(), err
	}
	return settings, nil
}

func (s *DiskvStore) SaveSettings(settings models.Settings) error {
	if s.d == nil {
		return ErrNotLoaded
	}
	if err := s.writeJSON(KeySettings, settings); err != nil {
		return err
	}
	if entries, err := s.Entries(); err == nil {
		s.writeSnapshot(entries)
	}
	return nil
}

func (s *DiskvStore) GetSymbolStats() (map[string]*models.SymbolStat, error) {
	if s.d == nil {
		return nil, ErrNotLoaded
	}
	stats := make(map[string]*models.SymbolStat)
	if _, err := s.readJSON(KeySymbolStats, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *DiskvStore) SaveSymbolStats(stats map[string]*models.SymbolStat) error {
	if s.d == nil {
		return ErrNotLoaded
	}
	return s.writeJSON(KeySymbolStats, stats)
}

func (s *DiskvStore) Onboarded() (bool, error) {
	if s.d == nil {
		return false, ErrNotLoaded
	}
	var seen bool
	if _, err := s.readJSON(KeyOnboarded, &seen); err != nil {
		// A corrupt flag is not worth a reset cycle.
		return false, nil
	}
	return seen, nil
}

func (s *DiskvStore) MarkOnboarded() error {
	if s.d == nil {
		return ErrNotLoaded
	}
	return s.writeJSON(KeyOnboarded, true)
}

func (s *DiskvStore) Snapshot() (*Backup, error) {
	if s.d == nil {
		return nil, ErrNotLoaded
	}
	var b Backup
	found, err := s.readJSON(KeyBackup, &b)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &b, nil
}

func (s *DiskvStore) Clear() error {
	if s.d == nil {
		return ErrNotLoaded
	}
	if err := s.d.EraseAll(); err != nil {
		return fmt.Errorf("failed to clear storage: %w", err)
	}
	return nil
}

func (s *DiskvStore) GetConfigPath() string {
	return s.basePath
}

// Reset replaces every record with empty defaults. Used to self-heal
// after ErrCorrupted.
func (s *DiskvStore) Reset() error {
	if s.d == nil {
		return ErrNotLoaded
	}
	if err := s.writeJSON(KeyDreams, []models.Entry{}); err != nil {
		return err
	}
	if err := s.writeJSON(KeySettings, models.DefaultSettings()); err != nil {
		return err
	}
	return s.writeJSON(KeySymbolStats, map[string]*models.SymbolStat{})
}

// Filepath of a record, used by tests to corrupt storage deliberately.
func (s *DiskvStore) recordPath(key string) string {
	return filepath.Join(s.basePath, key)
}
