package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/satory074/dreamscope/internal/export"
	"github.com/satory074/dreamscope/internal/models"
	"github.com/satory074/dreamscope/internal/storage"
)

const (
	// MaxBackups is the maximum number of snapshot files to keep.
	MaxBackups = 14
	// BackupDirName is the name of the backup directory.
	BackupDirName = "backups"
	// BackupFilePrefix is the prefix for snapshot files.
	BackupFilePrefix = "dreamscope-"
	// BackupFileSuffix is the suffix for snapshot files.
	BackupFileSuffix = ".json"
)

// Info describes one snapshot file on disk.
type Info struct {
	Path      string
	Timestamp time.Time
	Size      int64
}

// Manager writes and rotates timestamped JSON snapshot files next to the
// store. Snapshots use the same envelope as the JSON export, so any
// snapshot can be fed back through restore.
type Manager struct {
	backupDir string
}

func NewManager(configPath string) *Manager {
	return &Manager{backupDir: filepath.Join(filepath.Dir(configPath), BackupDirName)}
}

func (m *Manager) BackupDir() string {
	return m.backupDir
}

// Create writes a new snapshot of the given state and rotates old files.
func (m *Manager) Create(entries []models.Entry, settings models.Settings) (string, error) {
	if err := os.MkdirAll(m.backupDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	now := time.Now()
	path := m.uniquePath(now)
	data, err := export.JSON(now, entries, settings)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}

	if err := m.rotate(); err != nil {
		// Rotation failure should not fail the backup itself.
		fmt.Fprintf(os.Stderr, "Warning: failed to rotate old backups: %v\n", err)
	}
	return path, nil
}

// uniquePath picks a filename with minute precision, falling back to
// second precision and then a counter when a name collides.
func (m *Manager) uniquePath(now time.Time) string {
	path := m.pathFor(now.Format("20060102-1504"))
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}
	path = m.pathFor(now.Format("20060102-150405"))
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}
	for counter := 1; ; counter++ {
		candidate := m.pathFor(fmt.Sprintf("%s-%d", now.Format("20060102-150405"), counter))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

func (m *Manager) pathFor(stamp string) string {
	return filepath.Join(m.backupDir, BackupFilePrefix+stamp+BackupFileSuffix)
}

// List returns all snapshots, newest first.
func (m *Manager) List() ([]Info, error) {
	if _, err := os.Stat(m.backupDir); os.IsNotExist(err) {
		return []Info{}, nil
	}
	dirEntries, err := os.ReadDir(m.backupDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var backups []Info
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		name := de.Name()
		if !strings.HasPrefix(name, BackupFilePrefix) || !strings.HasSuffix(name, BackupFileSuffix) {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, BackupFilePrefix), BackupFileSuffix)
		ts, ok := parseStamp(stamp)
		if !ok {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		backups = append(backups, Info{
			Path:      filepath.Join(m.backupDir, name),
			Timestamp: ts,
			Size:      info.Size(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

func parseStamp(stamp string) (time.Time, bool) {
	// Strip a trailing collision counter if present.
	if parts := strings.Split(stamp, "-"); len(parts) > 2 {
		last := parts[len(parts)-1]
		if len(last) != 4 && len(last) != 6 && isDigits(last) {
			stamp = strings.Join(parts[:len(parts)-1], "-")
		}
	}
	if ts, err := time.Parse("20060102-1504", stamp); err == nil {
		return ts, true
	}
	if ts, err := time.Parse("20060102-150405", stamp); err == nil {
		return ts, true
	}
	return time.Time{}, false
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

func (m *Manager) rotate() error {
	backups, err := m.List()
	if err != nil {
		return err
	}
	for i := MaxBackups; i < len(backups); i++ {
		if err := os.Remove(backups[i].Path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", backups[i].Path, err)
		}
	}
	return nil
}

// Read parses a snapshot file back into a backup envelope.
func (m *Manager) Read(path string) (*storage.Backup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup file: %w", err)
	}
	return export.ParseBackup(data)
}
