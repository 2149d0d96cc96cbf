// Package export renders the entry collection to the two download
// formats and parses uploaded backups for restore.
package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/satory074/dreamscope/internal/models"
	"github.com/satory074/dreamscope/internal/storage"
)

// ErrInvalidBackup marks an uploaded file whose dreams field is absent or
// not a sequence. Distinct from a plain JSON syntax error so the caller
// can word the notice accordingly.
var ErrInvalidBackup = errors.New("invalid backup file")

// utf8BOM keeps spreadsheet applications from misreading the encoding.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var csvHeader = []string{"日付", "夢の内容", "シンボル", "深層心理からのメッセージ", "今日の気づき"}

// CSV renders entries as UTF-8 CSV with a byte-order mark. Every field is
// wrapped in double quotes with embedded quotes doubled, so commas and
// quotes inside dream content never break column boundaries.
func CSV(entries []models.Entry) []byte {
	var buf bytes.Buffer
	buf.Write(utf8BOM)
	writeCSVRow(&buf, csvHeader)
	for _, e := range entries {
		writeCSVRow(&buf, []string{
			e.CreatedAt.Format("2006-01-02"),
			e.Content,
			flattenSymbols(e.Interpretation),
			interpField(e.Interpretation, func(i *models.Interpretation) string { return i.PsychologicalMessage }),
			interpField(e.Interpretation, func(i *models.Interpretation) string { return i.DailyInsight }),
		})
	}
	return buf.Bytes()
}

func writeCSVRow(buf *bytes.Buffer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(f, `"`, `""`))
		buf.WriteByte('"')
	}
	buf.WriteByte('\n')
}

func flattenSymbols(interp *models.Interpretation) string {
	if interp == nil {
		return ""
	}
	parts := make([]string, 0, len(interp.Symbols))
	for _, s := range interp.Symbols {
		parts = append(parts, fmt.Sprintf("%s: %s", s.Symbol, s.Meaning))
	}
	return strings.Join(parts, "; ")
}

func interpField(interp *models.Interpretation, get func(*models.Interpretation) string) string {
	if interp == nil {
		return ""
	}
	return get(interp)
}

// JSON renders the full collection plus settings as a pretty-printed,
// versioned envelope. The same envelope round-trips through Restore.
func JSON(now time.Time, entries []models.Entry, settings models.Settings) ([]byte, error) {
	data, err := json.MarshalIndent(storage.NewBackup(now, entries, settings), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize export: %w", err)
	}
	return data, nil
}

// ParseBackup validates an uploaded backup file. The dreams collection
// must be present and must be a sequence; settings are optional and
// default when absent.
func ParseBackup(data []byte) (*storage.Backup, error) {
	var raw struct {
		Version   string          `json:"version"`
		Timestamp time.Time       `json:"timestamp"`
		Dreams    json.RawMessage `json:"dreams"`
		Settings  json.RawMessage `json:"settings"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	// A JSON null decodes to a nil slice below, so treat it as absent.
	if len(raw.Dreams) == 0 || string(raw.Dreams) == "null" {
		return nil, fmt.Errorf("%w: missing dreams collection", ErrInvalidBackup)
	}
	var entries []models.Entry
	if err := json.Unmarshal(raw.Dreams, &entries); err != nil {
		return nil, fmt.Errorf("%w: dreams is not a sequence", ErrInvalidBackup)
	}
	settings := models.DefaultSettings()
	if len(raw.Settings) > 0 {
		if err := json.Unmarshal(raw.Settings, &settings); err != nil {
			return nil, fmt.Errorf("%w: malformed settings", ErrInvalidBackup)
		}
	}
	b := storage.NewBackup(raw.Timestamp, entries, settings)
	if raw.Version != "" {
		b.Version = raw.Version
	}
	return &b, nil
}
