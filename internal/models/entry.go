package models

import "time"

// Entry is one recorded dream together with its interpretation.
// Entries are immutable after creation; they disappear only through a
// full data clear or a destructive restore.
type Entry struct {
	ID             int64           `json:"id"`
	CreatedAt      time.Time       `json:"created_at"`
	Content        string          `json:"content"`
	Interpretation *Interpretation `json:"interpretation,omitempty"`
	Tags           []string        `json:"tags"`
}

// NewEntry builds an entry from the finished interpretation. The ID is the
// creation-time clock reading in milliseconds, which keeps IDs unique and
// non-decreasing in creation order for a single-writer store.
func NewEntry(now time.Time, content string, interp *Interpretation) Entry {
	e := Entry{
		ID:        now.UnixMilli(),
		CreatedAt: now,
		Content:   content,
	}
	if interp != nil {
		e.Interpretation = interp
		for _, s := range interp.Symbols {
			e.Tags = append(e.Tags, s.Symbol)
		}
	}
	return e
}

// Day returns the calendar day of the entry, used to group the history
// view and mark calendar cells.
func (e Entry) Day() string {
	return e.CreatedAt.Format("2006-01-02")
}
