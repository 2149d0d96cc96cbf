package models

// Settings is the singleton user configuration. An empty Theme means the
// default theme.
type Settings struct {
	ReminderEnabled bool   `json:"reminder_enabled"`
	Theme           string `json:"theme"`
}

// DefaultSettings returns the settings used for a fresh or reset store.
func DefaultSettings() Settings {
	return Settings{}
}
