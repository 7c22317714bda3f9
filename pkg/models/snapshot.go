package models

import (
	"encoding/json"
	"time"
)

// Snapshot is one persisted, timestamped version of a date's butchers list.
// Multiple snapshots may exist per date; the most recent by UpdatedAt is the
// current one, and earlier ones form the incremental-fetch history.
type Snapshot struct {
	ID        string          // Row identifier
	Date      string          // List date (YYYY-MM-DD)
	Data      json.RawMessage // Serialized customer entries
	UpdatedAt time.Time       // When this fetch/update happened
}
