package status

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type Status string

const (
	NotReported   Status = "NotReported"
	Reported      Status = "Reported"
	WillNotReport Status = "WillNotReport"
	CJReceived    Status = "CJReceived"
	CJNotReceived Status = "CJNotReceived"
)

// Entry is one element of the append-only status history.
type Entry struct {
	Status Status    `json:"status"`
	T      time.Time `json:"t"`
}

// Block carries the reporting state of an entity. Entities embed it so the
// same advance logic serves subscriptions and refunds.
type Block struct {
	Status     *Status        `gorm:"column:status;type:varchar(32)" json:"status"`
	StatusT    *time.Time     `gorm:"column:status_t" json:"status_t"`
	HistoryRaw datatypes.JSON `gorm:"column:status_history;type:jsonb" json:"status_history"`
}

// Current returns the status, or nil when the entity has never been advanced.
func (b *Block) Current() *Status {
	return b.Status
}

// History decodes the stored history. Absent or malformed values yield the
// empty list; a malformed value is replaced wholesale on the next Advance
// (legacy rows carried free-form history).
func (b *Block) History() []Entry {
	if len(b.HistoryRaw) == 0 {
		return nil
	}
	var entries []Entry
	if err := json.Unmarshal(b.HistoryRaw, &entries); err != nil {
		return nil
	}
	return entries
}

// Advance moves the block to next, stamping status, status_t and the appended
// history entry from a single instant.
func Advance(b *Block, next Status) {
	now := time.Now().UTC()
	entries := append(b.History(), Entry{Status: next, T: now})
	raw, err := json.Marshal(entries)
	if err != nil {
		// []Entry always marshals; keep the previous value if it somehow does not.
		raw = b.HistoryRaw
	}
	b.Status = &next
	b.StatusT = &now
	b.HistoryRaw = datatypes.JSON(raw)
}
