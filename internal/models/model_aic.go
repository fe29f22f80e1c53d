package models

import "time"

// AttributionCookie links an affiliate click event to an upstream flow. Rows
// live in aic until a subscription consumes them or they expire, then move to
// aic_archive.
type AttributionCookie struct {
	ID           string    `gorm:"column:id;type:uuid;primary_key" json:"id"`
	CJEventValue string    `gorm:"column:cj_event_value;type:text;not null" json:"cj_event_value"`
	FlowID       string    `gorm:"column:flow_id;type:text;not null" json:"flow_id"`
	Created      time.Time `gorm:"column:created;not null" json:"created"`
	Expires      time.Time `gorm:"column:expires;not null" json:"expires"`
}

func (AttributionCookie) TableName() string {
	return "aic"
}

// ArchivedAttributionCookie is a retired cookie. Archived rows are never
// deleted.
type ArchivedAttributionCookie struct {
	ID           string    `gorm:"column:id;type:uuid;primary_key" json:"id"`
	CJEventValue string    `gorm:"column:cj_event_value;type:text;not null" json:"cj_event_value"`
	FlowID       string    `gorm:"column:flow_id;type:text;not null" json:"flow_id"`
	Created      time.Time `gorm:"column:created;not null" json:"created"`
	Expires      time.Time `gorm:"column:expires;not null" json:"expires"`
}

func (ArchivedAttributionCookie) TableName() string {
	return "aic_archive"
}

// Archived returns the archive-table copy of the cookie, all fields preserved.
func (c *AttributionCookie) Archived() *ArchivedAttributionCookie {
	return &ArchivedAttributionCookie{
		ID:           c.ID,
		CJEventValue: c.CJEventValue,
		FlowID:       c.FlowID,
		Created:      c.Created,
		Expires:      c.Expires,
	}
}
