package models

import (
	"time"

	"github.com/mozilla-services/cjms-sub000/internal/status"
)

// Refund is one ingested warehouse refund row. A refund without a matching
// Subscription is never inserted.
type Refund struct {
	ID             string    `gorm:"column:id;type:uuid;primary_key" json:"id"`
	RefundID       string    `gorm:"column:refund_id;type:text;not null;uniqueIndex" json:"refund_id"`
	SubscriptionID string    `gorm:"column:subscription_id;type:text;not null" json:"subscription_id"`
	RefundCreated  time.Time `gorm:"column:refund_created;not null" json:"refund_created"`
	// RefundAmount is in integer minor units.
	RefundAmount int64   `gorm:"column:refund_amount;type:bigint;not null" json:"refund_amount"`
	RefundStatus *string `gorm:"column:refund_status;type:text" json:"refund_status"`
	RefundReason *string `gorm:"column:refund_reason;type:text" json:"refund_reason"`
	// CorrectionFileDate is set iff status is Reported.
	CorrectionFileDate *time.Time `gorm:"column:correction_file_date;type:date" json:"correction_file_date"`

	status.Block `gorm:"embedded"`
}

func (Refund) TableName() string {
	return "refunds"
}

// MutableFieldsEqual reports whether the warehouse-sourced fields of other
// match this refund. A change in any of them resets the reporting state.
func (r *Refund) MutableFieldsEqual(other *Refund) bool {
	return r.SubscriptionID == other.SubscriptionID &&
		r.RefundCreated.Equal(other.RefundCreated) &&
		r.RefundAmount == other.RefundAmount &&
		strPtrEqual(r.RefundStatus, other.RefundStatus) &&
		strPtrEqual(r.RefundReason, other.RefundReason)
}

func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
