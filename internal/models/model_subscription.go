package models

import (
	"time"

	"github.com/mozilla-services/cjms-sub000/internal/status"
)

// Subscription is one ingested warehouse subscription row. ID doubles as the
// conversion order id sent to the affiliate network.
type Subscription struct {
	ID                  string    `gorm:"column:id;type:uuid;primary_key" json:"id"`
	FlowID              string    `gorm:"column:flow_id;type:text;not null;uniqueIndex" json:"flow_id"`
	SubscriptionID      string    `gorm:"column:subscription_id;type:text;not null;uniqueIndex" json:"subscription_id"`
	ReportTimestamp     time.Time `gorm:"column:report_timestamp;not null" json:"report_timestamp"`
	SubscriptionCreated time.Time `gorm:"column:subscription_created;not null" json:"subscription_created"`
	FxaUID              string    `gorm:"column:fxa_uid;type:text;not null" json:"fxa_uid"`
	Quantity            int       `gorm:"column:quantity;not null" json:"quantity"`
	PlanID              string    `gorm:"column:plan_id;type:text;not null" json:"plan_id"`
	PlanCurrency        string    `gorm:"column:plan_currency;type:varchar(8);not null" json:"plan_currency"`
	// PlanAmount is in integer minor units of PlanCurrency.
	PlanAmount     int64   `gorm:"column:plan_amount;type:bigint;not null" json:"plan_amount"`
	Country        *string `gorm:"column:country;type:varchar(2)" json:"country"`
	PromotionCodes *string `gorm:"column:promotion_codes;type:text" json:"promotion_codes"`
	// The three attribution fields are set together or not at all.
	AICID        *string    `gorm:"column:aic_id;type:uuid" json:"aic_id"`
	AICExpires   *time.Time `gorm:"column:aic_expires" json:"aic_expires"`
	CJEventValue *string    `gorm:"column:cj_event_value;type:text" json:"cj_event_value"`

	status.Block `gorm:"embedded"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}
