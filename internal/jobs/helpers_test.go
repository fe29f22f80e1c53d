package jobs

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mozilla-services/cjms-sub000/internal/affiliate"
	"github.com/mozilla-services/cjms-sub000/internal/models"
	"github.com/mozilla-services/cjms-sub000/internal/status"
	"github.com/mozilla-services/cjms-sub000/internal/store"
	"github.com/mozilla-services/cjms-sub000/internal/warehouse"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.AttributionCookie{},
		&models.ArchivedAttributionCookie{},
		&models.Subscription{},
		&models.Refund{},
	))
	return store.New(db)
}

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func seedCookie(t *testing.T, st *store.Store, flowID, cjEventValue string) *models.AttributionCookie {
	t.Helper()
	now := time.Now().UTC()
	c := &models.AttributionCookie{
		ID:           uuid.NewString(),
		CJEventValue: cjEventValue,
		FlowID:       flowID,
		Created:      now,
		Expires:      now.Add(30 * 24 * time.Hour),
	}
	require.NoError(t, st.CreateCookie(context.Background(), c))
	return c
}

func seedSubscription(t *testing.T, st *store.Store, flowID, subscriptionID string) *models.Subscription {
	t.Helper()
	sub := &models.Subscription{
		ID:                  uuid.NewString(),
		FlowID:              flowID,
		SubscriptionID:      subscriptionID,
		ReportTimestamp:     time.Now().UTC(),
		SubscriptionCreated: time.Now().UTC(),
		FxaUID:              "fxa",
		Quantity:            1,
		PlanID:              "plan_monthly",
		PlanCurrency:        "usd",
		PlanAmount:          1499,
	}
	status.Advance(&sub.Block, status.NotReported)
	require.NoError(t, st.CreateSubscription(context.Background(), sub))
	return sub
}

// seedAttributedSubscription seeds a subscription already linked to a cookie
// with the given expiry.
func seedAttributedSubscription(t *testing.T, st *store.Store, flowID, subscriptionID string, aicExpires time.Time) *models.Subscription {
	t.Helper()
	aicID := uuid.NewString()
	cj := "cj-" + flowID
	sub := &models.Subscription{
		ID:                  uuid.NewString(),
		FlowID:              flowID,
		SubscriptionID:      subscriptionID,
		ReportTimestamp:     time.Now().UTC(),
		SubscriptionCreated: time.Now().UTC(),
		FxaUID:              "fxa",
		Quantity:            1,
		PlanID:              "plan_monthly",
		PlanCurrency:        "usd",
		PlanAmount:          1499,
		AICID:               &aicID,
		AICExpires:          &aicExpires,
		CJEventValue:        &cj,
	}
	status.Advance(&sub.Block, status.NotReported)
	require.NoError(t, st.CreateSubscription(context.Background(), sub))
	return sub
}

// stubRowSource serves a canned result set regardless of the SQL text.
type stubRowSource struct {
	columns []string
	rows    [][]interface{}
	err     error
}

func (s *stubRowSource) Query(_ context.Context, _ string) (*warehouse.ResultSet, error) {
	if s.err != nil {
		return nil, s.err
	}
	return warehouse.NewResultSet(s.columns, s.rows), nil
}

// stubReporter returns its scripted errors in order, then nil.
type stubReporter struct {
	errs  []error
	calls []string
}

func (s *stubReporter) Report(_ context.Context, sub *models.Subscription) error {
	s.calls = append(s.calls, sub.ID)
	if len(s.errs) == 0 {
		return nil
	}
	err := s.errs[0]
	s.errs = s.errs[1:]
	return err
}

// stubQuerier serves canned commission records.
type stubQuerier struct {
	records []affiliate.CommissionRecord
	err     error
}

func (s *stubQuerier) CommissionDetail(_ context.Context, _, _ time.Time) ([]affiliate.CommissionRecord, error) {
	return s.records, s.err
}

var subscriptionColumns = []string{
	"flow_id", "subscription_id", "report_timestamp", "subscription_created",
	"fxa_uid", "quantity", "plan_id", "plan_currency", "plan_amount",
	"country", "promotion_codes",
}

func subscriptionRow(flowID, subscriptionID string) []interface{} {
	return []interface{}{
		flowID, subscriptionID, "1647450897", "1647450897",
		"fxa", "1", "plan_monthly", "usd", "100",
		"us", nil,
	}
}

var refundColumns = []string{
	"refund_id", "subscription_id", "refund_created", "refund_amount",
	"refund_status", "refund_reason",
}

func refundRow(refundID, subscriptionID string, refundStatus interface{}) []interface{} {
	return []interface{}{refundID, subscriptionID, "1647450897", "100", refundStatus, nil}
}
