package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mozilla-services/cjms-sub000/internal/models"
	"github.com/mozilla-services/cjms-sub000/internal/status"
	"github.com/mozilla-services/cjms-sub000/internal/store"
	"github.com/mozilla-services/cjms-sub000/internal/warehouse"
	"github.com/mozilla-services/cjms-sub000/pkg/metrics"
)

// CheckSubscriptions ingests new subscription rows from the warehouse, links
// each to its attribution cookie and inserts it as NotReported.
type CheckSubscriptions struct {
	store    *store.Store
	src      rowSource
	project  string
	log      *zap.SugaredLogger
	Counters *metrics.JobCounters
}

func NewCheckSubscriptions(st *store.Store, src rowSource, project string, log *zap.SugaredLogger) *CheckSubscriptions {
	return &CheckSubscriptions{
		store:    st,
		src:      src,
		project:  project,
		log:      log,
		Counters: metrics.NewJobCounters("check_subscriptions"),
	}
}

func (j *CheckSubscriptions) Run(ctx context.Context) error {
	rs, err := j.src.Query(ctx, subscriptionsQuery(j.project))
	if err != nil {
		return fmt.Errorf("subscriptions query failed: %w", err)
	}
	j.log.Infow("subscription rows fetched", "count", rs.RowCount())

	for rs.NextRow() {
		sub, err := subscriptionFromRow(rs)
		if err != nil {
			j.log.Errorw("failed to decode subscription row", "err", err)
			j.Counters.Inc("deserialize_fail")
			continue
		}
		j.Counters.Inc("deserialize_ok")
		j.ingest(ctx, sub)
	}

	j.Counters.LogSummary(j.log)
	return nil
}

// ingest links one subscription to its cookie and stores it. Each row is
// independent; the archive step and the insert are deliberately not one
// transaction, so a failed insert after archival is repaired on the next run
// by the archive lookup.
func (j *CheckSubscriptions) ingest(ctx context.Context, sub *models.Subscription) {
	cookie, err := j.store.CookieByFlowID(ctx, sub.FlowID)
	switch {
	case err == nil:
		sub.AICID = &cookie.ID
		sub.AICExpires = &cookie.Expires
		sub.CJEventValue = &cookie.CJEventValue
		if err := j.store.ArchiveCookie(ctx, cookie); err != nil {
			if errors.Is(err, store.ErrConflict) {
				j.log.Warnw("cookie already archived", "aic_id", cookie.ID, "flow_id", sub.FlowID)
				j.Counters.Inc("archive_conflict")
			} else {
				j.log.Errorw("failed to archive cookie", "aic_id", cookie.ID, "err", err)
				j.Counters.Inc("archive_fail")
				return
			}
		}
	case errors.Is(err, store.ErrNotFound):
		archived, err := j.store.ArchivedCookieByFlowID(ctx, sub.FlowID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				j.log.Warnw("no aic for flow", "flow_id", sub.FlowID)
				j.Counters.Inc("no_aic")
			} else {
				j.log.Errorw("archived cookie lookup failed", "flow_id", sub.FlowID, "err", err)
				j.Counters.Inc("lookup_fail")
			}
			return
		}
		sub.AICID = &archived.ID
		sub.AICExpires = &archived.Expires
		sub.CJEventValue = &archived.CJEventValue
	default:
		j.log.Errorw("cookie lookup failed", "flow_id", sub.FlowID, "err", err)
		j.Counters.Inc("lookup_fail")
		return
	}

	status.Advance(&sub.Block, status.NotReported)
	if err := j.store.CreateSubscription(ctx, sub); err != nil {
		if errors.Is(err, store.ErrConflict) {
			// The first ingester wins.
			j.log.Warnw("subscription already ingested", "flow_id", sub.FlowID, "subscription_id", sub.SubscriptionID)
			j.Counters.Inc("conflict")
		} else {
			j.log.Errorw("failed to insert subscription", "flow_id", sub.FlowID, "err", err)
			j.Counters.Inc("insert_fail")
		}
		return
	}
	j.Counters.Inc("created")
}

func subscriptionFromRow(rs *warehouse.ResultSet) (*models.Subscription, error) {
	flowID, err := rs.RequireStringByName("flow_id")
	if err != nil {
		return nil, err
	}
	subscriptionID, err := rs.RequireStringByName("subscription_id")
	if err != nil {
		return nil, err
	}
	reportTimestamp, err := rs.RequireTimestampByName("report_timestamp")
	if err != nil {
		return nil, err
	}
	subscriptionCreated, err := rs.RequireTimestampByName("subscription_created")
	if err != nil {
		return nil, err
	}
	fxaUID, err := rs.RequireStringByName("fxa_uid")
	if err != nil {
		return nil, err
	}
	quantity, err := rs.RequireInt64ByName("quantity")
	if err != nil {
		return nil, err
	}
	planID, err := rs.RequireStringByName("plan_id")
	if err != nil {
		return nil, err
	}
	planCurrency, err := rs.RequireStringByName("plan_currency")
	if err != nil {
		return nil, err
	}
	planAmount, err := rs.RequireInt64ByName("plan_amount")
	if err != nil {
		return nil, err
	}

	sub := &models.Subscription{
		ID:                  uuid.NewString(),
		FlowID:              flowID,
		SubscriptionID:      subscriptionID,
		ReportTimestamp:     reportTimestamp,
		SubscriptionCreated: subscriptionCreated,
		FxaUID:              fxaUID,
		Quantity:            int(quantity),
		PlanID:              planID,
		PlanCurrency:        planCurrency,
		PlanAmount:          planAmount,
	}
	if country, ok, err := rs.GetStringByName("country"); err != nil {
		return nil, err
	} else if ok {
		sub.Country = &country
	}
	if codes, ok, err := rs.GetCommaSeparatedByName("promotion_codes"); err != nil {
		return nil, err
	} else if ok {
		sub.PromotionCodes = &codes
	}
	return sub, nil
}
