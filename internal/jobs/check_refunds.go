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

// CheckRefunds ingests refund rows, inserting new ones and resetting the
// reporting state of existing ones whose mutable fields changed.
type CheckRefunds struct {
	store    *store.Store
	src      rowSource
	project  string
	log      *zap.SugaredLogger
	Counters *metrics.JobCounters
}

func NewCheckRefunds(st *store.Store, src rowSource, project string, log *zap.SugaredLogger) *CheckRefunds {
	return &CheckRefunds{
		store:    st,
		src:      src,
		project:  project,
		log:      log,
		Counters: metrics.NewJobCounters("check_refunds"),
	}
}

func (j *CheckRefunds) Run(ctx context.Context) error {
	rs, err := j.src.Query(ctx, refundsQuery(j.project))
	if err != nil {
		return fmt.Errorf("refunds query failed: %w", err)
	}
	j.log.Infow("refund rows fetched", "count", rs.RowCount())

	for rs.NextRow() {
		refund, err := refundFromRow(rs)
		if err != nil {
			j.log.Errorw("failed to decode refund row", "err", err)
			j.Counters.Inc("deserialize_fail")
			continue
		}
		j.Counters.Inc("deserialize_ok")
		j.ingest(ctx, refund)
	}

	j.Counters.LogSummary(j.log)
	return nil
}

func (j *CheckRefunds) ingest(ctx context.Context, incoming *models.Refund) {
	// A refund without a matching subscription is never inserted.
	if _, err := j.store.SubscriptionBySubscriptionID(ctx, incoming.SubscriptionID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			j.log.Warnw("refund has no matching subscription", "refund_id", incoming.RefundID, "subscription_id", incoming.SubscriptionID)
			j.Counters.Inc("no_subscription")
		} else {
			j.log.Errorw("subscription lookup failed", "refund_id", incoming.RefundID, "err", err)
			j.Counters.Inc("lookup_fail")
		}
		return
	}

	existing, err := j.store.RefundByRefundID(ctx, incoming.RefundID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		status.Advance(&incoming.Block, status.NotReported)
		if err := j.store.CreateRefund(ctx, incoming); err != nil {
			if errors.Is(err, store.ErrConflict) {
				j.log.Warnw("refund already ingested", "refund_id", incoming.RefundID)
				j.Counters.Inc("conflict")
			} else {
				j.log.Errorw("failed to insert refund", "refund_id", incoming.RefundID, "err", err)
				j.Counters.Inc("insert_fail")
			}
			return
		}
		j.Counters.Inc("created")
	case err != nil:
		j.log.Errorw("refund lookup failed", "refund_id", incoming.RefundID, "err", err)
		j.Counters.Inc("lookup_fail")
	case existing.MutableFieldsEqual(incoming):
		j.Counters.Inc("unchanged")
	default:
		existing.SubscriptionID = incoming.SubscriptionID
		existing.RefundCreated = incoming.RefundCreated
		existing.RefundAmount = incoming.RefundAmount
		existing.RefundStatus = incoming.RefundStatus
		existing.RefundReason = incoming.RefundReason
		existing.CorrectionFileDate = nil
		status.Advance(&existing.Block, status.NotReported)
		if err := j.store.UpdateRefund(ctx, existing); err != nil {
			j.log.Errorw("failed to update refund", "refund_id", existing.RefundID, "err", err)
			j.Counters.Inc("update_fail")
			return
		}
		j.Counters.Inc("updated")
	}
}

func refundFromRow(rs *warehouse.ResultSet) (*models.Refund, error) {
	refundID, err := rs.RequireStringByName("refund_id")
	if err != nil {
		return nil, err
	}
	subscriptionID, err := rs.RequireStringByName("subscription_id")
	if err != nil {
		return nil, err
	}
	refundCreated, err := rs.RequireTimestampByName("refund_created")
	if err != nil {
		return nil, err
	}
	refundAmount, err := rs.RequireInt64ByName("refund_amount")
	if err != nil {
		return nil, err
	}

	refund := &models.Refund{
		ID:             uuid.NewString(),
		RefundID:       refundID,
		SubscriptionID: subscriptionID,
		RefundCreated:  refundCreated,
		RefundAmount:   refundAmount,
	}
	if st, ok, err := rs.GetStringByName("refund_status"); err != nil {
		return nil, err
	} else if ok {
		refund.RefundStatus = &st
	}
	if reason, ok, err := rs.GetStringByName("refund_reason"); err != nil {
		return nil, err
	} else if ok {
		refund.RefundReason = &reason
	}
	return refund, nil
}
