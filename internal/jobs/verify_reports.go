package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/mozilla-services/cjms-sub000/internal/affiliate"
	"github.com/mozilla-services/cjms-sub000/internal/models"
	"github.com/mozilla-services/cjms-sub000/internal/status"
	"github.com/mozilla-services/cjms-sub000/internal/store"
	"github.com/mozilla-services/cjms-sub000/pkg/metrics"
)

// graceWindow is how long a reported conversion may stay unmatched before it
// is written off as not received.
const graceWindow = 36 * time.Hour

// commissionQuerier is the slice of the affiliate client this job uses.
type commissionQuerier interface {
	CommissionDetail(ctx context.Context, from, to time.Time) ([]affiliate.CommissionRecord, error)
}

// VerifyReports cross-references Reported subscriptions with the affiliate
// network's commission records.
type VerifyReports struct {
	store    *store.Store
	querier  commissionQuerier
	log      *zap.SugaredLogger
	Counters *metrics.JobCounters
	// now is swappable for tests.
	now func() time.Time
}

func NewVerifyReports(st *store.Store, querier commissionQuerier, log *zap.SugaredLogger) *VerifyReports {
	return &VerifyReports{
		store:    st,
		querier:  querier,
		log:      log,
		Counters: metrics.NewJobCounters("verify_reports"),
		now:      time.Now,
	}
}

func (j *VerifyReports) Run(ctx context.Context) error {
	subs, err := j.store.SubscriptionsByStatus(ctx, status.Reported)
	if err != nil {
		return fmt.Errorf("failed to read reported subscriptions: %w", err)
	}
	if len(subs) == 0 {
		j.log.Infow("no reported subscriptions to verify")
		return nil
	}

	from, to := statusWindow(subs)
	records, err := j.querier.CommissionDetail(ctx, from, to.Add(24*time.Hour))
	if err != nil {
		return fmt.Errorf("commission detail query failed: %w", err)
	}

	// Non-original records are refund corrections, handled elsewhere.
	originals := lo.Filter(records, func(r affiliate.CommissionRecord, _ int) bool {
		return r.Original
	})
	byOrderID := lo.GroupBy(originals, func(r affiliate.CommissionRecord) string {
		return r.OrderID
	})

	now := j.now().UTC()
	for _, sub := range subs {
		matches := byOrderID[sub.ID]
		switch len(matches) {
		case 0:
			if sub.StatusT != nil && now.Sub(*sub.StatusT) > graceWindow {
				j.advance(ctx, sub, status.CJNotReceived, "not_received")
			} else {
				// Within the grace window; revisit next run.
				j.Counters.Inc("pending")
			}
		case 1:
			if recordMatches(matches[0], sub) {
				j.advance(ctx, sub, status.CJReceived, "received")
			} else {
				j.advance(ctx, sub, status.CJNotReceived, "mismatch")
			}
		default:
			j.log.Warnw("multiple commission records for order", "oid", sub.ID, "count", len(matches))
			j.Counters.Inc("ambiguous")
		}
	}

	j.Counters.LogSummary(j.log)
	return nil
}

func (j *VerifyReports) advance(ctx context.Context, sub *models.Subscription, next status.Status, outcome string) {
	status.Advance(&sub.Block, next)
	if err := j.store.UpdateSubscriptionStatus(ctx, sub); err != nil {
		j.log.Errorw("failed to update subscription", "id", sub.ID, "err", err)
		j.Counters.Inc("update_fail")
		return
	}
	j.Counters.Inc(outcome)
}

func recordMatches(rec affiliate.CommissionRecord, sub *models.Subscription) bool {
	skuMatch := lo.SomeBy(rec.Items, func(item affiliate.CommissionItem) bool {
		return item.SKU == sub.PlanID
	})
	return skuMatch && rec.SaleAmountPubCurrency == float64(sub.PlanAmount)/100.0
}

// statusWindow returns the min and max status_t across the subscriptions.
func statusWindow(subs []*models.Subscription) (time.Time, time.Time) {
	var from, to time.Time
	for _, sub := range subs {
		if sub.StatusT == nil {
			continue
		}
		t := *sub.StatusT
		if from.IsZero() || t.Before(from) {
			from = t
		}
		if to.IsZero() || t.After(to) {
			to = t
		}
	}
	return from, to
}
