package jobs

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mozilla-services/cjms-sub000/internal/status"
	"github.com/mozilla-services/cjms-sub000/internal/store"
	"github.com/mozilla-services/cjms-sub000/pkg/metrics"
)

// refundStatusSucceeded is the only upstream lifecycle tag that qualifies a
// refund for the correction file; an absent tag also qualifies.
const refundStatusSucceeded = "succeeded"

// BatchRefunds decides the correction outcome of every NotReported refund and
// stamps qualifying ones with today's correction-file date.
type BatchRefunds struct {
	store    *store.Store
	log      *zap.SugaredLogger
	Counters *metrics.JobCounters
	// now is swappable for tests.
	now func() time.Time
}

func NewBatchRefunds(st *store.Store, log *zap.SugaredLogger) *BatchRefunds {
	return &BatchRefunds{
		store:    st,
		log:      log,
		Counters: metrics.NewJobCounters("batch_refunds"),
		now:      time.Now,
	}
}

func (j *BatchRefunds) Run(ctx context.Context) error {
	refunds, err := j.store.RefundsByStatus(ctx, status.NotReported)
	if err != nil {
		return fmt.Errorf("failed to read unreported refunds: %w", err)
	}

	today := j.now().UTC().Truncate(24 * time.Hour)
	for _, r := range refunds {
		if r.RefundStatus == nil || *r.RefundStatus == refundStatusSucceeded {
			status.Advance(&r.Block, status.Reported)
			d := today
			r.CorrectionFileDate = &d
			j.Counters.Inc("reported")
		} else {
			status.Advance(&r.Block, status.WillNotReport)
			r.CorrectionFileDate = nil
			j.Counters.Inc("will_not_report")
		}
		if err := j.store.UpdateRefund(ctx, r); err != nil {
			j.log.Errorw("failed to update refund", "refund_id", r.RefundID, "err", err)
			j.Counters.Inc("update_fail")
		}
	}

	j.Counters.LogSummary(j.log)
	return nil
}
