package jobs

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mozilla-services/cjms-sub000/internal/models"
	"github.com/mozilla-services/cjms-sub000/internal/status"
	"github.com/mozilla-services/cjms-sub000/internal/store"
	"github.com/mozilla-services/cjms-sub000/pkg/metrics"
)

// conversionReporter is the slice of the affiliate client this job uses.
type conversionReporter interface {
	Report(ctx context.Context, sub *models.Subscription) error
}

// ReportSubscriptions sends NotReported subscriptions to the affiliate
// network, or retires them locally when their cookie expired before the
// subscription existed.
type ReportSubscriptions struct {
	store    *store.Store
	reporter conversionReporter
	log      *zap.SugaredLogger
	Counters *metrics.JobCounters
}

func NewReportSubscriptions(st *store.Store, reporter conversionReporter, log *zap.SugaredLogger) *ReportSubscriptions {
	return &ReportSubscriptions{
		store:    st,
		reporter: reporter,
		log:      log,
		Counters: metrics.NewJobCounters("report_subscriptions"),
	}
}

func (j *ReportSubscriptions) Run(ctx context.Context) error {
	subs, err := j.store.SubscriptionsByStatus(ctx, status.NotReported)
	if err != nil {
		return fmt.Errorf("failed to read unreported subscriptions: %w", err)
	}

	for _, sub := range subs {
		// No usable cookie window means the conversion can never be claimed.
		if sub.AICExpires == nil || sub.AICExpires.Before(sub.SubscriptionCreated) {
			status.Advance(&sub.Block, status.WillNotReport)
			if err := j.store.UpdateSubscriptionStatus(ctx, sub); err != nil {
				j.log.Errorw("failed to retire subscription", "id", sub.ID, "err", err)
				j.Counters.Inc("update_fail")
				continue
			}
			j.Counters.Inc("will_not_report")
			continue
		}

		if err := j.reporter.Report(ctx, sub); err != nil {
			j.log.Warnw("conversion report failed, will retry next run", "oid", sub.ID, "err", err)
			// Re-append NotReported so the history records the attempt.
			status.Advance(&sub.Block, status.NotReported)
			if err := j.store.UpdateSubscriptionStatus(ctx, sub); err != nil {
				j.log.Errorw("failed to record retry attempt", "id", sub.ID, "err", err)
				j.Counters.Inc("update_fail")
				continue
			}
			j.Counters.Inc("report_fail")
			continue
		}

		status.Advance(&sub.Block, status.Reported)
		if err := j.store.UpdateSubscriptionStatus(ctx, sub); err != nil {
			// The row stays NotReported locally; the next run re-reports and
			// the network dedupes by order id.
			j.log.Errorw("reported but local write failed", "oid", sub.ID, "err", err)
			j.Counters.Inc("update_fail")
			continue
		}
		j.Counters.Inc("reported")
	}

	j.Counters.LogSummary(j.log)
	return nil
}
