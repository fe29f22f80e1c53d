package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mozilla-services/cjms-sub000/internal/store"
	"github.com/mozilla-services/cjms-sub000/pkg/metrics"
)

// Cleanup archives attribution cookies whose expiry is in the past.
type Cleanup struct {
	store    *store.Store
	log      *zap.SugaredLogger
	Counters *metrics.JobCounters
}

func NewCleanup(st *store.Store, log *zap.SugaredLogger) *Cleanup {
	return &Cleanup{store: st, log: log, Counters: metrics.NewJobCounters("cleanup")}
}

func (j *Cleanup) Run(ctx context.Context) error {
	expired, err := j.store.ExpiredCookies(ctx, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to read expired cookies: %w", err)
	}

	for _, c := range expired {
		if err := j.store.ArchiveCookie(ctx, c); err != nil {
			if errors.Is(err, store.ErrConflict) {
				// A copy was archived earlier; the live row stays until the
				// conflict is resolved out of band.
				j.log.Warnw("cookie already archived", "aic_id", c.ID)
				j.Counters.Inc("conflict")
				continue
			}
			j.log.Errorw("failed to archive cookie", "aic_id", c.ID, "err", err)
			j.Counters.Inc("archive_fail")
			continue
		}
		j.Counters.Inc("archived")
	}

	j.Counters.LogSummary(j.log)
	return nil
}
