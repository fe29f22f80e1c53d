package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mozilla-services/cjms-sub000/internal/affiliate"
	"github.com/mozilla-services/cjms-sub000/internal/status"
)

func TestReportSubscriptions_ExpiredCookieWillNotReport(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	seedAttributedSubscription(t, st, "F1", "sub_1", time.Now().UTC().Add(-time.Hour))

	reporter := &stubReporter{}
	job := NewReportSubscriptions(st, reporter, testLogger())
	require.NoError(t, job.Run(ctx))

	// no HTTP call was made
	assert.Empty(t, reporter.calls)

	got, err := st.SubscriptionByFlowID(ctx, "F1")
	require.NoError(t, err)
	assert.Equal(t, status.WillNotReport, *got.Status)
	assert.Equal(t, 1, job.Counters.Count("will_not_report"))
}

func TestReportSubscriptions_MissingCookieExpiryWillNotReport(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	seedSubscription(t, st, "F1", "sub_1")

	reporter := &stubReporter{}
	job := NewReportSubscriptions(st, reporter, testLogger())
	require.NoError(t, job.Run(ctx))

	got, err := st.SubscriptionByFlowID(ctx, "F1")
	require.NoError(t, err)
	assert.Equal(t, status.WillNotReport, *got.Status)
	assert.Empty(t, reporter.calls)
}

func TestReportSubscriptions_FailureThenSuccess(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	seedAttributedSubscription(t, st, "F1", "sub_1", time.Now().UTC().Add(30*24*time.Hour))

	// first run: affiliate 500
	job := NewReportSubscriptions(st, &stubReporter{errs: []error{affiliate.ErrTransport}}, testLogger())
	require.NoError(t, job.Run(ctx))

	got, err := st.SubscriptionByFlowID(ctx, "F1")
	require.NoError(t, err)
	assert.Equal(t, status.NotReported, *got.Status)
	history := got.History()
	require.Len(t, history, 2)
	assert.Equal(t, status.NotReported, history[0].Status)
	assert.Equal(t, status.NotReported, history[1].Status)
	assert.Equal(t, 1, job.Counters.Count("report_fail"))

	// second run: affiliate 200
	job2 := NewReportSubscriptions(st, &stubReporter{}, testLogger())
	require.NoError(t, job2.Run(ctx))

	got, err = st.SubscriptionByFlowID(ctx, "F1")
	require.NoError(t, err)
	assert.Equal(t, status.Reported, *got.Status)
	assert.Len(t, got.History(), 3)
	assert.Equal(t, 1, job2.Counters.Count("reported"))
}

func TestReportSubscriptions_ReportedRowsUntouched(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	sub := seedAttributedSubscription(t, st, "F1", "sub_1", time.Now().UTC().Add(time.Hour))
	status.Advance(&sub.Block, status.Reported)
	require.NoError(t, st.UpdateSubscriptionStatus(ctx, sub))

	reporter := &stubReporter{}
	job := NewReportSubscriptions(st, reporter, testLogger())
	require.NoError(t, job.Run(ctx))
	assert.Empty(t, reporter.calls)
}
