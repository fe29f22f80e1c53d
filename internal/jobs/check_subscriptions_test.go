package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mozilla-services/cjms-sub000/internal/status"
	"github.com/mozilla-services/cjms-sub000/internal/store"
)

func TestCheckSubscriptions_HappyPathLinksAndArchives(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	cookie := seedCookie(t, st, "FX", "CJX")

	src := &stubRowSource{columns: subscriptionColumns, rows: [][]interface{}{
		subscriptionRow("FX", "sub_1"),
	}}
	job := NewCheckSubscriptions(st, src, "proj", testLogger())
	require.NoError(t, job.Run(ctx))

	sub, err := st.SubscriptionByFlowID(ctx, "FX")
	require.NoError(t, err)
	require.NotNil(t, sub.Status)
	assert.Equal(t, status.NotReported, *sub.Status)
	require.NotNil(t, sub.AICID)
	assert.Equal(t, cookie.ID, *sub.AICID)
	require.NotNil(t, sub.CJEventValue)
	assert.Equal(t, "CJX", *sub.CJEventValue)
	require.NotNil(t, sub.AICExpires)
	assert.True(t, sub.AICExpires.Equal(cookie.Expires))
	assert.True(t, sub.SubscriptionCreated.Equal(time.Date(2022, 3, 16, 17, 14, 57, 0, time.UTC)))

	// cookie moved to the archive
	_, err = st.CookieByFlowID(ctx, "FX")
	assert.ErrorIs(t, err, store.ErrNotFound)
	archived, err := st.ArchivedCookieByFlowID(ctx, "FX")
	require.NoError(t, err)
	assert.Equal(t, cookie.ID, archived.ID)

	assert.Equal(t, 1, job.Counters.Count("deserialize_ok"))
	assert.Equal(t, 1, job.Counters.Count("created"))
}

func TestCheckSubscriptions_OrphanRowIsSkipped(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	src := &stubRowSource{columns: subscriptionColumns, rows: [][]interface{}{
		subscriptionRow("UNKNOWN", "sub_1"),
	}}
	job := NewCheckSubscriptions(st, src, "proj", testLogger())
	require.NoError(t, job.Run(ctx))

	_, err := st.SubscriptionByFlowID(ctx, "UNKNOWN")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, 1, job.Counters.Count("deserialize_ok"))
	assert.Equal(t, 1, job.Counters.Count("no_aic"))
}

func TestCheckSubscriptions_ArchivedCookieStillLinks(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	cookie := seedCookie(t, st, "FX", "CJX")
	require.NoError(t, st.ArchiveCookie(ctx, cookie))

	src := &stubRowSource{columns: subscriptionColumns, rows: [][]interface{}{
		subscriptionRow("FX", "sub_1"),
	}}
	job := NewCheckSubscriptions(st, src, "proj", testLogger())
	require.NoError(t, job.Run(ctx))

	sub, err := st.SubscriptionByFlowID(ctx, "FX")
	require.NoError(t, err)
	require.NotNil(t, sub.AICID)
	assert.Equal(t, cookie.ID, *sub.AICID)
	assert.Equal(t, 1, job.Counters.Count("created"))
}

func TestCheckSubscriptions_DuplicateRowLosesQuietly(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	seedCookie(t, st, "FX", "CJX")

	src := &stubRowSource{columns: subscriptionColumns, rows: [][]interface{}{
		subscriptionRow("FX", "sub_1"),
		subscriptionRow("FX", "sub_1"),
	}}
	job := NewCheckSubscriptions(st, src, "proj", testLogger())
	require.NoError(t, job.Run(ctx))

	assert.Equal(t, 1, job.Counters.Count("created"))
	assert.Equal(t, 1, job.Counters.Count("conflict"))
}

func TestCheckSubscriptions_BadRowIsCountedAndSkipped(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	seedCookie(t, st, "FX", "CJX")

	badRow := subscriptionRow("FX", "sub_1")
	badRow[8] = nil // plan_amount
	src := &stubRowSource{columns: subscriptionColumns, rows: [][]interface{}{badRow}}
	job := NewCheckSubscriptions(st, src, "proj", testLogger())
	require.NoError(t, job.Run(ctx))

	assert.Equal(t, 1, job.Counters.Count("deserialize_fail"))
	assert.Equal(t, 0, job.Counters.Count("created"))
}

func TestCheckSubscriptions_WarehouseFailureAborts(t *testing.T) {
	st := newTestStore(t)
	src := &stubRowSource{err: assert.AnError}
	job := NewCheckSubscriptions(st, src, "proj", testLogger())
	assert.Error(t, job.Run(context.Background()))
}
