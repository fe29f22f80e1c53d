package affiliate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mozilla-services/cjms-sub000/internal/models"
	"github.com/mozilla-services/cjms-sub000/pkg/config"
)

func testConfig() *config.Config {
	return &config.Config{
		CJCID:       "cid-1",
		CJType:      "type-1",
		CJSignature: "sig-1",
	}
}

func strPtr(s string) *string { return &s }

func testSubscription() *models.Subscription {
	return &models.Subscription{
		ID:                  "11111111-2222-3333-4444-555555555555",
		SubscriptionCreated: time.Date(2022, 3, 16, 17, 14, 57, 0, time.UTC),
		Quantity:            2,
		PlanID:              "plan_monthly",
		PlanCurrency:        "usd",
		PlanAmount:          1499,
		Country:             strPtr("us"),
		CJEventValue:        strPtr("cj-event-1"),
	}
}

func TestReporter_QueryParameters(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
	}))
	defer srv.Close()

	r := NewReporter(srv.URL, testConfig(), zap.NewNop().Sugar())
	require.NoError(t, r.Report(context.Background(), testSubscription()))

	assert.Equal(t, "cid-1", got.Get("CID"))
	assert.Equal(t, "type-1", got.Get("TYPE"))
	assert.Equal(t, "sig-1", got.Get("SIGNATURE"))
	assert.Equal(t, "S2S", got.Get("METHOD"))
	assert.Equal(t, "cj-event-1", got.Get("CJEVENT"))
	// truncated to the hour, UTC
	assert.Equal(t, "2022-03-16T17:00:00.000Z", got.Get("EVENTTIME"))
	assert.Equal(t, "11111111-2222-3333-4444-555555555555", got.Get("OID"))
	assert.Equal(t, "usd", got.Get("CURRENCY"))
	assert.Equal(t, "plan_monthly", got.Get("ITEM1"))
	assert.Equal(t, "14.99", got.Get("AMT1"))
	assert.Equal(t, "2", got.Get("QTY1"))
	assert.Equal(t, "USA", got.Get("CUST_COUNTRY"))
}

func TestReporter_MissingAttributionDefaults(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
	}))
	defer srv.Close()

	sub := testSubscription()
	sub.CJEventValue = nil
	sub.Country = nil

	r := NewReporter(srv.URL, testConfig(), zap.NewNop().Sugar())
	require.NoError(t, r.Report(context.Background(), sub))

	assert.Equal(t, "n/a", got.Get("CJEVENT"))
	assert.Equal(t, "N/A", got.Get("CUST_COUNTRY"))
}

func TestReporter_UnknownCountryIsNA(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
	}))
	defer srv.Close()

	sub := testSubscription()
	sub.Country = strPtr("zz")

	r := NewReporter(srv.URL, testConfig(), zap.NewNop().Sugar())
	require.NoError(t, r.Report(context.Background(), sub))
	assert.Equal(t, "N/A", got.Get("CUST_COUNTRY"))
}

func TestReporter_Non200IsTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := NewReporter(srv.URL, testConfig(), zap.NewNop().Sugar())
	err := r.Report(context.Background(), testSubscription())
	assert.ErrorIs(t, err, ErrTransport)
}

func TestQuerier_CommissionDetail(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		require.NoError(t, json.NewEncoder(w).Encode(map[string]interface{}{
			"records": []map[string]interface{}{
				{
					"order_id":                 "oid-1",
					"original":                 true,
					"sale_amount_pub_currency": 14.99,
					"items":                    []map[string]string{{"sku": "plan_monthly"}},
				},
			},
		}))
	}))
	defer srv.Close()

	q := NewQuerier(srv.URL, "cid-1", zap.NewNop().Sugar())
	from := time.Date(2022, 3, 16, 10, 0, 0, 0, time.UTC)
	to := time.Date(2022, 3, 18, 10, 0, 0, 0, time.UTC)
	records, err := q.CommissionDetail(context.Background(), from, to)
	require.NoError(t, err)

	assert.Equal(t, "cid-1", got.Get("cid"))
	assert.Equal(t, "2022-03-16", got.Get("since"))
	assert.Equal(t, "2022-03-18", got.Get("before"))

	require.Len(t, records, 1)
	assert.Equal(t, "oid-1", records[0].OrderID)
	assert.True(t, records[0].Original)
	assert.Equal(t, 14.99, records[0].SaleAmountPubCurrency)
	require.Len(t, records[0].Items, 1)
	assert.Equal(t, "plan_monthly", records[0].Items[0].SKU)
}
