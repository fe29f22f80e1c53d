package affiliate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// DefaultCommissionDetailURL is the production commission-detail endpoint.
const DefaultCommissionDetailURL = "https://commissions.api.cj.com/records"

// CommissionRecord is one record returned by the commission-detail API.
// Original records correspond to conversions; originals=false rows are refund
// corrections.
type CommissionRecord struct {
	OrderID               string           `json:"order_id"`
	Original              bool             `json:"original"`
	SaleAmountPubCurrency float64          `json:"sale_amount_pub_currency"`
	Items                 []CommissionItem `json:"items"`
}

type CommissionItem struct {
	SKU string `json:"sku"`
}

// Querier reads back recorded conversions for verification.
type Querier struct {
	base string
	cid  string
	http *http.Client
	log  *zap.SugaredLogger
}

func NewQuerier(base, cid string, log *zap.SugaredLogger) *Querier {
	if base == "" {
		base = DefaultCommissionDetailURL
	}
	return &Querier{
		base: base,
		cid:  cid,
		http: &http.Client{Timeout: 30 * time.Second},
		log:  log,
	}
}

// CommissionDetail returns all records whose posting date falls inside
// [from, to].
func (q *Querier) CommissionDetail(ctx context.Context, from, to time.Time) ([]CommissionRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, q.base, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build commission detail request: %w", err)
	}
	params := url.Values{}
	params.Set("cid", q.cid)
	params.Set("since", from.UTC().Format("2006-01-02"))
	params.Set("before", to.UTC().Format("2006-01-02"))
	req.URL.RawQuery = params.Encode()

	resp, err := q.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: commission detail returned %d", ErrTransport, resp.StatusCode)
	}

	var body struct {
		Records []CommissionRecord `json:"records"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode commission detail response: %w", err)
	}
	q.log.Debugw("commission detail fetched", "records", len(body.Records))
	return body.Records, nil
}
