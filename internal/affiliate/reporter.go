package affiliate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/biter777/countries"
	"go.uber.org/zap"

	"github.com/mozilla-services/cjms-sub000/internal/models"
	"github.com/mozilla-services/cjms-sub000/pkg/config"
)

// DefaultReportURL is the production server-to-server conversion endpoint.
const DefaultReportURL = "https://www.emjcd.com/u"

// ErrTransport covers HTTP failures and non-200 responses from the affiliate
// network. It is a per-row error: the subscription stays NotReported and is
// retried on the next scheduled run.
var ErrTransport = errors.New("affiliate: transport error")

const eventTimeLayout = "2006-01-02T15:04:05.000Z"

// Reporter submits conversions to the affiliate network.
type Reporter struct {
	base      string
	cid       string
	typ       string
	signature string
	http      *http.Client
	log       *zap.SugaredLogger
}

func NewReporter(base string, cfg *config.Config, log *zap.SugaredLogger) *Reporter {
	if base == "" {
		base = DefaultReportURL
	}
	return &Reporter{
		base:      base,
		cid:       cfg.CJCID,
		typ:       cfg.CJType,
		signature: cfg.CJSignature,
		http:      &http.Client{Timeout: 30 * time.Second},
		log:       log,
	}
}

// Report sends one conversion. The subscription id is the order id, which the
// network dedupes on, so a repeat send after a lost local write is harmless.
func (r *Reporter) Report(ctx context.Context, sub *models.Subscription) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.base, nil)
	if err != nil {
		return fmt.Errorf("failed to build report request: %w", err)
	}
	req.URL.RawQuery = r.query(sub).Encode()

	resp, err := r.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: affiliate returned %d", ErrTransport, resp.StatusCode)
	}
	return nil
}

func (r *Reporter) query(sub *models.Subscription) url.Values {
	cjEvent := "n/a"
	if sub.CJEventValue != nil && *sub.CJEventValue != "" {
		cjEvent = *sub.CJEventValue
	}

	q := url.Values{}
	q.Set("CID", r.cid)
	q.Set("TYPE", r.typ)
	q.Set("SIGNATURE", r.signature)
	q.Set("METHOD", "S2S")
	q.Set("CJEVENT", cjEvent)
	// Event time is truncated to the hour, UTC.
	q.Set("EVENTTIME", sub.SubscriptionCreated.UTC().Truncate(time.Hour).Format(eventTimeLayout))
	q.Set("OID", sub.ID)
	q.Set("CURRENCY", sub.PlanCurrency)
	q.Set("ITEM1", sub.PlanID)
	q.Set("AMT1", strconv.FormatFloat(float64(sub.PlanAmount)/100.0, 'f', 2, 64))
	q.Set("QTY1", strconv.Itoa(sub.Quantity))
	q.Set("CUST_COUNTRY", custCountry(sub.Country))
	return q
}

// custCountry maps an ISO-3166-1 alpha-2 country to alpha-3, or "N/A" when
// absent or unknown.
func custCountry(alpha2 *string) string {
	if alpha2 == nil || *alpha2 == "" {
		return "N/A"
	}
	c := countries.ByName(strings.ToUpper(*alpha2))
	if !c.IsValid() {
		return "N/A"
	}
	return c.Alpha3()
}
