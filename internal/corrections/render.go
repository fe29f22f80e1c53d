package corrections

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mozilla-services/cjms-sub000/internal/store"
	"github.com/mozilla-services/cjms-sub000/pkg/config"
)

// Renderer produces the daily correction file the affiliate network ingests
// to reverse refunded conversions.
type Renderer struct {
	store *store.Store
	cid   string
	subid string
	log   *zap.SugaredLogger
}

func NewRenderer(cfg *config.Config, st *store.Store, log *zap.SugaredLogger) *Renderer {
	return &Renderer{store: st, cid: cfg.CJCID, subid: cfg.CJSubID, log: log}
}

// ForDay renders the correction file for day. Refund rows are joined to their
// subscription to obtain the conversion order id; a refund whose subscription
// has gone missing is logged and left out.
func (r *Renderer) ForDay(ctx context.Context, day time.Time) (string, error) {
	refunds, err := r.store.RefundsByCorrectionDate(ctx, day)
	if err != nil {
		return "", fmt.Errorf("failed to load refunds for correction file: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "&CID=%s\n", r.cid)
	fmt.Fprintf(&b, "&SUBID=%s\n", r.subid)
	for _, refund := range refunds {
		sub, err := r.store.SubscriptionBySubscriptionID(ctx, refund.SubscriptionID)
		if err != nil {
			r.log.Errorw("correction file: subscription lookup failed",
				"refund_id", refund.RefundID, "subscription_id", refund.SubscriptionID, "err", err)
			continue
		}
		fmt.Fprintf(&b, "RETRN,,%s\n", sub.ID)
	}
	return b.String(), nil
}

// ForToday renders the file for the current UTC day.
func (r *Renderer) ForToday(ctx context.Context) (string, error) {
	return r.ForDay(ctx, time.Now().UTC())
}
