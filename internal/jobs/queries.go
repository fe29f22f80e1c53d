package jobs

import (
	"context"
	"fmt"

	"github.com/mozilla-services/cjms-sub000/internal/warehouse"
)

// The warehouse views are maintained by the data platform; the jobs only
// consume them.
const (
	subscriptionsQueryTmpl = "SELECT * FROM `%s.cjms_bigquery.subscriptions_v1`;"
	refundsQueryTmpl       = "SELECT * FROM `%s.cjms_bigquery.refunds_v1`;"
)

// rowSource is the narrow slice of the warehouse client the ingest jobs use.
type rowSource interface {
	Query(ctx context.Context, sql string) (*warehouse.ResultSet, error)
}

func subscriptionsQuery(project string) string {
	return fmt.Sprintf(subscriptionsQueryTmpl, project)
}

func refundsQuery(project string) string {
	return fmt.Sprintf(refundsQueryTmpl, project)
}
