package main

import (
	"context"
	"os"

	"github.com/mozilla-services/cjms-sub000/internal/affiliate"
	"github.com/mozilla-services/cjms-sub000/internal/jobs"
)

func main() {
	os.Exit(jobs.Main("report_subscriptions", func(ctx context.Context, rt *jobs.Runtime) error {
		reporter := affiliate.NewReporter(affiliate.DefaultReportURL, rt.Cfg, rt.Log)
		return jobs.NewReportSubscriptions(rt.Store, reporter, rt.Log).Run(ctx)
	}))
}
