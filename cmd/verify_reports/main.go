package main

import (
	"context"
	"os"

	"github.com/mozilla-services/cjms-sub000/internal/affiliate"
	"github.com/mozilla-services/cjms-sub000/internal/jobs"
)

func main() {
	os.Exit(jobs.Main("verify_reports", func(ctx context.Context, rt *jobs.Runtime) error {
		querier := affiliate.NewQuerier(affiliate.DefaultCommissionDetailURL, rt.Cfg.CJCID, rt.Log)
		return jobs.NewVerifyReports(rt.Store, querier, rt.Log).Run(ctx)
	}))
}
