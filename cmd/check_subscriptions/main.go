package main

import (
	"context"
	"os"

	"github.com/mozilla-services/cjms-sub000/internal/jobs"
	"github.com/mozilla-services/cjms-sub000/internal/warehouse"
)

func main() {
	os.Exit(jobs.Main("check_subscriptions", func(ctx context.Context, rt *jobs.Runtime) error {
		tokens := warehouse.NewTokenSource(rt.Cfg.Environment)
		wh := warehouse.NewClient(warehouse.DefaultBaseURL, rt.Cfg.GCPProject, tokens, rt.Log)
		return jobs.NewCheckSubscriptions(rt.Store, wh, rt.Cfg.GCPProject, rt.Log).Run(ctx)
	}))
}
