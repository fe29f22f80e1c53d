package main

import (
	"context"
	"os"

	"github.com/mozilla-services/cjms-sub000/internal/jobs"
)

func main() {
	os.Exit(jobs.Main("batch_refunds", func(ctx context.Context, rt *jobs.Runtime) error {
		return jobs.NewBatchRefunds(rt.Store, rt.Log).Run(ctx)
	}))
}
