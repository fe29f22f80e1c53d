package main

import (
	"context"
	"os"

	"github.com/mozilla-services/cjms-sub000/internal/jobs"
)

func main() {
	os.Exit(jobs.Main("cleanup", func(ctx context.Context, rt *jobs.Runtime) error {
		return jobs.NewCleanup(rt.Store, rt.Log).Run(ctx)
	}))
}
