package jobs

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mozilla-services/cjms-sub000/internal/platform/db"
	"github.com/mozilla-services/cjms-sub000/internal/store"
	"github.com/mozilla-services/cjms-sub000/pkg/config"
	"github.com/mozilla-services/cjms-sub000/pkg/logger"
)

// Runtime carries the per-process dependencies a one-shot job needs. It is
// built once in Main and threaded into the job function; there is no
// module-level mutable state.
type Runtime struct {
	Cfg   *config.Config
	Log   *zap.SugaredLogger
	DB    *gorm.DB
	Store *store.Store
}

// Main is the shared entrypoint for job binaries. It returns the process
// exit code: 0 on success, 1 when configuration is missing or the run
// aborts.
func Main(name string, run func(ctx context.Context, rt *Runtime) error) int {
	ctx := context.Background()

	cfg, err := config.New()
	if err != nil {
		zap.NewExample().Sugar().Errorf("%s: config error: %v", name, err)
		return 1
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		zap.NewExample().Sugar().Errorf("%s: logger error: %v", name, err)
		return 1
	}
	defer func() { _ = log.Sync() }()
	log = log.With("job", name)

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.SentryEnvironment,
		}); err != nil {
			log.Warnw("sentry init failed", "err", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	gdb, err := db.Open(log, cfg.DatabaseURL)
	if err != nil {
		log.Errorw("database unreachable", "err", err)
		sentry.CaptureException(err)
		return 1
	}
	defer func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	rt := &Runtime{Cfg: cfg, Log: log, DB: gdb, Store: store.New(gdb)}

	started := time.Now()
	if err := run(ctx, rt); err != nil {
		log.Errorw("job aborted", "err", err, "elapsed_ms", time.Since(started).Milliseconds())
		sentry.CaptureException(err)
		return 1
	}
	log.Infow("job complete", "elapsed_ms", time.Since(started).Milliseconds())
	return 0
}
