package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/mozilla-services/cjms-sub000/internal/aic"
	"github.com/mozilla-services/cjms-sub000/internal/app/web"
	"github.com/mozilla-services/cjms-sub000/internal/platform/db"
	"github.com/mozilla-services/cjms-sub000/internal/store"
	"github.com/mozilla-services/cjms-sub000/pkg/config"
	"github.com/mozilla-services/cjms-sub000/pkg/logger"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

// Module wires the long-lived web process: the facade endpoints plus the
// correction-file surface.
var Module = fx.Options(
	config.Module,
	logger.Module,
	db.Module,
	fx.Provide(store.New),
	aic.Module,
	web.Module,
)
