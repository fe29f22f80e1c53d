package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mozilla-services/cjms-sub000/internal/aic"
	"github.com/mozilla-services/cjms-sub000/internal/app/web/handlers"
	"github.com/mozilla-services/cjms-sub000/internal/corrections"
	cfgpkg "github.com/mozilla-services/cjms-sub000/pkg/config"
	"github.com/mozilla-services/cjms-sub000/pkg/metrics"
	"github.com/mozilla-services/cjms-sub000/pkg/version"
)

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.HandleMethodNotAllowed = true
	return r
}

func registerRoutes(r *gin.Engine, log *zap.SugaredLogger, cfg *cfgpkg.Config, db *gorm.DB, aicSvc *aic.Service, renderer *corrections.Renderer) {
	metrics.Use(r)
	handlers.RegisterHealthRoutes(r, db, version.DefaultFile, log)
	handlers.RegisterAICRoutes(r, aicSvc, log)
	handlers.RegisterCorrectionRoutes(r, cfg, renderer, log)
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Errorf("server error: %v", err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(newEngine),
	fx.Provide(corrections.NewRenderer),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
)
