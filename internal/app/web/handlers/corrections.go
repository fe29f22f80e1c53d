package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mozilla-services/cjms-sub000/internal/corrections"
	"github.com/mozilla-services/cjms-sub000/pkg/config"
)

// BasicAuth guards the correction files with the shared secret. The sftp user
// is the expected username.
func BasicAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, password, ok := c.Request.BasicAuth()
		if !ok || password == "" {
			c.String(http.StatusUnauthorized, "Password missing.")
			c.Abort()
			return
		}
		if user != cfg.CJSFTPUser || password != cfg.Authentication {
			c.String(http.StatusUnauthorized, "Incorrect password.")
			c.Abort()
			return
		}
		c.Next()
	}
}

// DailyCorrections serves /corrections/daily/<YYYY-MM-DD>.csv.
func DailyCorrections(r *corrections.Renderer, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := strings.TrimSuffix(c.Param("day"), ".csv")
		day, err := time.Parse("2006-01-02", name)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
			return
		}
		body, err := r.ForDay(c.Request.Context(), day)
		if err != nil {
			log.Errorw("correction file render failed", "day", name, "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(body))
	}
}

// TodayCorrections serves the file for the current UTC day.
func TodayCorrections(r *corrections.Renderer, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := r.ForToday(c.Request.Context())
		if err != nil {
			log.Errorw("correction file render failed", "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(body))
	}
}

func RegisterCorrectionRoutes(r gin.IRouter, cfg *config.Config, renderer *corrections.Renderer, log *zap.SugaredLogger) {
	grp := r.Group("/corrections", BasicAuth(cfg))
	grp.GET("/daily/:day", DailyCorrections(renderer, log))
	grp.GET("/today.csv", TodayCorrections(renderer, log))
}
