package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mozilla-services/cjms-sub000/pkg/version"
)

func Index(c *gin.Context) {
	c.String(http.StatusOK, "cjms - attribution reporting pipeline")
}

// Heartbeat checks the database connection.
func Heartbeat(db *gorm.DB, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			log.Errorw("heartbeat failed", "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"status": "db unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func LBHeartbeat(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Version serves the build-time version.yaml.
func Version(path string, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		info, err := version.Read(path)
		if err != nil {
			log.Errorw("version file unreadable", "path", path, "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, info)
	}
}

func RegisterHealthRoutes(r gin.IRouter, db *gorm.DB, versionFile string, log *zap.SugaredLogger) {
	r.GET("/", Index)
	r.GET("/__heartbeat__", Heartbeat(db, log))
	r.GET("/__lbheartbeat__", LBHeartbeat)
	r.GET("/__version__", Version(versionFile, log))
}
