package handlers

import (
	"fmt"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mozilla-services/cjms-sub000/internal/models"
	"github.com/mozilla-services/cjms-sub000/internal/store"
	"github.com/mozilla-services/cjms-sub000/pkg/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.AttributionCookie{},
		&models.ArchivedAttributionCookie{},
		&models.Subscription{},
		&models.Refund{},
	))
	return db
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(newTestDB(t))
}

func testConfig() *config.Config {
	return &config.Config{
		Authentication:    "sekret",
		CJCID:             "1234567",
		CJSignature:       "sig",
		CJSubID:           "subid",
		CJType:            "424242",
		CJSFTPUser:        "cjsftp",
		AICExpirationDays: 30,
		Environment:       config.EnvLocal,
	}
}

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
