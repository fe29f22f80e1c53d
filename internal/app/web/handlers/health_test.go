package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mozilla-services/cjms-sub000/pkg/version"
)

func TestHealthRoutes(t *testing.T) {
	db := newTestDB(t)
	versionFile := filepath.Join(t.TempDir(), "version.yaml")
	require.NoError(t, version.Write(versionFile, &version.Info{
		Commit:  "abc123",
		Source:  "https://github.com/mozilla-services/cjms-sub000",
		Version: "1.2.3",
	}))

	r := gin.New()
	RegisterHealthRoutes(r, db, versionFile, testLogger())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cjms")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/__lbheartbeat__", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/__heartbeat__", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/__version__", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var info version.Info
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "abc123", info.Commit)
	assert.Equal(t, "1.2.3", info.Version)
}

func TestVersion_MissingFile(t *testing.T) {
	r := gin.New()
	r.GET("/__version__", Version("does-not-exist.yaml", testLogger()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/__version__", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
