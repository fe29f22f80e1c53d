package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mozilla-services/cjms-sub000/internal/aic"
	"github.com/mozilla-services/cjms-sub000/internal/store"
)

type aicRequest struct {
	FlowID string `json:"flow_id" binding:"required"`
	CJID   string `json:"cj_id"`
}

type aicResponse struct {
	AICID   string    `json:"aic_id"`
	Expires time.Time `json:"expires"`
}

// CreateAIC mints a new attribution cookie for a landing flow.
func CreateAIC(svc *aic.Service, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req aicRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		cookie, err := svc.Create(c.Request.Context(), req.CJID, req.FlowID)
		if err != nil {
			log.Errorw("aic create failed", "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusCreated, aicResponse{AICID: cookie.ID, Expires: cookie.Expires})
	}
}

// UpdateAIC rewrites the flow id of an existing cookie, refreshing its
// lifetime only when the cj event value actually changed.
func UpdateAIC(svc *aic.Service, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req aicRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		cookie, err := svc.Update(c.Request.Context(), c.Param("id"), req.FlowID, req.CJID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "unknown aic id"})
				return
			}
			log.Errorw("aic update failed", "aic_id", c.Param("id"), "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusCreated, aicResponse{AICID: cookie.ID, Expires: cookie.Expires})
	}
}

func RegisterAICRoutes(r gin.IRouter, svc *aic.Service, log *zap.SugaredLogger) {
	r.POST("/aic", CreateAIC(svc, log))
	r.PUT("/aic/:id", UpdateAIC(svc, log))
}
