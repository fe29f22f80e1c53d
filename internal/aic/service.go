package aic

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/mozilla-services/cjms-sub000/internal/models"
	"github.com/mozilla-services/cjms-sub000/internal/store"
	"github.com/mozilla-services/cjms-sub000/pkg/config"
)

// EmptyCJEventValue is the sentinel the facade sends for flow-only updates.
// It is treated as "same as the stored value".
const EmptyCJEventValue = "empty_cj_id"

// Service mints and refreshes attribution cookies on behalf of the facade.
type Service struct {
	store    *store.Store
	lifetime time.Duration
	log      *zap.SugaredLogger
}

func NewService(cfg *config.Config, st *store.Store, log *zap.SugaredLogger) *Service {
	return &Service{
		store:    st,
		lifetime: time.Duration(cfg.AICExpirationDays) * 24 * time.Hour,
		log:      log,
	}
}

// Create mints a new cookie with expires = created + lifetime.
func (s *Service) Create(ctx context.Context, cjEventValue, flowID string) (*models.AttributionCookie, error) {
	now := time.Now().UTC()
	c := &models.AttributionCookie{
		ID:           uuid.NewString(),
		CJEventValue: cjEventValue,
		FlowID:       flowID,
		Created:      now,
		Expires:      now.Add(s.lifetime),
	}
	if err := s.store.CreateCookie(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create attribution cookie: %w", err)
	}
	s.log.Infow("aic created", "aic_id", c.ID)
	return c, nil
}

// Update rewrites flow_id, and only refreshes created/expires when the caller
// supplies a cj event value different from the stored one. The sentinel and
// an empty value both mean "keep the stored value". Returns
// store.ErrNotFound for an unknown id.
func (s *Service) Update(ctx context.Context, id, flowID, cjEventValue string) (*models.AttributionCookie, error) {
	c, err := s.store.CookieByID(ctx, id)
	if err != nil {
		return nil, err
	}

	c.FlowID = flowID
	if cjEventValue != "" && cjEventValue != EmptyCJEventValue && cjEventValue != c.CJEventValue {
		now := time.Now().UTC()
		c.CJEventValue = cjEventValue
		c.Created = now
		c.Expires = now.Add(s.lifetime)
	}

	if err := s.store.UpdateCookie(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to update attribution cookie: %w", err)
	}
	s.log.Infow("aic updated", "aic_id", c.ID)
	return c, nil
}

var Module = fx.Options(
	fx.Provide(NewService),
)
