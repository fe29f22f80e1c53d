package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mozilla-services/cjms-sub000/internal/models"
)

func (s *Store) CreateCookie(ctx context.Context, c *models.AttributionCookie) error {
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("failed to create aic row: %w", translate(err))
	}
	return nil
}

func (s *Store) CookieByID(ctx context.Context, id string) (*models.AttributionCookie, error) {
	var c models.AttributionCookie
	if err := s.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *Store) CookieByFlowID(ctx context.Context, flowID string) (*models.AttributionCookie, error) {
	var c models.AttributionCookie
	if err := s.db.WithContext(ctx).First(&c, "flow_id = ?", flowID).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *Store) ArchivedCookieByFlowID(ctx context.Context, flowID string) (*models.ArchivedAttributionCookie, error) {
	var c models.ArchivedAttributionCookie
	if err := s.db.WithContext(ctx).First(&c, "flow_id = ?", flowID).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *Store) UpdateCookie(ctx context.Context, c *models.AttributionCookie) error {
	res := s.db.WithContext(ctx).Model(&models.AttributionCookie{}).
		Where("id = ?", c.ID).
		Updates(map[string]interface{}{
			"cj_event_value": c.CJEventValue,
			"flow_id":        c.FlowID,
			"created":        c.Created,
			"expires":        c.Expires,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update aic row: %w", translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ExpiredCookies returns all live cookies whose expiry is before now.
func (s *Store) ExpiredCookies(ctx context.Context, now time.Time) ([]*models.AttributionCookie, error) {
	var out []*models.AttributionCookie
	if err := s.db.WithContext(ctx).Where("expires < ?", now).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to query expired aic rows: %w", err)
	}
	return out, nil
}

// ArchiveCookie moves a cookie from aic to aic_archive in one transaction. A
// duplicate archive row rolls the whole move back and surfaces ErrConflict;
// the live row is untouched in that case.
func (s *Store) ArchiveCookie(ctx context.Context, c *models.AttributionCookie) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", c.ID).Delete(&models.AttributionCookie{}).Error; err != nil {
			return err
		}
		if err := tx.Create(c.Archived()).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrConflict
		}
		return fmt.Errorf("failed to archive aic row: %w", err)
	}
	return nil
}
