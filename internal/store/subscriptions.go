package store

import (
	"context"
	"fmt"

	"github.com/mozilla-services/cjms-sub000/internal/models"
	"github.com/mozilla-services/cjms-sub000/internal/status"
)

func (s *Store) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	if err := s.db.WithContext(ctx).Create(sub).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (s *Store) SubscriptionByFlowID(ctx context.Context, flowID string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := s.db.WithContext(ctx).First(&sub, "flow_id = ?", flowID).Error; err != nil {
		return nil, translate(err)
	}
	return &sub, nil
}

func (s *Store) SubscriptionBySubscriptionID(ctx context.Context, subscriptionID string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := s.db.WithContext(ctx).First(&sub, "subscription_id = ?", subscriptionID).Error; err != nil {
		return nil, translate(err)
	}
	return &sub, nil
}

func (s *Store) SubscriptionsByStatus(ctx context.Context, st status.Status) ([]*models.Subscription, error) {
	var out []*models.Subscription
	if err := s.db.WithContext(ctx).Where("status = ?", st).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to query subscriptions by status: %w", err)
	}
	return out, nil
}

// UpdateSubscriptionStatus persists the status block in a single statement.
func (s *Store) UpdateSubscriptionStatus(ctx context.Context, sub *models.Subscription) error {
	res := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("id = ?", sub.ID).
		Updates(map[string]interface{}{
			"status":         sub.Status,
			"status_t":       sub.StatusT,
			"status_history": sub.HistoryRaw,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update subscription status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
