package store

import (
	"context"
	"fmt"
	"time"

	"github.com/mozilla-services/cjms-sub000/internal/models"
	"github.com/mozilla-services/cjms-sub000/internal/status"
)

func (s *Store) CreateRefund(ctx context.Context, r *models.Refund) error {
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (s *Store) RefundByRefundID(ctx context.Context, refundID string) (*models.Refund, error) {
	var r models.Refund
	if err := s.db.WithContext(ctx).First(&r, "refund_id = ?", refundID).Error; err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

func (s *Store) RefundsByStatus(ctx context.Context, st status.Status) ([]*models.Refund, error) {
	var out []*models.Refund
	if err := s.db.WithContext(ctx).Where("status = ?", st).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to query refunds by status: %w", err)
	}
	return out, nil
}

// RefundsByCorrectionDate returns refunds stamped for the correction file of
// the given day.
func (s *Store) RefundsByCorrectionDate(ctx context.Context, day time.Time) ([]*models.Refund, error) {
	start := day.UTC().Truncate(24 * time.Hour)
	end := start.Add(24 * time.Hour)
	var out []*models.Refund
	if err := s.db.WithContext(ctx).
		Where("correction_file_date >= ? AND correction_file_date < ?", start, end).
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to query refunds by correction date: %w", err)
	}
	return out, nil
}

// UpdateRefund overwrites the mutable fields plus the reporting state in one
// statement.
func (s *Store) UpdateRefund(ctx context.Context, r *models.Refund) error {
	res := s.db.WithContext(ctx).Model(&models.Refund{}).
		Where("id = ?", r.ID).
		Updates(map[string]interface{}{
			"subscription_id":      r.SubscriptionID,
			"refund_created":       r.RefundCreated,
			"refund_amount":        r.RefundAmount,
			"refund_status":        r.RefundStatus,
			"refund_reason":        r.RefundReason,
			"correction_file_date": r.CorrectionFileDate,
			"status":               r.Status,
			"status_t":             r.StatusT,
			"status_history":       r.HistoryRaw,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update refund: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
