// Package repo implements the data persistence layer for the badge service,
// backed by GORM. This file answers the single subscription question the
// badge pipeline asks: what tier is this user entitled to right now?
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/launchboard/badge-service/internal/domain"
)

// ActiveSubscriptionTier returns the tier granted by the user's current
// subscription, or TierFree when no qualifying row exists.
//
// A subscription qualifies when its status is "active" and its current
// period has not ended at `now`. When several qualify (plan changes mid
// period), the one with the latest period end wins.
//
// Absence is not an error; only genuine DB failures are returned.
func ActiveSubscriptionTier(ctx context.Context, db *gorm.DB, userID string, now time.Time) (domain.Tier, error) {
	var sub domain.Subscription
	err := db.WithContext(ctx).
		Where("user_id = ? AND status = ? AND current_period_end > ?",
			userID, domain.SubscriptionStatusActive, now).
		Order("current_period_end DESC").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.TierFree, nil
		}
		return domain.TierFree, err
	}
	if !sub.Plan.Valid() {
		// Unknown plan names written by the billing side degrade to free
		// rather than granting access.
		return domain.TierFree, nil
	}
	return sub.Plan, nil
}
