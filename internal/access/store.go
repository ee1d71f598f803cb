package access

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/propdesk/portal/internal/models"
)

// Store owns the entitlement and access-log tables. It is the only write path
// for both; everything else reads.
type Store struct {
	DB *gorm.DB

	// Now is overridable for tests; nil means time.Now.
	Now func() time.Time
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// HasValidEntitlement reports whether the user holds a non-expired entitlement
// to the product. A missing row is false, not an error.
func (s *Store) HasValidEntitlement(userID, productID uint) (bool, error) {
	var count int64
	err := s.DB.Model(&models.UserProduct{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Where("expires_at IS NULL OR expires_at > ?", s.now()).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("entitlement lookup: %w", err)
	}
	return count > 0, nil
}

// ListValidEntitlements returns every product the user currently holds valid
// access to.
func (s *Store) ListValidEntitlements(userID uint) ([]models.Product, error) {
	var products []models.Product
	err := s.DB.Model(&models.Product{}).
		Joins("JOIN user_products ON user_products.product_id = products.id").
		Where("user_products.user_id = ?", userID).
		Where("user_products.expires_at IS NULL OR user_products.expires_at > ?", s.now()).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("entitlement list: %w", err)
	}
	return products, nil
}

// AccessDate returns the drip anchor date for the (user, product) pair, or nil
// when no access has been recorded.
func (s *Store) AccessDate(userID, productID uint) (*time.Time, error) {
	var row models.UserProductAccessLog
	err := s.DB.Where("user_id = ? AND product_id = ?", userID, productID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("access log lookup: %w", err)
	}
	return &row.AccessGrantedAt, nil
}

// Grant upserts the entitlement and stamps the access log in one transaction,
// so a reader never sees an entitlement without its anchor date. Granting
// again refreshes ExpiresAt and resets AccessGrantedAt to now, which restarts
// every delayed module's drip timer for that product. That is a deliberate
// policy: a lapsed-then-renewed purchase re-waits for drip content.
func (s *Store) Grant(userID, productID uint, expiresAt *time.Time) error {
	grantedAt := s.now()
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var ent models.UserProduct
		err := tx.Where("user_id = ? AND product_id = ?", userID, productID).First(&ent).Error
		switch {
		case err == nil:
			ent.ExpiresAt = expiresAt
			if err := tx.Save(&ent).Error; err != nil {
				return fmt.Errorf("entitlement update: %w", err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			ent = models.UserProduct{UserID: userID, ProductID: productID, ExpiresAt: expiresAt}
			if err := tx.Create(&ent).Error; err != nil {
				return fmt.Errorf("entitlement create: %w", err)
			}
		default:
			return fmt.Errorf("entitlement lookup: %w", err)
		}

		var logRow models.UserProductAccessLog
		err = tx.Where("user_id = ? AND product_id = ?", userID, productID).First(&logRow).Error
		switch {
		case err == nil:
			logRow.AccessGrantedAt = grantedAt
			if err := tx.Save(&logRow).Error; err != nil {
				return fmt.Errorf("access log update: %w", err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			logRow = models.UserProductAccessLog{UserID: userID, ProductID: productID, AccessGrantedAt: grantedAt}
			if err := tx.Create(&logRow).Error; err != nil {
				return fmt.Errorf("access log create: %w", err)
			}
		default:
			return fmt.Errorf("access log lookup: %w", err)
		}

		return nil
	})
}

// Revoke deletes the entitlement. The access-log row stays behind: validity
// is checked independently, so a stale anchor is harmless.
func (s *Store) Revoke(userID, productID uint) error {
	err := s.DB.Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.UserProduct{}).Error
	if err != nil {
		return fmt.Errorf("entitlement delete: %w", err)
	}
	return nil
}
