package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mxi-labs/presale/app/models"
)

// userRepository implements the UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(id string) (*models.User, error) {
	var user models.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByIDForUpdate retrieves a user with a row lock (SELECT ... FOR UPDATE)
func (r *userRepository) GetByIDForUpdate(id string) (*models.User, error) {
	var user models.User
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetReferrerID returns the referrer of a user, or nil when there is none
func (r *userRepository) GetReferrerID(id string) (*string, error) {
	var user models.User
	err := r.db.Select("id", "referred_by").Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	if !user.HasReferrer() {
		return nil, nil
	}
	return user.ReferredBy, nil
}

// UpdateBalance writes the balance fields computed on payment confirmation
func (r *userRepository) UpdateBalance(id string, update BalanceUpdate) error {
	updates := map[string]interface{}{
		"mxi_balance":            update.MxiBalance,
		"usdt_contributed":       update.UsdtContributed,
		"mxi_purchased_directly": update.MxiPurchasedDirectly,
		"is_active_contributor":  update.IsActiveContributor,
		"yield_rate_per_minute":  update.YieldRatePerMinute,
		"last_yield_update":      update.LastYieldUpdate,
	}
	return r.db.Model(&models.User{}).Where("id = ?", id).Updates(updates).Error
}
