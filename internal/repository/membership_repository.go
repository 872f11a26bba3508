package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"tenantcore/internal/model"
)

// MembershipRepository defines membership persistence operations.
type MembershipRepository interface {
	Create(ctx context.Context, membership *model.Membership) error
	Update(ctx context.Context, membership *model.Membership) error
	FindByUserAndTenant(ctx context.Context, userID, tenantID uint) (*model.Membership, error)
	ListActiveByUser(ctx context.Context, userID uint) ([]model.Membership, error)
	TouchLastAccessed(ctx context.Context, userID, tenantID uint) error
}

type membershipRepository struct {
	db *gorm.DB
}

// NewMembershipRepository builds a GORM-backed repository.
func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &membershipRepository{db: db}
}

func (r *membershipRepository) Create(ctx context.Context, membership *model.Membership) error {
	return r.db.WithContext(ctx).Create(membership).Error
}

func (r *membershipRepository) Update(ctx context.Context, membership *model.Membership) error {
	return r.db.WithContext(ctx).Save(membership).Error
}

func (r *membershipRepository) FindByUserAndTenant(ctx context.Context, userID, tenantID uint) (*model.Membership, error) {
	var membership model.Membership
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND tenant_id = ?", userID, tenantID).
		First(&membership).Error; err != nil {
		return nil, err
	}
	return &membership, nil
}

// ListActiveByUser returns active memberships ordered most-recently-accessed
// first, with the tenant preloaded.
func (r *membershipRepository) ListActiveByUser(ctx context.Context, userID uint) ([]model.Membership, error) {
	var memberships []model.Membership
	if err := r.db.WithContext(ctx).
		Preload("Tenant").
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("last_accessed DESC").
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

// TouchLastAccessed updates the last-accessed timestamp on a single row.
func (r *membershipRepository) TouchLastAccessed(ctx context.Context, userID, tenantID uint) error {
	return r.db.WithContext(ctx).Model(&model.Membership{}).
		Where("user_id = ? AND tenant_id = ?", userID, tenantID).
		Update("last_accessed", time.Now()).Error
}
