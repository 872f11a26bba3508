package service

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tenantcore/internal/cache"
	"tenantcore/internal/errors"
	"tenantcore/internal/model"
	"tenantcore/internal/repository"
)

const tenantCacheTTL = 5 * time.Minute

// TenantService manages tenants and the user/tenant membership registry.
type TenantService interface {
	CreateTenant(ctx context.Context, name, slug string, creatorUserID uint) (*model.Tenant, error)
	GetTenantBySlug(ctx context.Context, slug string) (*model.Tenant, error)
	GrantRole(ctx context.Context, userID, tenantID uint, role string) (*model.Membership, error)
	ListMemberships(ctx context.Context, userID uint) ([]model.Membership, error)
	HasRole(ctx context.Context, userID, tenantID uint, role string) (bool, error)
	JoinTenant(ctx context.Context, userID uint, slug string) (*model.Membership, error)
	TouchAccess(ctx context.Context, userID, tenantID uint)
}

type tenantService struct {
	tenants     repository.TenantRepository
	memberships repository.MembershipRepository
	users       repository.UserRepository
	cache       *cache.Client
	log         *zap.Logger
}

// NewTenantService creates a new tenant service.
func NewTenantService(tenants repository.TenantRepository, memberships repository.MembershipRepository, users repository.UserRepository, cache *cache.Client, log *zap.Logger) TenantService {
	return &tenantService{
		tenants:     tenants,
		memberships: memberships,
		users:       users,
		cache:       cache,
		log:         log,
	}
}

func (s *tenantService) cacheKey(slug string) string {
	return "tenant:slug:" + slug
}

// CreateTenant persists a tenant. When slug is empty it is derived from the
// name; an explicit slug must already match the slug pattern.
func (s *tenantService) CreateTenant(ctx context.Context, name, slug string, creatorUserID uint) (*model.Tenant, error) {
	if slug == "" {
		slug = model.Slugify(name)
	}
	if !model.ValidSlug(slug) {
		return nil, errors.NewValidationError("slug", "must contain only lowercase letters, numbers and hyphens")
	}

	if existing, err := s.tenants.FindBySlug(ctx, slug); err == nil && existing != nil {
		return nil, errors.ErrAlreadyExists
	} else if err != nil && !stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check slug existence: %w", err)
	}

	tenant := &model.Tenant{
		Name:      name,
		Slug:      slug,
		CreatedBy: creatorUserID,
		Settings:  model.DefaultSettings(),
		IsActive:  true,
	}

	if err := s.tenants.Create(ctx, tenant); err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errors.ErrAlreadyExists
		}
		return nil, fmt.Errorf("create tenant: %w", err)
	}

	// drop any stale cached copy of this slug
	_ = s.cache.Delete(ctx, s.cacheKey(slug))

	s.log.Info("tenant created",
		zap.Uint("tenant_id", tenant.ID),
		zap.String("slug", tenant.Slug),
		zap.Uint("created_by", creatorUserID))

	return tenant, nil
}

// GetTenantBySlug returns the active tenant for slug, consulting the read
// cache first.
func (s *tenantService) GetTenantBySlug(ctx context.Context, slug string) (*model.Tenant, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(slug)); data != nil {
		var cached model.Tenant
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	tenant, err := s.tenants.FindBySlug(ctx, slug)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrTenantNotFound
		}
		return nil, err
	}

	if payload, err := json.Marshal(tenant); err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(slug), payload, tenantCacheTTL)
	}
	return tenant, nil
}

// GrantRole sets the role for the (user, tenant) pair with idempotent upsert
// semantics: an existing row is updated and reactivated, never duplicated. A
// concurrent create losing the unique-index race retries as an update. The
// target user must exist; a membership never points at a missing user.
func (s *tenantService) GrantRole(ctx context.Context, userID, tenantID uint, role string) (*model.Membership, error) {
	if !model.ValidRole(role) {
		return nil, errors.NewValidationError("role", "must be one of tenantAdmin, author, user")
	}

	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	membership, err := s.memberships.FindByUserAndTenant(ctx, userID, tenantID)
	if err == nil && membership != nil {
		return s.updateRole(ctx, membership, role)
	}
	if err != nil && !stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find membership: %w", err)
	}

	membership = &model.Membership{
		UserID:       userID,
		TenantID:     tenantID,
		Role:         role,
		IsActive:     true,
		LastAccessed: time.Now(),
	}
	if err := s.memberships.Create(ctx, membership); err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			// lost the race to a concurrent grant; fall back to update
			existing, ferr := s.memberships.FindByUserAndTenant(ctx, userID, tenantID)
			if ferr != nil {
				return nil, fmt.Errorf("refetch membership: %w", ferr)
			}
			return s.updateRole(ctx, existing, role)
		}
		return nil, fmt.Errorf("create membership: %w", err)
	}

	s.log.Info("role granted",
		zap.Uint("user_id", userID),
		zap.Uint("tenant_id", tenantID),
		zap.String("role", role))

	return membership, nil
}

func (s *tenantService) updateRole(ctx context.Context, membership *model.Membership, role string) (*model.Membership, error) {
	membership.Role = role
	membership.IsActive = true
	if err := s.memberships.Update(ctx, membership); err != nil {
		return nil, fmt.Errorf("update membership: %w", err)
	}
	s.log.Info("role updated",
		zap.Uint("user_id", membership.UserID),
		zap.Uint("tenant_id", membership.TenantID),
		zap.String("role", role))
	return membership, nil
}

// ListMemberships returns the user's active memberships, most recently
// accessed first.
func (s *tenantService) ListMemberships(ctx context.Context, userID uint) ([]model.Membership, error) {
	return s.memberships.ListActiveByUser(ctx, userID)
}

// HasRole reports whether an active membership exists for the pair. When role
// is non-empty the membership role must match exactly; no hierarchy applies
// at this layer.
func (s *tenantService) HasRole(ctx context.Context, userID, tenantID uint, role string) (bool, error) {
	membership, err := s.memberships.FindByUserAndTenant(ctx, userID, tenantID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	if !membership.IsActive {
		return false, nil
	}
	if role != "" {
		return membership.Role == role, nil
	}
	return true, nil
}

// JoinTenant self-registers the user into a tenant that allows it, granting
// the tenant's default role. An existing membership is returned unchanged so
// joining can never downgrade a role.
func (s *tenantService) JoinTenant(ctx context.Context, userID uint, slug string) (*model.Membership, error) {
	tenant, err := s.GetTenantBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !tenant.Settings.AllowUserRegistration {
		return nil, errors.ErrRegistrationClosed
	}

	if existing, err := s.memberships.FindByUserAndTenant(ctx, userID, tenant.ID); err == nil && existing.IsActive {
		return existing, nil
	}

	role := tenant.Settings.DefaultUserRole
	if !model.ValidRole(role) {
		role = model.RoleUser
	}
	return s.GrantRole(ctx, userID, tenant.ID, role)
}

// TouchAccess updates the membership's last-accessed timestamp. Best effort:
// failures are logged and dropped.
func (s *tenantService) TouchAccess(ctx context.Context, userID, tenantID uint) {
	if err := s.memberships.TouchLastAccessed(ctx, userID, tenantID); err != nil {
		s.log.Warn("touch membership access",
			zap.Uint("user_id", userID),
			zap.Uint("tenant_id", tenantID),
			zap.Error(err))
	}
}
