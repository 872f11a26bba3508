package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"tenantcore/internal/errors"
	"tenantcore/internal/model"
)

// MockMembershipRepository is a mock implementation of MembershipRepository.
type MockMembershipRepository struct {
	mock.Mock
}

func (m *MockMembershipRepository) Create(ctx context.Context, membership *model.Membership) error {
	args := m.Called(ctx, membership)
	return args.Error(0)
}

func (m *MockMembershipRepository) Update(ctx context.Context, membership *model.Membership) error {
	args := m.Called(ctx, membership)
	return args.Error(0)
}

func (m *MockMembershipRepository) FindByUserAndTenant(ctx context.Context, userID, tenantID uint) (*model.Membership, error) {
	args := m.Called(ctx, userID, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Membership), args.Error(1)
}

func (m *MockMembershipRepository) ListActiveByUser(ctx context.Context, userID uint) ([]model.Membership, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Membership), args.Error(1)
}

func (m *MockMembershipRepository) TouchLastAccessed(ctx context.Context, userID, tenantID uint) error {
	args := m.Called(ctx, userID, tenantID)
	return args.Error(0)
}

func TestRoleAtLeast(t *testing.T) {
	tests := []struct {
		role     string
		required string
		expected bool
	}{
		{model.RoleTenantAdmin, model.RoleUser, true},
		{model.RoleTenantAdmin, model.RoleAuthor, true},
		{model.RoleTenantAdmin, model.RoleTenantAdmin, true},
		{model.RoleAuthor, model.RoleUser, true},
		{model.RoleAuthor, model.RoleTenantAdmin, false},
		{model.RoleUser, model.RoleUser, true},
		{model.RoleUser, model.RoleAuthor, false},
		{"unknown", model.RoleUser, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, RoleAtLeast(tt.role, tt.required),
			"role %q against required %q", tt.role, tt.required)
	}
}

func TestGuard_Authorize(t *testing.T) {
	tests := []struct {
		name          string
		identity      Identity
		requiredRole  string
		setupMock     func(*MockMembershipRepository)
		expectedError error
	}{
		{
			name:         "system admin bypasses membership entirely",
			identity:     Identity{UserID: 1, IsSystemAdmin: true},
			requiredRole: model.RoleTenantAdmin,
			setupMock:    func(m *MockMembershipRepository) {},
		},
		{
			name:         "no membership",
			identity:     Identity{UserID: 2},
			requiredRole: model.RoleUser,
			setupMock: func(m *MockMembershipRepository) {
				m.On("FindByUserAndTenant", mock.Anything, uint(2), uint(10)).Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: errors.ErrNotAMember,
		},
		{
			name:         "inactive membership",
			identity:     Identity{UserID: 3},
			requiredRole: model.RoleUser,
			setupMock: func(m *MockMembershipRepository) {
				m.On("FindByUserAndTenant", mock.Anything, uint(3), uint(10)).Return(&model.Membership{
					UserID: 3, TenantID: 10, Role: model.RoleAuthor, IsActive: false,
				}, nil)
			},
			expectedError: errors.ErrNotAMember,
		},
		{
			name:         "author passes user requirement",
			identity:     Identity{UserID: 4},
			requiredRole: model.RoleUser,
			setupMock: func(m *MockMembershipRepository) {
				m.On("FindByUserAndTenant", mock.Anything, uint(4), uint(10)).Return(&model.Membership{
					UserID: 4, TenantID: 10, Role: model.RoleAuthor, IsActive: true,
				}, nil)
			},
		},
		{
			name:         "author fails tenantAdmin requirement",
			identity:     Identity{UserID: 5},
			requiredRole: model.RoleTenantAdmin,
			setupMock: func(m *MockMembershipRepository) {
				m.On("FindByUserAndTenant", mock.Anything, uint(5), uint(10)).Return(&model.Membership{
					UserID: 5, TenantID: 10, Role: model.RoleAuthor, IsActive: true,
				}, nil)
			},
			expectedError: errors.ErrInsufficientRole,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockMembershipRepository)
			tt.setupMock(mockRepo)

			guard := NewGuard(mockRepo)
			err := guard.Authorize(context.Background(), tt.identity, 10, tt.requiredRole)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestGuard_AuthorizeStoreFailureIsNotADenial(t *testing.T) {
	mockRepo := new(MockMembershipRepository)
	mockRepo.On("FindByUserAndTenant", mock.Anything, uint(1), uint(10)).Return(nil, assert.AnError)

	guard := NewGuard(mockRepo)
	err := guard.Authorize(context.Background(), Identity{UserID: 1}, 10, model.RoleUser)

	assert.ErrorIs(t, err, assert.AnError)
	assert.NotErrorIs(t, err, errors.ErrNotAMember)
	assert.NotErrorIs(t, err, errors.ErrInsufficientRole)
}

func TestGuard_AuthorizeIsRepeatable(t *testing.T) {
	mockRepo := new(MockMembershipRepository)
	mockRepo.On("FindByUserAndTenant", mock.Anything, uint(1), uint(10)).Return(&model.Membership{
		UserID: 1, TenantID: 10, Role: model.RoleTenantAdmin, IsActive: true,
	}, nil)

	guard := NewGuard(mockRepo)
	for i := 0; i < 3; i++ {
		assert.NoError(t, guard.Authorize(context.Background(), Identity{UserID: 1}, 10, model.RoleTenantAdmin))
	}
}
