package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tenantcore/internal/errors"
	"tenantcore/internal/model"
)

// MockTenantRepository is a mock implementation of TenantRepository.
type MockTenantRepository struct {
	mock.Mock
}

func (m *MockTenantRepository) Create(ctx context.Context, tenant *model.Tenant) error {
	args := m.Called(ctx, tenant)
	return args.Error(0)
}

func (m *MockTenantRepository) FindByID(ctx context.Context, id uint) (*model.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Tenant), args.Error(1)
}

func (m *MockTenantRepository) FindBySlug(ctx context.Context, slug string) (*model.Tenant, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Tenant), args.Error(1)
}

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

func newTestTenantService(tenants *MockTenantRepository, memberships *MockMembershipRepository, users *MockUserRepository) TenantService {
	return NewTenantService(tenants, memberships, users, nil, zap.NewNop())
}

// knownUser returns a user repository mock that resolves any id.
func knownUser() *MockUserRepository {
	m := new(MockUserRepository)
	m.On("FindByID", mock.Anything, mock.AnythingOfType("uint")).Return(&model.User{ID: 1}, nil)
	return m
}

func TestTenantService_CreateTenant(t *testing.T) {
	tests := []struct {
		name          string
		tenantName    string
		slug          string
		setupMock     func(*MockTenantRepository)
		expectedSlug  string
		expectedError error
	}{
		{
			name:       "slug derived from name",
			tenantName: "Acme Corp!!",
			setupMock: func(m *MockTenantRepository) {
				m.On("FindBySlug", mock.Anything, "acme-corp").Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.Tenant")).Return(nil)
			},
			expectedSlug: "acme-corp",
		},
		{
			name:       "explicit slug kept",
			tenantName: "Acme Corp",
			slug:       "acme",
			setupMock: func(m *MockTenantRepository) {
				m.On("FindBySlug", mock.Anything, "acme").Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.Tenant")).Return(nil)
			},
			expectedSlug: "acme",
		},
		{
			name:          "invalid explicit slug",
			tenantName:    "Acme Corp",
			slug:          "Not A Slug",
			setupMock:     func(m *MockTenantRepository) {},
			expectedError: &errors.ValidationError{},
		},
		{
			name:          "name reduces to empty slug",
			tenantName:    "!!!",
			setupMock:     func(m *MockTenantRepository) {},
			expectedError: &errors.ValidationError{},
		},
		{
			name:       "slug collision",
			tenantName: "Acme Corp",
			setupMock: func(m *MockTenantRepository) {
				m.On("FindBySlug", mock.Anything, "acme-corp").Return(&model.Tenant{Slug: "acme-corp"}, nil)
			},
			expectedError: errors.ErrAlreadyExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockTenants := new(MockTenantRepository)
			tt.setupMock(mockTenants)

			svc := newTestTenantService(mockTenants, new(MockMembershipRepository), new(MockUserRepository))
			tenant, err := svc.CreateTenant(context.Background(), tt.tenantName, tt.slug, 1)

			switch tt.expectedError.(type) {
			case nil:
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedSlug, tenant.Slug)
				assert.Equal(t, uint(1), tenant.CreatedBy)
				assert.True(t, tenant.IsActive)
				assert.Equal(t, model.ThemeSystem, tenant.Settings.Theme)
			case *errors.ValidationError:
				var verr *errors.ValidationError
				assert.ErrorAs(t, err, &verr)
			default:
				assert.ErrorIs(t, err, tt.expectedError)
			}

			mockTenants.AssertExpectations(t)
		})
	}
}

func TestTenantService_GrantRole(t *testing.T) {
	t.Run("creates a membership when none exists", func(t *testing.T) {
		mockMemberships := new(MockMembershipRepository)
		mockMemberships.On("FindByUserAndTenant", mock.Anything, uint(1), uint(10)).Return(nil, gorm.ErrRecordNotFound)
		mockMemberships.On("Create", mock.Anything, mock.AnythingOfType("*model.Membership")).Return(nil)

		svc := newTestTenantService(new(MockTenantRepository), mockMemberships, knownUser())
		m, err := svc.GrantRole(context.Background(), 1, 10, model.RoleAuthor)

		assert.NoError(t, err)
		assert.Equal(t, model.RoleAuthor, m.Role)
		assert.True(t, m.IsActive)
		mockMemberships.AssertExpectations(t)
	})

	t.Run("updates the existing row instead of creating a second", func(t *testing.T) {
		existing := &model.Membership{ID: 5, UserID: 1, TenantID: 10, Role: model.RoleAuthor, IsActive: true}
		mockMemberships := new(MockMembershipRepository)
		mockMemberships.On("FindByUserAndTenant", mock.Anything, uint(1), uint(10)).Return(existing, nil)
		mockMemberships.On("Update", mock.Anything, existing).Return(nil)

		svc := newTestTenantService(new(MockTenantRepository), mockMemberships, knownUser())
		m, err := svc.GrantRole(context.Background(), 1, 10, model.RoleTenantAdmin)

		assert.NoError(t, err)
		assert.Equal(t, uint(5), m.ID)
		assert.Equal(t, model.RoleTenantAdmin, m.Role)
		mockMemberships.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		mockMemberships.AssertExpectations(t)
	})

	t.Run("reactivates an inactive membership", func(t *testing.T) {
		existing := &model.Membership{ID: 6, UserID: 2, TenantID: 10, Role: model.RoleUser, IsActive: false}
		mockMemberships := new(MockMembershipRepository)
		mockMemberships.On("FindByUserAndTenant", mock.Anything, uint(2), uint(10)).Return(existing, nil)
		mockMemberships.On("Update", mock.Anything, existing).Return(nil)

		svc := newTestTenantService(new(MockTenantRepository), mockMemberships, knownUser())
		m, err := svc.GrantRole(context.Background(), 2, 10, model.RoleUser)

		assert.NoError(t, err)
		assert.True(t, m.IsActive)
	})

	t.Run("losing a concurrent create retries as update", func(t *testing.T) {
		winner := &model.Membership{ID: 7, UserID: 3, TenantID: 10, Role: model.RoleUser, IsActive: true}
		mockMemberships := new(MockMembershipRepository)
		mockMemberships.On("FindByUserAndTenant", mock.Anything, uint(3), uint(10)).Return(nil, gorm.ErrRecordNotFound).Once()
		mockMemberships.On("Create", mock.Anything, mock.AnythingOfType("*model.Membership")).Return(gorm.ErrDuplicatedKey)
		mockMemberships.On("FindByUserAndTenant", mock.Anything, uint(3), uint(10)).Return(winner, nil)
		mockMemberships.On("Update", mock.Anything, winner).Return(nil)

		svc := newTestTenantService(new(MockTenantRepository), mockMemberships, knownUser())
		m, err := svc.GrantRole(context.Background(), 3, 10, model.RoleAuthor)

		assert.NoError(t, err)
		assert.Equal(t, uint(7), m.ID)
		assert.Equal(t, model.RoleAuthor, m.Role)
		mockMemberships.AssertExpectations(t)
	})

	t.Run("rejects unknown roles", func(t *testing.T) {
		svc := newTestTenantService(new(MockTenantRepository), new(MockMembershipRepository), new(MockUserRepository))
		_, err := svc.GrantRole(context.Background(), 1, 10, "owner")

		var verr *errors.ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("rejects a target user that does not exist", func(t *testing.T) {
		mockUsers := new(MockUserRepository)
		mockUsers.On("FindByID", mock.Anything, uint(99)).Return(nil, gorm.ErrRecordNotFound)
		mockMemberships := new(MockMembershipRepository)

		svc := newTestTenantService(new(MockTenantRepository), mockMemberships, mockUsers)
		_, err := svc.GrantRole(context.Background(), 99, 10, model.RoleAuthor)

		assert.ErrorIs(t, err, errors.ErrUserNotFound)
		mockMemberships.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestTenantService_HasRole(t *testing.T) {
	membership := &model.Membership{UserID: 1, TenantID: 10, Role: model.RoleAuthor, IsActive: true}

	tests := []struct {
		name     string
		role     string
		found    *model.Membership
		findErr  error
		expected bool
	}{
		{"member without role filter", "", membership, nil, true},
		{"exact role match", model.RoleAuthor, membership, nil, true},
		{"no hierarchy at this layer", model.RoleUser, membership, nil, false},
		{"not a member", model.RoleAuthor, nil, gorm.ErrRecordNotFound, false},
		{"inactive membership", "", &model.Membership{UserID: 1, TenantID: 10, Role: model.RoleAuthor}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockMemberships := new(MockMembershipRepository)
			if tt.found != nil {
				mockMemberships.On("FindByUserAndTenant", mock.Anything, uint(1), uint(10)).Return(tt.found, nil)
			} else {
				mockMemberships.On("FindByUserAndTenant", mock.Anything, uint(1), uint(10)).Return(nil, tt.findErr)
			}

			svc := newTestTenantService(new(MockTenantRepository), mockMemberships, new(MockUserRepository))
			got, err := svc.HasRole(context.Background(), 1, 10, tt.role)

			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestTenantService_JoinTenant(t *testing.T) {
	open := &model.Tenant{ID: 10, Slug: "open-house", IsActive: true, Settings: model.TenantSettings{
		Theme:                 model.ThemeSystem,
		AllowUserRegistration: true,
		DefaultUserRole:       model.RoleAuthor,
	}}
	closed := &model.Tenant{ID: 11, Slug: "members-only", IsActive: true, Settings: model.DefaultSettings()}

	t.Run("grants the tenant's default role", func(t *testing.T) {
		mockTenants := new(MockTenantRepository)
		mockTenants.On("FindBySlug", mock.Anything, "open-house").Return(open, nil)
		mockMemberships := new(MockMembershipRepository)
		mockMemberships.On("FindByUserAndTenant", mock.Anything, uint(1), uint(10)).Return(nil, gorm.ErrRecordNotFound)
		mockMemberships.On("Create", mock.Anything, mock.AnythingOfType("*model.Membership")).Return(nil)

		svc := newTestTenantService(mockTenants, mockMemberships, knownUser())
		m, err := svc.JoinTenant(context.Background(), 1, "open-house")

		assert.NoError(t, err)
		assert.Equal(t, model.RoleAuthor, m.Role)
	})

	t.Run("self-registration closed", func(t *testing.T) {
		mockTenants := new(MockTenantRepository)
		mockTenants.On("FindBySlug", mock.Anything, "members-only").Return(closed, nil)

		svc := newTestTenantService(mockTenants, new(MockMembershipRepository), new(MockUserRepository))
		_, err := svc.JoinTenant(context.Background(), 1, "members-only")

		assert.ErrorIs(t, err, errors.ErrRegistrationClosed)
	})

	t.Run("existing membership is never downgraded", func(t *testing.T) {
		existing := &model.Membership{ID: 9, UserID: 1, TenantID: 10, Role: model.RoleTenantAdmin, IsActive: true}
		mockTenants := new(MockTenantRepository)
		mockTenants.On("FindBySlug", mock.Anything, "open-house").Return(open, nil)
		mockMemberships := new(MockMembershipRepository)
		mockMemberships.On("FindByUserAndTenant", mock.Anything, uint(1), uint(10)).Return(existing, nil)

		svc := newTestTenantService(mockTenants, mockMemberships, knownUser())
		m, err := svc.JoinTenant(context.Background(), 1, "open-house")

		assert.NoError(t, err)
		assert.Equal(t, model.RoleTenantAdmin, m.Role)
		mockMemberships.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("unknown tenant", func(t *testing.T) {
		mockTenants := new(MockTenantRepository)
		mockTenants.On("FindBySlug", mock.Anything, "ghost").Return(nil, gorm.ErrRecordNotFound)

		svc := newTestTenantService(mockTenants, new(MockMembershipRepository), new(MockUserRepository))
		_, err := svc.JoinTenant(context.Background(), 1, "ghost")

		assert.ErrorIs(t, err, errors.ErrTenantNotFound)
	})
}
