package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"tenantcore/internal/auth"
	"tenantcore/internal/errors"
	"tenantcore/internal/metrics"
	"tenantcore/internal/model"
	"tenantcore/internal/repository"
)

// AuthService handles registration, credential verification and session
// resolution.
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*model.User, string, error)
	Login(ctx context.Context, email, password string) (token string, user *model.User, err error)
	Logout(ctx context.Context, token string) error
	GetUser(ctx context.Context, id uint) (*model.User, error)
	ResolveClaims(ctx context.Context, claims *auth.Claims) (auth.Identity, error)
}

type authService struct {
	users      repository.UserRepository
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	bcryptCost int
	log        *zap.Logger
}

// NewAuthService creates a new authentication service. bcryptCost tunes the
// password hash so that verification costs on the order of 50-200ms.
func NewAuthService(users repository.UserRepository, jwtService *auth.JWTService, tokenStore auth.TokenStoreInterface, bcryptCost int, log *zap.Logger) AuthService {
	return &authService{
		users:      users,
		jwtService: jwtService,
		tokenStore: tokenStore,
		bcryptCost: bcryptCost,
		log:        log,
	}
}

// Register creates a new user with a hashed password and issues a token for
// the fresh session. New users are never system admins.
func (s *authService) Register(ctx context.Context, username, email, password string) (*model.User, string, error) {
	email = model.NormalizeEmail(email)

	if existing, err := s.users.FindByEmail(ctx, email); err == nil && existing != nil {
		return nil, "", errors.ErrAlreadyExists
	} else if err != nil && !stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", fmt.Errorf("check email existence: %w", err)
	}
	if existing, err := s.users.FindByUsername(ctx, username); err == nil && existing != nil {
		return nil, "", errors.ErrAlreadyExists
	} else if err != nil && !stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", fmt.Errorf("check username existence: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username:      username,
		Email:         email,
		PasswordHash:  string(hashed),
		IsSystemAdmin: false,
	}

	if err := s.users.Create(ctx, user); err != nil {
		// a concurrent register may win the unique index race
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, "", errors.ErrAlreadyExists
		}
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.jwtService.Issue(user.ID, user.IsSystemAdmin)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}

	s.log.Info("user registered",
		zap.Uint("user_id", user.ID),
		zap.String("username", user.Username))

	return user, token, nil
}

// Login verifies credentials and issues a token. Unknown email and wrong
// password take the same path: both count as a failed attempt, log
// identically and return the same generic error.
func (s *authService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	metrics.AuthAttemptsTotal.Inc()
	email = model.NormalizeEmail(email)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		metrics.AuthFailuresTotal.Inc()
		s.log.Warn("failed login attempt", zap.String("email", email))
		return "", nil, errors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		metrics.AuthFailuresTotal.Inc()
		s.log.Warn("failed login attempt", zap.String("email", email))
		return "", nil, errors.ErrInvalidCredentials
	}

	token, err := s.jwtService.Issue(user.ID, user.IsSystemAdmin)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}

	// best effort: a failed timestamp touch must not fail the login
	if err := s.users.TouchLastLogin(ctx, user.ID); err != nil {
		s.log.Warn("touch last login", zap.Uint("user_id", user.ID), zap.Error(err))
	}

	s.log.Info("user logged in", zap.Uint("user_id", user.ID))
	return token, user, nil
}

// Logout places the token id on the revocation list for the remainder of its
// lifetime. Tokens are stateless so this is an advisory invalidation signal;
// an already expired token is a no-op.
func (s *authService) Logout(ctx context.Context, token string) error {
	claims, err := s.jwtService.Verify(token)
	if err != nil {
		if stderrors.Is(err, errors.ErrTokenExpired) {
			return nil
		}
		return err
	}

	var remaining time.Duration
	if claims.ExpiresAt != nil {
		remaining = time.Until(claims.ExpiresAt.Time)
	}
	if err := s.tokenStore.RevokeToken(ctx, claims.ID, remaining); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}

	s.log.Info("user logged out", zap.Uint("user_id", claims.UserID))
	return nil
}

// GetUser returns the user by id.
func (s *authService) GetUser(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// ResolveClaims turns verified claims into a caller identity. A revoked token
// or a deleted subject is rejected even though the signature is still valid.
// The admin flag is read back from the store so a demotion takes effect
// before the token expires.
func (s *authService) ResolveClaims(ctx context.Context, claims *auth.Claims) (auth.Identity, error) {
	if revoked, _ := s.tokenStore.IsTokenRevoked(ctx, claims.ID); revoked {
		s.log.Warn("revoked token presented", zap.Uint("user_id", claims.UserID))
		return auth.Identity{}, errors.ErrInvalidToken
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		s.log.Warn("token subject no longer exists", zap.Uint("user_id", claims.UserID))
		return auth.Identity{}, errors.ErrInvalidToken
	}

	return auth.Identity{UserID: user.ID, IsSystemAdmin: user.IsSystemAdmin}, nil
}
