package middleware

import (
	stderrors "errors"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"tenantcore/internal/auth"
	"tenantcore/internal/errors"
	"tenantcore/internal/metrics"
	"tenantcore/internal/model"
	"tenantcore/internal/service"
)

// TokenCookieName is the cookie carrying the identity token.
const TokenCookieName = "token"

const (
	identityKey = "identity"
	tenantKey   = "tenant"
)

// JWT returns the token-extraction middleware for secured routes. The cookie
// is consulted before the bearer header when both are present; parsing and
// signature checks are delegated to the token service.
func JWT(jwtService *auth.JWTService, log *zap.Logger) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		TokenLookup: "cookie:" + TokenCookieName + ",header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, tokenString string) (interface{}, error) {
			return jwtService.Verify(tokenString)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			var herr *errors.HTTPError
			switch {
			case stderrors.Is(err, errors.ErrTokenExpired):
				log.Warn("expired token rejected", zap.String("path", c.Request().URL.Path))
				herr = errors.MapErrorToHTTP(errors.ErrTokenExpired)
			case stderrors.Is(err, errors.ErrInvalidToken):
				log.Warn("malformed or badly signed token rejected", zap.String("path", c.Request().URL.Path))
				herr = errors.MapErrorToHTTP(errors.ErrInvalidToken)
			default:
				herr = errors.MapErrorToHTTP(errors.ErrAuthRequired)
			}
			return echo.NewHTTPError(herr.StatusCode, herr.ToErrorResponse())
		},
	})
}

// ResolveIdentity turns the verified claims left by the JWT middleware into a
// caller identity, rejecting revoked tokens and tokens whose subject no
// longer exists.
func ResolveIdentity(authService service.AuthService, log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get("user").(*auth.Claims)
			if !ok {
				herr := errors.MapErrorToHTTP(errors.ErrAuthRequired)
				return echo.NewHTTPError(herr.StatusCode, herr.ToErrorResponse())
			}

			identity, err := authService.ResolveClaims(c.Request().Context(), claims)
			if err != nil {
				herr := errors.MapErrorToHTTP(err)
				return echo.NewHTTPError(herr.StatusCode, herr.ToErrorResponse())
			}

			c.Set(identityKey, identity)
			return next(c)
		}
	}
}

// IdentityFrom returns the resolved identity attached to the request.
func IdentityFrom(c echo.Context) (auth.Identity, bool) {
	identity, ok := c.Get(identityKey).(auth.Identity)
	return identity, ok
}

// TenantFrom returns the tenant resolved by RequireTenantRole.
func TenantFrom(c echo.Context) (*model.Tenant, bool) {
	tenant, ok := c.Get(tenantKey).(*model.Tenant)
	return tenant, ok
}

// RequireTenantRole resolves the tenant named by the :slug path parameter and
// authorizes the caller against it. Denials are logged with subject, tenant
// and required role for audit; an allowed request touches the membership's
// last-accessed timestamp. The resolved tenant is attached to the request for
// the downstream handler.
func RequireTenantRole(guard *auth.Guard, tenants service.TenantService, requiredRole string, log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, ok := IdentityFrom(c)
			if !ok {
				herr := errors.MapErrorToHTTP(errors.ErrAuthRequired)
				return echo.NewHTTPError(herr.StatusCode, herr.ToErrorResponse())
			}

			tenant, err := tenants.GetTenantBySlug(c.Request().Context(), c.Param("slug"))
			if err != nil {
				herr := errors.MapErrorToHTTP(err)
				return echo.NewHTTPError(herr.StatusCode, herr.ToErrorResponse())
			}

			if err := guard.Authorize(c.Request().Context(), identity, tenant.ID, requiredRole); err != nil {
				if !stderrors.Is(err, errors.ErrNotAMember) && !stderrors.Is(err, errors.ErrInsufficientRole) {
					// registry failure, not a verdict
					log.Error("authorization check failed",
						zap.Uint("user_id", identity.UserID),
						zap.Uint("tenant_id", tenant.ID),
						zap.Error(err))
					herr := errors.MapErrorToHTTP(err)
					return echo.NewHTTPError(herr.StatusCode, herr.ToErrorResponse())
				}
				reason := "not_a_member"
				if stderrors.Is(err, errors.ErrInsufficientRole) {
					reason = "insufficient_role"
				}
				metrics.AuthzDenialsTotal.WithLabelValues(reason).Inc()
				log.Warn("authorization denied",
					zap.Uint("user_id", identity.UserID),
					zap.Uint("tenant_id", tenant.ID),
					zap.String("required_role", requiredRole),
					zap.String("reason", reason))
				herr := errors.MapErrorToHTTP(err)
				return echo.NewHTTPError(herr.StatusCode, herr.ToErrorResponse())
			}

			c.Set(tenantKey, tenant)
			tenants.TouchAccess(c.Request().Context(), identity.UserID, tenant.ID)
			return next(c)
		}
	}
}
