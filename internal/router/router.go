package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"tenantcore/internal/auth"
	"tenantcore/internal/handler"
	"tenantcore/internal/logger"
	"tenantcore/internal/middleware"
	"tenantcore/internal/model"
	"tenantcore/internal/service"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	log *zap.Logger,
	jwtService *auth.JWTService,
	guard *auth.Guard,
	authService service.AuthService,
	tenantService service.TenantService,
	authHandler *handler.AuthHandler,
	tenantHandler *handler.TenantHandler,
) {
	e.Use(echomw.RequestID())
	e.Use(echomw.Recover())
	e.Use(logger.Middleware(log))
	e.Use(middleware.Metrics)

	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/logout", authHandler.Logout)

	// Secured routes: token extraction (cookie before bearer header), then
	// identity resolution against the user store and revocation list.
	secured := api.Group("",
		middleware.JWT(jwtService, log),
		middleware.ResolveIdentity(authService, log),
	)

	secured.GET("/auth/me", authHandler.Me)

	secured.POST("/tenants", tenantHandler.CreateTenant)
	secured.GET("/tenants", tenantHandler.ListMemberships)
	secured.GET("/tenants/:slug", tenantHandler.GetTenant)
	secured.POST("/tenants/:slug/join", tenantHandler.JoinTenant)

	// Granting roles requires tenantAdmin in the target tenant (or sysadmin).
	secured.POST("/tenants/:slug/members", tenantHandler.GrantRole,
		middleware.RequireTenantRole(guard, tenantService, model.RoleTenantAdmin, log))
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
