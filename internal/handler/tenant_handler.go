package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"tenantcore/internal/auth"
	"tenantcore/internal/errors"
	"tenantcore/internal/middleware"
	"tenantcore/internal/model"
	"tenantcore/internal/service"
)

// TenantHandler handles tenant and membership endpoints.
type TenantHandler struct {
	tenantService service.TenantService
	guard         *auth.Guard
}

// NewTenantHandler creates a new tenant handler.
func NewTenantHandler(tenantService service.TenantService, guard *auth.Guard) *TenantHandler {
	return &TenantHandler{tenantService: tenantService, guard: guard}
}

// CreateTenantRequest represents a tenant creation request. Slug is optional
// and derived from the name when omitted.
type CreateTenantRequest struct {
	Name string `json:"name" validate:"required,max=100"`
	Slug string `json:"slug" validate:"omitempty,max=50"`
}

// GrantRoleRequest represents a role grant for a user within a tenant.
type GrantRoleRequest struct {
	UserID uint   `json:"user_id" validate:"required"`
	Role   string `json:"role" validate:"required,oneof=tenantAdmin author user"`
}

// CreateTenant godoc
// @Summary Create a new tenant
// @Tags tenants
// @Accept json
// @Produce json
// @Param request body CreateTenantRequest true "Tenant data"
// @Success 201 {object} model.Tenant
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /tenants [post]
func (h *TenantHandler) CreateTenant(c echo.Context) error {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return httpError(errors.ErrAuthRequired)
	}

	var req CreateTenantRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tenant, err := h.tenantService.CreateTenant(c.Request().Context(), req.Name, req.Slug, identity.UserID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, tenant)
}

// ListMemberships godoc
// @Summary List the caller's active tenant memberships
// @Tags tenants
// @Produce json
// @Success 200 {array} model.Membership
// @Failure 401 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /tenants [get]
func (h *TenantHandler) ListMemberships(c echo.Context) error {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return httpError(errors.ErrAuthRequired)
	}

	memberships, err := h.tenantService.ListMemberships(c.Request().Context(), identity.UserID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, memberships)
}

// GetTenant godoc
// @Summary Get a tenant by slug
// @Tags tenants
// @Produce json
// @Param slug path string true "Tenant slug"
// @Success 200 {object} model.Tenant
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /tenants/{slug} [get]
func (h *TenantHandler) GetTenant(c echo.Context) error {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return httpError(errors.ErrAuthRequired)
	}

	tenant, err := h.tenantService.GetTenantBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return httpError(err)
	}

	// members only; any role suffices
	if err := h.guard.Authorize(c.Request().Context(), identity, tenant.ID, model.RoleUser); err != nil {
		return httpError(err)
	}
	h.tenantService.TouchAccess(c.Request().Context(), identity.UserID, tenant.ID)

	return c.JSON(http.StatusOK, tenant)
}

// GrantRole godoc
// @Summary Grant or change a user's role within a tenant
// @Tags tenants
// @Accept json
// @Produce json
// @Param slug path string true "Tenant slug"
// @Param request body GrantRoleRequest true "Role grant"
// @Success 200 {object} model.Membership
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /tenants/{slug}/members [post]
func (h *TenantHandler) GrantRole(c echo.Context) error {
	tenant, ok := middleware.TenantFrom(c)
	if !ok {
		return httpError(errors.ErrTenantNotFound)
	}

	var req GrantRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	membership, err := h.tenantService.GrantRole(c.Request().Context(), req.UserID, tenant.ID, req.Role)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, membership)
}

// JoinTenant godoc
// @Summary Join a tenant that allows self-registration
// @Tags tenants
// @Produce json
// @Param slug path string true "Tenant slug"
// @Success 200 {object} model.Membership
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /tenants/{slug}/join [post]
func (h *TenantHandler) JoinTenant(c echo.Context) error {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return httpError(errors.ErrAuthRequired)
	}

	membership, err := h.tenantService.JoinTenant(c.Request().Context(), identity.UserID, c.Param("slug"))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, membership)
}
