package main

import (
	"log"
	"net/http"

	_ "tenantcore/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"tenantcore/internal/auth"
	"tenantcore/internal/cache"
	"tenantcore/internal/config"
	"tenantcore/internal/db"
	"tenantcore/internal/handler"
	"tenantcore/internal/logger"
	"tenantcore/internal/model"
	"tenantcore/internal/repository"
	"tenantcore/internal/router"
	"tenantcore/internal/service"
)

// @title Multi-Tenant Auth Core API
// @version 1.0
// @description Multi-tenant application skeleton with JWT authentication and tenant-scoped role-based authorization.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()

	zlog, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer zlog.Sync()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		zlog.Fatal("database init", zap.Error(err))
	}

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Tenant{},
		&model.Membership{},
	); err != nil {
		zlog.Fatal("auto-migrate", zap.Error(err))
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	// Repositories
	userRepo := repository.NewUserRepository(gormDB)
	tenantRepo := repository.NewTenantRepository(gormDB)
	membershipRepo := repository.NewMembershipRepository(gormDB)

	// Auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.TokenTTL)
	tokenStore := auth.NewTokenStore(cacheClient)
	guard := auth.NewGuard(membershipRepo)

	// Services
	authService := service.NewAuthService(userRepo, jwtService, tokenStore, cfg.BcryptCost, zlog)
	tenantService := service.NewTenantService(tenantRepo, membershipRepo, userRepo, cacheClient, zlog)

	// Handlers
	authHandler := handler.NewAuthHandler(authService, cfg)
	tenantHandler := handler.NewTenantHandler(tenantService, guard)

	e := echo.New()
	e.HideBanner = true

	router.Register(
		e,
		zlog,
		jwtService,
		guard,
		authService,
		tenantService,
		authHandler,
		tenantHandler,
	)

	addr := ":" + cfg.ServerPort
	zlog.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		zlog.Fatal("server start", zap.Error(err))
	}
}
