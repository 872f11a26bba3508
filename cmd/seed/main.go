package main

import (
	"context"
	"flag"
	"log"

	"golang.org/x/crypto/bcrypt"

	"tenantcore/internal/config"
	"tenantcore/internal/db"
	"tenantcore/internal/model"
	"tenantcore/internal/repository"
)

// Seeds a system admin user and a demo tenant so a fresh database is usable
// immediately.
func main() {
	adminEmail := flag.String("admin-email", "admin@example.com", "system admin email")
	adminUsername := flag.String("admin-username", "admin", "system admin username")
	adminPassword := flag.String("admin-password", "changeme123", "system admin password")
	tenantName := flag.String("tenant-name", "Demo Tenant", "demo tenant name")
	flag.Parse()

	log.Println("Starting seed script...")

	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := gormDB.AutoMigrate(&model.User{}, &model.Tenant{}, &model.Membership{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	ctx := context.Background()
	users := repository.NewUserRepository(gormDB)
	tenants := repository.NewTenantRepository(gormDB)
	memberships := repository.NewMembershipRepository(gormDB)

	admin, err := users.FindByEmail(ctx, *adminEmail)
	if err != nil {
		hashed, herr := bcrypt.GenerateFromPassword([]byte(*adminPassword), cfg.BcryptCost)
		if herr != nil {
			log.Fatalf("Failed to hash admin password: %v", herr)
		}
		admin = &model.User{
			Username:      *adminUsername,
			Email:         model.NormalizeEmail(*adminEmail),
			PasswordHash:  string(hashed),
			IsSystemAdmin: true,
		}
		if err := users.Create(ctx, admin); err != nil {
			log.Fatalf("Failed to create admin user: %v", err)
		}
		log.Printf("Created system admin %q (%s)", admin.Username, admin.Email)
	} else {
		log.Printf("System admin %q already exists, skipping", admin.Username)
	}

	slug := model.Slugify(*tenantName)
	tenant, err := tenants.FindBySlug(ctx, slug)
	if err != nil {
		tenant = &model.Tenant{
			Name:      *tenantName,
			Slug:      slug,
			CreatedBy: admin.ID,
			Settings:  model.DefaultSettings(),
			IsActive:  true,
		}
		if err := tenants.Create(ctx, tenant); err != nil {
			log.Fatalf("Failed to create demo tenant: %v", err)
		}
		log.Printf("Created tenant %q (slug %s)", tenant.Name, tenant.Slug)
	} else {
		log.Printf("Tenant %q already exists, skipping", tenant.Slug)
	}

	if _, err := memberships.FindByUserAndTenant(ctx, admin.ID, tenant.ID); err != nil {
		m := &model.Membership{
			UserID:   admin.ID,
			TenantID: tenant.ID,
			Role:     model.RoleTenantAdmin,
			IsActive: true,
		}
		if err := memberships.Create(ctx, m); err != nil {
			log.Fatalf("Failed to create admin membership: %v", err)
		}
		log.Printf("Granted %s on %q to %q", model.RoleTenantAdmin, tenant.Slug, admin.Username)
	}

	log.Println("Seed completed")
}
