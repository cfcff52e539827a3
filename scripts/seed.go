//go:build ignore

package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/hugh/boardstack/internal/auth"
	"github.com/hugh/boardstack/internal/database"
	"github.com/hugh/boardstack/internal/orgs"
	"github.com/hugh/boardstack/pkg/config"
	"github.com/hugh/boardstack/pkg/util"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Server.Env)

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// Create admin user
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry())
	authService := auth.NewService(db, jwtService)

	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	name := os.Getenv("ADMIN_NAME")

	if email == "" {
		email = "admin@example.com"
	}
	if password == "" {
		password = "admin123!"
	}
	if name == "" {
		name = "Admin"
	}

	resp, err := authService.Register(context.Background(), auth.RegisterInput{
		Email:    email,
		Password: password,
		Name:     name,
	})

	if err != nil {
		if err == auth.ErrUserExists {
			fmt.Printf("Admin user already exists: %s\n", email)
			return
		}
		log.Fatalf("failed to create admin user: %v", err)
	}

	// Create a starter organization owned by the admin
	orgService := orgs.NewService(db, nil, nil, nil, logger)
	org, err := orgService.Create(context.Background(), orgs.CreateInput{
		Name:      "Default Organization",
		Slug:      "default-org",
		CreatorID: resp.User.ID,
	})
	if err != nil && err != orgs.ErrSlugTaken {
		log.Fatalf("failed to create default organization: %v", err)
	}

	fmt.Printf("Admin user created successfully!\n")
	fmt.Printf("Email: %s\n", resp.User.Email)
	if org != nil {
		fmt.Printf("Organization: %s (%s)\n", org.Name, org.Slug)
	}
	fmt.Printf("Token: %s\n", resp.Token)
}
