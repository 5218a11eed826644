package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/SrFreiRe/oPortal/config"
	"github.com/SrFreiRe/oPortal/pkg/helpers"
)

// Seeds a local database with an admin account and a couple of sample
// records so the API is explorable right after `make up`.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	adminEmail := "admin@example.com"
	adminPassword := "Admin1234"
	hash, err := helpers.HashPassword(adminPassword)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var adminID string
	err = db.QueryRow(`
		INSERT INTO users (username, email, password_hash, role)
		VALUES ($1, $2, $3, 'admin')
		ON CONFLICT (email) DO UPDATE SET role = 'admin', updated_at = now()
		RETURNING id
	`, "admin", adminEmail, hash).Scan(&adminID)
	if err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}
	fmt.Printf("seeded admin: id=%s email=%s password=%s\n", adminID, adminEmail, adminPassword)

	userHash, err := helpers.HashPassword("User1234")
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}
	var demoID string
	err = db.QueryRow(`
		INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET updated_at = now()
		RETURNING id
	`, "demo_user", "demo@example.com", userHash).Scan(&demoID)
	if err != nil {
		log.Fatalf("failed to seed demo user: %v", err)
	}
	fmt.Printf("seeded user: id=%s email=demo@example.com password=User1234\n", demoID)

	if _, err := db.Exec(`
		INSERT INTO contents (title, body, author_id, status, tags)
		SELECT 'Getting started', 'Welcome to the content portal.', $1, 'published', '{welcome,docs}'
		WHERE NOT EXISTS (SELECT 1 FROM contents WHERE title = 'Getting started')
	`, adminID); err != nil {
		log.Fatalf("failed to seed public content: %v", err)
	}
	if _, err := db.Exec(`
		INSERT INTO contents (title, body, author_id, is_personalized, associated_users, status)
		SELECT 'Your onboarding notes', 'Tasks for your first week.', $1, TRUE, ARRAY[$2]::TEXT[], 'published'
		WHERE NOT EXISTS (SELECT 1 FROM contents WHERE title = 'Your onboarding notes')
	`, adminID, demoID); err != nil {
		log.Fatalf("failed to seed personalized content: %v", err)
	}
	fmt.Println("seeded sample content")
}
