// cmd/migrate/main.go
package main

import (
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"

	"github.com/leadflow/automation/internal/log"
)

func main() {
	logger := log.GetLogger()

	if err := godotenv.Load(); err != nil {
		logger.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal("DATABASE_URL is required")
	}

	src := os.Getenv("MIGRATIONS_PATH")
	if src == "" {
		src = "file://migrations"
	}

	m, err := migrate.New(src, dsn)
	if err != nil {
		logger.Fatalf("failed to init migrations: %v", err)
	}

	direction := "up"
	if len(os.Args) > 1 {
		direction = os.Args[1]
	}

	switch direction {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	default:
		logger.Fatalf("unknown direction %q, want up or down", direction)
	}

	if err != nil && err != migrate.ErrNoChange {
		logger.Fatalf("migration failed: %v", err)
	}

	logger.Println("✅ Migrations applied")
}
