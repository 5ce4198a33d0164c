package main

import (
	"context"
	"database/sql"
	"log"
	"os"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/pressly/goose/v3"

	"github.com/jonnyvector/send-buddy-sub000/migrations"
)

var db *sql.DB

func initDB() {
	// Get database URL from environment variable, fallback to default for development
	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		connStr = "user=sendbuddy password=sendbuddy dbname=sendbuddydb sslmode=disable"
		log.Println("Warning: DATABASE_URL not set, using default connection string")
	}

	var err error
	db, err = sql.Open("postgres", connStr)
	if err != nil {
		log.Fatal("Error connecting to the database:", err)
	}
	err = db.Ping()
	if err != nil {
		log.Fatal("Cannot reach the database:", err)
	}
	log.Println("Database connection established successfully")

	runMigrations(db)
}

// runMigrations applies any pending schema migrations from the embedded
// migrations directory, so a fresh database bootstraps itself on startup.
func runMigrations(db *sql.DB) {
	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		log.Fatal("Error creating migration provider:", err)
	}
	results, err := provider.Up(context.Background())
	if err != nil {
		log.Fatal("Error running migrations:", err)
	}
	for _, r := range results {
		log.Printf("Applied migration %s", r.Source.Path)
	}
}
