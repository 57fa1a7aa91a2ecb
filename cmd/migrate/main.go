package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"event-ticketing-api/internal/config"
	"event-ticketing-api/internal/database"
)

func main() {
	var (
		statusFlag = flag.Bool("status", false, "Show migration status")
		upFlag     = flag.Bool("up", false, "Run pending migrations")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg.Log, os.Stderr)

	db, err := database.NewConnection(database.Config{
		Driver:   cfg.Database.Driver,
		URL:      cfg.Database.URL,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()

	switch {
	case *statusFlag:
		status, err := database.NewMigrator(db.DB, logger).Status(ctx)
		if err != nil {
			logger.Error("failed to get migration status", "error", err)
			os.Exit(1)
		}
		for _, s := range status {
			state := "pending"
			switch {
			case s.Modified:
				state = "applied (modified since)"
			case s.Applied:
				state = "applied"
			}
			fmt.Printf("%03d  %-40s %s\n", s.Version, s.Name, state)
		}
	case *upFlag:
		applied, err := db.RunMigrations(ctx, logger)
		if err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		fmt.Printf("Applied %d migration(s)\n", applied)
	default:
		fmt.Println("Usage:")
		fmt.Println("  go run ./cmd/migrate -status   # Show migration status")
		fmt.Println("  go run ./cmd/migrate -up       # Run pending migrations")
		os.Exit(1)
	}
}
