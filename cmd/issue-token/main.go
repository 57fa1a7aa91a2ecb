package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"event-ticketing-api/internal/config"
	"event-ticketing-api/internal/middleware"
	"event-ticketing-api/internal/models"
)

// issue-token mints a bearer token for local testing against the API
func main() {
	var (
		id   = flag.String("id", "", "Actor id (required)")
		name = flag.String("name", "", "Actor display name")
		role = flag.String("role", string(models.UserRoleUser), "Actor role: user, organizer or admin")
		ttl  = flag.Duration("ttl", 24*time.Hour, "Token lifetime")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	actor := models.Actor{ID: *id, Name: *name, Role: models.UserRole(*role)}
	if err := actor.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid actor: %v\n", err)
		os.Exit(2)
	}

	token, err := middleware.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer).Issue(actor, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to issue token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
