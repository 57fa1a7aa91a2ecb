package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"event-ticketing-api/internal/config"
	"event-ticketing-api/internal/database"
	"event-ticketing-api/internal/models"
	"event-ticketing-api/internal/repositories"
	"event-ticketing-api/internal/services"

	"github.com/shopspring/decimal"
)

type seedEvent struct {
	title       string
	description string
	venue       string
	daysAhead   int
	startHour   int
	hours       int
	price       string
	capacity    int
}

var sampleEvents = []seedEvent{
	{"Nairobi Tech Summit", "A day of talks on cloud, data and developer tooling.", "KICC, Nairobi", 7, 9, 8, "1500.00", 300},
	{"Jazz Under the Stars", "Live jazz with local and visiting artists.", "Carnivore Grounds", 14, 19, 5, "2500.00", 150},
	{"Startup Pitch Night", "Ten early-stage teams pitch to a panel of investors.", "iHub, Nairobi", 3, 18, 3, "500.00", 80},
	{"Marathon Expo", "Bib collection, gear stalls and nutrition workshops.", "Uhuru Gardens", 21, 8, 10, "0.00", 1000},
	{"Late Night Comedy", "Stand-up that runs past midnight.", "Alliance Française", 10, 22, 4, "1000.00", 120},
}

func main() {
	organizerID := flag.String("organizer", "", "Organizer user id that owns the seeded events")
	adminID := flag.String("admin", "", "Admin user id recorded as validator; events stay drafts when empty")
	flag.Parse()

	if *organizerID == "" {
		fmt.Fprintln(os.Stderr, "-organizer is required")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
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
	eventRepo := repositories.NewEventRepository(db.DB)
	audit := services.NewAuditService(repositories.NewAuditLogRepository(db.DB), nil, nil, logger)
	eventService := services.NewEventService(eventRepo, eventRepo, nil, nil, nil, audit, logger)

	organizer := &models.Actor{ID: *organizerID, Name: "Seed Organizer", Role: models.UserRoleOrganizer}
	var admin *models.Actor
	if *adminID != "" {
		admin = &models.Actor{ID: *adminID, Name: "Seed Admin", Role: models.UserRoleAdmin}
	}

	loc := cfg.Ticketing.Location()
	today := time.Now().In(loc)

	created := 0
	for _, s := range sampleEvents {
		day := today.AddDate(0, 0, s.daysAhead)
		start := time.Date(day.Year(), day.Month(), day.Day(), s.startHour, 0, 0, 0, loc)

		event, err := eventService.Create(ctx, &models.EventCreateRequest{
			Title:         s.title,
			Description:   s.description,
			Venue:         s.venue,
			StartDate:     start,
			EndDate:       start.Add(time.Duration(s.hours) * time.Hour),
			TicketPrice:   decimal.RequireFromString(s.price),
			TotalCapacity: s.capacity,
		}, organizer)
		if err != nil {
			logger.Error("failed to create event", "title", s.title, "error", err)
			continue
		}

		if admin != nil {
			validated, err := eventService.Validate(ctx, event.ID, admin)
			if err != nil {
				logger.Error("failed to validate event", "event_id", event.ID, "error", err)
				continue
			}
			event = validated
		}

		created++
		fmt.Printf("%s  %-25s %s  %s\n", event.ID, event.Title, event.Status, event.StartDate.In(loc).Format(time.RFC1123))
	}

	fmt.Printf("Seeded %d of %d events\n", created, len(sampleEvents))
}
