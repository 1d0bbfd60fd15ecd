package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"eventhub/internal/models"
	"eventhub/internal/store"
)

type seedProvider struct {
	UID         string
	Email       string
	Role        models.Role
	BrandName   string
	Description string
	Pricing     []models.ServiceOffering
	Location    models.Location
	Venues      []seedVenue
}

type seedVenue struct {
	Name        string
	Description string
	Capacity    int
	Price       float64
	Currency    models.Currency
	City        string
	ImageURL    string
}

var demoProviders = []seedProvider{
	{
		UID:         "demo-venue-eko",
		Email:       "bookings@ekohall.example",
		Role:        models.RoleVenue,
		BrandName:   "Eko Grand Hall",
		Description: "Waterfront banquet hall for weddings and conferences.",
		Pricing: []models.ServiceOffering{
			{Name: "Hall hire (full day)", Price: "2500", Currency: "USD"},
			{Name: "In-house catering per guest", Price: "18", Currency: "USD"},
		},
		Location: models.Location{Address: "12 Marina Road", City: "Lagos", State: "Lagos", Zip: "101001", Country: "Nigeria"},
		Venues: []seedVenue{
			{Name: "Main Ballroom", Description: "Seats 400 banquet style.", Capacity: 400, Price: 2500, Currency: "USD", City: "Lagos", ImageURL: "https://images.example/eko/ballroom.jpg"},
			{Name: "Rooftop Terrace", Description: "Open-air cocktails with lagoon views.", Capacity: 120, Price: 900, Currency: "USD", City: "Lagos", ImageURL: "https://images.example/eko/terrace.jpg"},
		},
	},
	{
		UID:         "demo-planner-accra",
		Email:       "hello@goldcoastevents.example",
		Role:        models.RoleEventPlanner,
		BrandName:   "Gold Coast Events",
		Description: "Full-service planning for weddings and corporate retreats.",
		Pricing: []models.ServiceOffering{
			{Name: "Day-of coordination", Price: "6000", Currency: "GHS"},
			{Name: "Full planning package", Price: "25000", Currency: "GHS"},
		},
		Location: models.Location{Address: "4 Oxford Street", City: "Accra", State: "Greater Accra", Zip: "00233", Country: "Ghana"},
	},
	{
		UID:         "demo-planner-nairobi",
		Email:       "team@savannahsocials.example",
		Role:        models.RoleEventPlanner,
		BrandName:   "Savannah Socials",
		Description: "Destination weddings and safari lodge events.",
		Pricing: []models.ServiceOffering{
			{Name: "Destination wedding", Price: "450000", Currency: "KES"},
		},
		Location: models.Location{Address: "88 Ngong Road", City: "Nairobi", State: "Nairobi", Zip: "00100", Country: "Kenya"},
	},
}

// bootstrapDemoData creates a few listed providers and venues. Providers that already
// finished onboarding are left alone, so reruns are no-ops.
func bootstrapDemoData(ctx context.Context, db *sql.DB, dataStore *store.Store) error {
	venuesTableExists, err := tableExists(ctx, db, "venues")
	if err != nil {
		return fmt.Errorf("check venues table: %w", err)
	}

	seeded := 0
	for _, p := range demoProviders {
		created, err := ensureDemoProvider(ctx, dataStore, p)
		if err != nil {
			return err
		}
		if !created {
			continue
		}
		seeded++
		if venuesTableExists && len(p.Venues) > 0 {
			if err := insertDemoVenues(ctx, db, p); err != nil {
				return err
			}
		}
	}

	if seeded > 0 {
		log.Info().Int("providers", seeded).Msg("Seeded demo marketplace data")
	}
	return nil
}

func ensureDemoProvider(ctx context.Context, dataStore *store.Store, p seedProvider) (bool, error) {
	account, _, err := dataStore.EnsureAccount(ctx, p.UID, p.Email, p.BrandName)
	if err != nil {
		return false, fmt.Errorf("bootstrap demo account %s: %w", p.UID, err)
	}
	if account.HasCompleted {
		return false, nil
	}

	if err := dataStore.UpdateRoleAndBrand(ctx, p.UID, p.Role, p.BrandName, p.Description); err != nil {
		return false, fmt.Errorf("bootstrap demo brand %s: %w", p.UID, err)
	}
	if err := dataStore.UpdateServices(ctx, p.UID, p.Pricing); err != nil {
		return false, fmt.Errorf("bootstrap demo services %s: %w", p.UID, err)
	}
	if err := dataStore.UpdateLocation(ctx, p.UID, p.Location); err != nil {
		return false, fmt.Errorf("bootstrap demo location %s: %w", p.UID, err)
	}
	if _, err := dataStore.CompleteOnboarding(ctx, p.UID); err != nil {
		return false, fmt.Errorf("bootstrap demo completion %s: %w", p.UID, err)
	}
	if !account.IsPushedToMarket.IsSet() {
		if _, err := dataStore.ToggleAccountPublication(ctx, p.UID, time.Now().UTC()); err != nil {
			return false, fmt.Errorf("bootstrap demo listing %s: %w", p.UID, err)
		}
	}
	return true, nil
}

func insertDemoVenues(ctx context.Context, db *sql.DB, p seedProvider) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	for _, v := range p.Venues {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO venues (vendor_id, venue_name, description, capacity, price, currency, city, country, image_url, is_published)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE)
		`, p.UID, v.Name, v.Description, v.Capacity, v.Price, string(v.Currency), v.City, p.Location.Country, v.ImageURL); err != nil {
			return fmt.Errorf("insert demo venue %q: %w", v.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}
	tx = nil
	return nil
}

type queryRower interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

func tableExists(ctx context.Context, q queryRower, table string) (bool, error) {
	var name sql.NullString
	if err := q.QueryRowContext(ctx, `SELECT to_regclass($1)`, table).Scan(&name); err != nil {
		return false, err
	}
	return name.Valid, nil
}
