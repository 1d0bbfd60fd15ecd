package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"eventhub/internal/models"
)

const venueColumns = `
		id, vendor_id, venue_name, COALESCE(description, ''), capacity, price, currency,
		COALESCE(city, ''), COALESCE(country, ''), COALESCE(image_url, ''), is_published,
		created_at, updated_at`

const (
	insertVenueSQL = `
		INSERT INTO venues (vendor_id, venue_name, description, capacity, price, currency, city, country, image_url, is_published)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, FALSE)
		RETURNING` + venueColumns

	selectVenuesByOwnerSQL = `SELECT` + venueColumns + `
		FROM venues
		WHERE vendor_id = $1
		ORDER BY created_at DESC, id DESC`

	selectVenueSQL = `SELECT` + venueColumns + `
		FROM venues
		WHERE id = $1`

	selectPublishedVenuesSQL = `SELECT` + venueColumns + `
		FROM venues
		WHERE is_published = TRUE
		ORDER BY created_at DESC, id DESC`

	updateVenueSQL = `
		UPDATE venues
		SET venue_name = $3, description = $4, capacity = $5, price = $6, currency = $7,
		    city = $8, country = $9, image_url = $10, updated_at = NOW()
		WHERE id = $1 AND vendor_id = $2
		RETURNING` + venueColumns

	deleteVenueSQL = `DELETE FROM venues WHERE id = $1 AND vendor_id = $2`

	toggleVenuePublicationSQL = `
		UPDATE venues
		SET is_published = NOT is_published, updated_at = $3
		WHERE id = $1 AND vendor_id = $2
		RETURNING` + venueColumns
)

// CreateVenue inserts an unpublished venue owned by uid.
func (s *Store) CreateVenue(ctx context.Context, uid string, v *models.Venue) (*models.Venue, error) {
	created, err := scanVenue(s.db.QueryRowContext(ctx, insertVenueSQL,
		uid, v.VenueName, v.Description, v.Capacity, v.Price, string(v.Currency), v.City, v.Country, v.ImageURL))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("insert venue: %w", err)
	}
	return created, nil
}

// ListVenuesByOwner returns uid's venues, newest first.
func (s *Store) ListVenuesByOwner(ctx context.Context, uid string) ([]*models.Venue, error) {
	return s.queryVenues(ctx, selectVenuesByOwnerSQL, uid)
}

// ListPublishedVenues returns every published venue, newest first.
func (s *Store) ListPublishedVenues(ctx context.Context) ([]*models.Venue, error) {
	return s.queryVenues(ctx, selectPublishedVenuesSQL)
}

// GetVenue retrieves a single venue by ID.
func (s *Store) GetVenue(ctx context.Context, id int64) (*models.Venue, error) {
	v, err := scanVenue(s.db.QueryRowContext(ctx, selectVenueSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVenueNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select venue: %w", err)
	}
	return v, nil
}

// UpdateVenue rewrites the editable fields of a venue owned by uid.
func (s *Store) UpdateVenue(ctx context.Context, uid string, id int64, v *models.Venue) (*models.Venue, error) {
	updated, err := scanVenue(s.db.QueryRowContext(ctx, updateVenueSQL,
		id, uid, v.VenueName, v.Description, v.Capacity, v.Price, string(v.Currency), v.City, v.Country, v.ImageURL))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVenueNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update venue: %w", err)
	}
	return updated, nil
}

// DeleteVenue removes a venue owned by uid.
func (s *Store) DeleteVenue(ctx context.Context, uid string, id int64) error {
	res, err := s.db.ExecContext(ctx, deleteVenueSQL, id, uid)
	if err != nil {
		return fmt.Errorf("delete venue: %w", err)
	}
	return expectOneRow(res, ErrVenueNotFound)
}

// ToggleVenuePublication flips is_published and stamps updated_at in one statement.
func (s *Store) ToggleVenuePublication(ctx context.Context, uid string, id int64, at time.Time) (*models.Venue, error) {
	v, err := scanVenue(s.db.QueryRowContext(ctx, toggleVenuePublicationSQL, id, uid, at))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVenueNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("toggle venue publication: %w", err)
	}
	return v, nil
}

func (s *Store) queryVenues(ctx context.Context, query string, args ...any) ([]*models.Venue, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select venues: %w", err)
	}
	defer rows.Close()

	var venues []*models.Venue
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, fmt.Errorf("scan venue: %w", err)
		}
		venues = append(venues, v)
	}
	return venues, rows.Err()
}

func scanVenue(row rowScanner) (*models.Venue, error) {
	var (
		v        models.Venue
		currency string
	)
	if err := row.Scan(
		&v.ID, &v.VendorID, &v.VenueName, &v.Description, &v.Capacity, &v.Price, &currency,
		&v.City, &v.Country, &v.ImageURL, &v.IsPublished, &v.CreatedAt, &v.UpdatedAt,
	); err != nil {
		return nil, err
	}
	v.Currency = models.Currency(currency)
	return &v, nil
}
