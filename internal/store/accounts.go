package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"eventhub/internal/models"
)

const accountColumns = `
		firebase_uid, COALESCE(email, ''), COALESCE(name, ''), role,
		COALESCE(brand_name, ''), COALESCE(brand_description, ''), COALESCE(logo_url, ''),
		COALESCE(photos, '[]'::jsonb), COALESCE(pricing, '[]'::jsonb), COALESCE(services, '{}'::text[]),
		COALESCE(address, ''), COALESCE(city, ''), COALESCE(state, ''), COALESCE(zip, ''), COALESCE(country, ''),
		COALESCE(bio, ''), COALESCE(website, ''), COALESCE(theme_color, ''),
		is_pushed_to_market, pushed_at, has_completed_onboarding, created_at, updated_at`

const (
	insertAccountSQL = `
		INSERT INTO users (firebase_uid, email, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (firebase_uid) DO NOTHING`

	selectAccountSQL = `SELECT` + accountColumns + `
		FROM users
		WHERE firebase_uid = $1`

	selectProvidersSQL = `SELECT` + accountColumns + `
		FROM users
		WHERE role IS NOT NULL
		ORDER BY pushed_at DESC NULLS LAST, created_at DESC`

	updateRoleAndBrandSQL = `
		UPDATE users
		SET role = $2, brand_name = $3, brand_description = $4, updated_at = NOW()
		WHERE firebase_uid = $1 AND has_completed_onboarding = FALSE`

	updateAssetsSQL = `
		UPDATE users
		SET logo_url = $2, photos = $3::jsonb, updated_at = NOW()
		WHERE firebase_uid = $1`

	updateServicesSQL = `
		UPDATE users
		SET pricing = $2::jsonb, services = $3, updated_at = NOW()
		WHERE firebase_uid = $1`

	updateLocationSQL = `
		UPDATE users
		SET address = $2, city = $3, state = $4, zip = $5, country = $6, updated_at = NOW()
		WHERE firebase_uid = $1`

	completeOnboardingSQL = `
		UPDATE users
		SET has_completed_onboarding = TRUE, updated_at = NOW()
		WHERE firebase_uid = $1 AND has_completed_onboarding = FALSE`

	updateProfileSQL = `
		UPDATE users
		SET brand_name = $2, brand_description = $3, bio = $4, website = $5, theme_color = $6, updated_at = NOW()
		WHERE firebase_uid = $1
		RETURNING` + accountColumns

	toggleAccountPublicationSQL = `
		UPDATE users
		SET is_pushed_to_market = NOT COALESCE(is_pushed_to_market, FALSE), pushed_at = $2, updated_at = NOW()
		WHERE firebase_uid = $1
		RETURNING` + accountColumns
)

// EnsureAccount creates the account row for uid if it is missing and returns the
// stored row. Existing rows, including their onboarding flag, are left untouched.
func (s *Store) EnsureAccount(ctx context.Context, uid, email, name string) (*models.Account, bool, error) {
	res, err := s.db.ExecContext(ctx, insertAccountSQL, uid, nullIfEmpty(email), nullIfEmpty(name))
	if err != nil {
		return nil, false, fmt.Errorf("insert account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("rows affected: %w", err)
	}

	account, err := s.GetAccount(ctx, uid)
	if err != nil {
		return nil, false, err
	}
	return account, n > 0, nil
}

// GetAccount loads the account keyed by uid.
func (s *Store) GetAccount(ctx context.Context, uid string) (*models.Account, error) {
	account, err := scanAccount(s.db.QueryRowContext(ctx, selectAccountSQL, uid))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select account: %w", err)
	}
	return account, nil
}

// ListProviderAccounts returns every account that picked a provider role, regardless
// of visibility. Callers apply the visibility rule.
func (s *Store) ListProviderAccounts(ctx context.Context) ([]*models.Account, error) {
	rows, err := s.db.QueryContext(ctx, selectProvidersSQL)
	if err != nil {
		return nil, fmt.Errorf("select providers: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan provider: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate providers: %w", err)
	}
	return accounts, nil
}

// UpdateRoleAndBrand persists the first wizard step. Role is only writable until
// onboarding completes.
func (s *Store) UpdateRoleAndBrand(ctx context.Context, uid string, role models.Role, brandName, brandDescription string) error {
	res, err := s.db.ExecContext(ctx, updateRoleAndBrandSQL, uid, string(role), brandName, brandDescription)
	if err != nil {
		return fmt.Errorf("update role and brand: %w", err)
	}
	return expectOneRow(res, ErrOnboardingClosed)
}

// UpdateAssets writes the logo URL and gallery in one statement.
func (s *Store) UpdateAssets(ctx context.Context, uid, logoURL string, photos []string) error {
	if photos == nil {
		photos = []string{}
	}
	photosJSON, err := json.Marshal(photos)
	if err != nil {
		return fmt.Errorf("marshal photos: %w", err)
	}

	res, err := s.db.ExecContext(ctx, updateAssetsSQL, uid, logoURL, string(photosJSON))
	if err != nil {
		return fmt.Errorf("update assets: %w", err)
	}
	return expectOneRow(res, ErrAccountNotFound)
}

// UpdateServices replaces the pricing list and the derived service names together.
func (s *Store) UpdateServices(ctx context.Context, uid string, pricing []models.ServiceOffering) error {
	if pricing == nil {
		pricing = []models.ServiceOffering{}
	}
	pricingJSON, err := json.Marshal(pricing)
	if err != nil {
		return fmt.Errorf("marshal pricing: %w", err)
	}

	res, err := s.db.ExecContext(ctx, updateServicesSQL, uid, string(pricingJSON), pq.Array(models.ServiceNames(pricing)))
	if err != nil {
		return fmt.Errorf("update services: %w", err)
	}
	return expectOneRow(res, ErrAccountNotFound)
}

// UpdateLocation writes the address block.
func (s *Store) UpdateLocation(ctx context.Context, uid string, loc models.Location) error {
	res, err := s.db.ExecContext(ctx, updateLocationSQL, uid, loc.Address, loc.City, loc.State, loc.Zip, loc.Country)
	if err != nil {
		return fmt.Errorf("update location: %w", err)
	}
	return expectOneRow(res, ErrAccountNotFound)
}

// CompleteOnboarding sets the completion flag. It reports false when the flag was
// already set; the flag is never cleared.
func (s *Store) CompleteOnboarding(ctx context.Context, uid string) (bool, error) {
	res, err := s.db.ExecContext(ctx, completeOnboardingSQL, uid)
	if err != nil {
		return false, fmt.Errorf("complete onboarding: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// UpdateProfile writes the customisable profile fields.
func (s *Store) UpdateProfile(ctx context.Context, uid string, p models.ProfileUpdate) (*models.Account, error) {
	account, err := scanAccount(s.db.QueryRowContext(ctx, updateProfileSQL,
		uid, p.BrandName, p.BrandDescription, p.Bio, p.Website, p.ThemeColor))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return account, nil
}

// ToggleAccountPublication flips marketplace visibility and stamps pushed_at in a
// single statement.
func (s *Store) ToggleAccountPublication(ctx context.Context, uid string, at time.Time) (*models.Account, error) {
	account, err := scanAccount(s.db.QueryRowContext(ctx, toggleAccountPublicationSQL, uid, at))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("toggle publication: %w", err)
	}
	return account, nil
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var (
		a           models.Account
		role        sql.NullString
		photosJSON  []byte
		pricingJSON []byte
		services    pq.StringArray
		pushedAt    sql.NullTime
	)

	if err := row.Scan(
		&a.FirebaseUID, &a.Email, &a.Name, &role,
		&a.BrandName, &a.BrandDescription, &a.LogoURL,
		&photosJSON, &pricingJSON, &services,
		&a.Address, &a.City, &a.State, &a.Zip, &a.Country,
		&a.Bio, &a.Website, &a.ThemeColor,
		&a.IsPushedToMarket, &pushedAt, &a.HasCompleted, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if role.Valid {
		a.Role = models.Role(role.String)
	}
	if pushedAt.Valid {
		t := pushedAt.Time
		a.PushedAt = &t
	}
	a.Services = []string(services)
	if a.Services == nil {
		a.Services = []string{}
	}

	a.Photos = []string{}
	if len(photosJSON) > 0 {
		if err := json.Unmarshal(photosJSON, &a.Photos); err != nil {
			return nil, fmt.Errorf("decode photos: %w", err)
		}
	}
	a.Pricing = []models.ServiceOffering{}
	if len(pricingJSON) > 0 {
		if err := json.Unmarshal(pricingJSON, &a.Pricing); err != nil {
			return nil, fmt.Errorf("decode pricing: %w", err)
		}
	}

	return &a, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
