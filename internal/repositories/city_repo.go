package repositories

import (
	"context"

	"github.com/google/uuid"

	"porchboard/internal/models"
)

type CityRepository interface {
	Create(ctx context.Context, city *models.City) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.City, error)
	GetByDomain(ctx context.Context, domain string) (*models.City, error)
	SlugOrDomainExists(ctx context.Context, slug, domain string) (bool, error)
	UpdateBranding(ctx context.Context, id uuid.UUID, branding models.Branding) error
	UpdateTier(ctx context.Context, id uuid.UUID, tier models.Tier) error
	SetStripeCustomerID(ctx context.Context, id uuid.UUID, customerID string) error
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
}

type cityRepo struct {
	db DB
}

func NewCityRepo(db DB) CityRepository {
	return &cityRepo{db: db}
}

func (r *cityRepo) Create(ctx context.Context, city *models.City) error {
	query := `
		INSERT INTO cities (id, name, slug, domain, branding, subscription_tier, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, city.ID, city.Name, city.Slug, city.Domain, city.Branding, city.SubscriptionTier)
	return err
}

func (r *cityRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.City, error) {
	city := &models.City{}
	query := `
		SELECT id, name, slug, domain, branding, subscription_tier, stripe_customer_id, created_at, updated_at
		FROM cities
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&city.ID, &city.Name, &city.Slug, &city.Domain, &city.Branding, &city.SubscriptionTier, &city.StripeCustomerID, &city.CreatedAt, &city.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return city, nil
}

func (r *cityRepo) GetByDomain(ctx context.Context, domain string) (*models.City, error) {
	city := &models.City{}
	query := `
		SELECT id, name, slug, domain, branding, subscription_tier, stripe_customer_id, created_at, updated_at
		FROM cities
		WHERE domain = $1
	`
	err := r.db.QueryRow(ctx, query, domain).Scan(&city.ID, &city.Name, &city.Slug, &city.Domain, &city.Branding, &city.SubscriptionTier, &city.StripeCustomerID, &city.CreatedAt, &city.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return city, nil
}

func (r *cityRepo) SlugOrDomainExists(ctx context.Context, slug, domain string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM cities WHERE slug = $1 OR domain = $2`
	if err := r.db.QueryRow(ctx, query, slug, domain).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *cityRepo) UpdateBranding(ctx context.Context, id uuid.UUID, branding models.Branding) error {
	query := `
		UPDATE cities
		SET branding = $1, updated_at = NOW()
		WHERE id = $2
	`
	_, err := r.db.Exec(ctx, query, branding, id)
	return err
}

func (r *cityRepo) UpdateTier(ctx context.Context, id uuid.UUID, tier models.Tier) error {
	query := `
		UPDATE cities
		SET subscription_tier = $1, updated_at = NOW()
		WHERE id = $2
	`
	_, err := r.db.Exec(ctx, query, tier, id)
	return err
}

func (r *cityRepo) SetStripeCustomerID(ctx context.Context, id uuid.UUID, customerID string) error {
	query := `
		UPDATE cities
		SET stripe_customer_id = $1, updated_at = NOW()
		WHERE id = $2
	`
	_, err := r.db.Exec(ctx, query, customerID, id)
	return err
}

func (r *cityRepo) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM cities ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
