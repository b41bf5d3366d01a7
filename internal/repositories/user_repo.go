package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"porchboard/internal/models"
)

// ErrEmailTaken is returned when a create or email update collides
// with the global email uniqueness constraint.
var ErrEmailTaken = errors.New("email already registered")

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, user *models.User) error
	UpdateRole(ctx context.Context, cityID, id uuid.UUID, role models.Role) error
	ListByCity(ctx context.Context, cityID uuid.UUID) ([]*models.User, error)
}

type userRepo struct {
	db DB
}

func NewUserRepo(db DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	taken, err := r.EmailExists(ctx, user.Email)
	if err != nil {
		return fmt.Errorf("failed to check email uniqueness: %w", err)
	}
	if taken {
		return ErrEmailTaken
	}

	query := `
		INSERT INTO users (id, city_id, email, password_hash, name, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	`
	_, err = r.db.Exec(ctx, query, user.ID, user.CityID, user.Email, user.PasswordHash, user.Name, user.Role)
	return err
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, city_id, email, password_hash, name, role, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&user.ID, &user.CityID, &user.Email, &user.PasswordHash, &user.Name, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, city_id, email, password_hash, name, role, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	err := r.db.QueryRow(ctx, query, email).Scan(&user.ID, &user.CityID, &user.Email, &user.PasswordHash, &user.Name, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM users WHERE email = $1`
	if err := r.db.QueryRow(ctx, query, email).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userRepo) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET email = $1, password_hash = $2, name = $3, updated_at = NOW()
		WHERE id = $4
	`
	_, err := r.db.Exec(ctx, query, user.Email, user.PasswordHash, user.Name, user.ID)
	return err
}

func (r *userRepo) UpdateRole(ctx context.Context, cityID, id uuid.UUID, role models.Role) error {
	query := `
		UPDATE users
		SET role = $1, updated_at = NOW()
		WHERE city_id = $2 AND id = $3
	`
	tag, err := r.db.Exec(ctx, query, role, cityID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepo) ListByCity(ctx context.Context, cityID uuid.UUID) ([]*models.User, error) {
	query := `
		SELECT id, city_id, email, password_hash, name, role, created_at, updated_at
		FROM users
		WHERE city_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, cityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user := &models.User{}
		if err := rows.Scan(&user.ID, &user.CityID, &user.Email, &user.PasswordHash, &user.Name, &user.Role, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
