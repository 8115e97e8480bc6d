package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mindmetric/internal/domain"
	"mindmetric/internal/repository/models"
	"mindmetric/internal/util"

	"github.com/jmoiron/sqlx"
)

const userColumns = `id, google_id, email, name, profile_picture_url,
	age, gender, education, country, created_at, updated_at, deleted_at`

// UserDatabaseAdapter implements domain.UserRepository using sqlx.DB
type UserDatabaseAdapter struct {
	db *sqlx.DB
}

// NewUserDatabaseAdapter creates a new instance of UserDatabaseAdapter
func NewUserDatabaseAdapter(db *sqlx.DB) domain.UserRepository {
	return &UserDatabaseAdapter{db: db}
}

// GetUserByID implements domain.UserRepository
func (a *UserDatabaseAdapter) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return a.getUserBy(ctx, "id", id)
}

// GetUserByGoogleID implements domain.UserRepository
func (a *UserDatabaseAdapter) GetUserByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	return a.getUserBy(ctx, "google_id", googleID)
}

func (a *UserDatabaseAdapter) getUserBy(ctx context.Context, column, value string) (*domain.User, error) {
	exec := GetExecutor(ctx, a.db)

	var m models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1 AND deleted_at IS NULL`
	err := exec.GetContext(ctx, &m, query, value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by %s: %w", column, err)
	}
	return toDomainUser(&m), nil
}

// CreateUser implements domain.UserRepository
func (a *UserDatabaseAdapter) CreateUser(ctx context.Context, u *domain.User) error {
	if u == nil {
		return fmt.Errorf("cannot create nil user")
	}
	exec := GetExecutor(ctx, a.db)

	m := fromDomainUser(u)
	m.ID = util.NewULID()
	m.CreatedAt = time.Now()
	m.UpdatedAt = m.CreatedAt

	query := `INSERT INTO users (
		id, google_id, email, name, profile_picture_url,
		age, gender, education, country, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := exec.ExecContext(ctx, query,
		m.ID,
		m.GoogleID,
		m.Email,
		m.Name,
		m.ProfilePictureURL,
		m.Age,
		m.Gender,
		m.Education,
		m.Country,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	u.ID = m.ID
	u.CreatedAt = m.CreatedAt
	u.UpdatedAt = m.UpdatedAt
	return nil
}

// UpdateDemographics implements domain.UserRepository. Demographics are the
// only user attributes the system ever mutates.
func (a *UserDatabaseAdapter) UpdateDemographics(ctx context.Context, id string, d domain.Demographics) error {
	exec := GetExecutor(ctx, a.db)

	query := `UPDATE users SET
		age = $2,
		gender = $3,
		education = $4,
		country = $5,
		updated_at = $6
	WHERE id = $1 AND deleted_at IS NULL`

	result, err := exec.ExecContext(ctx, query,
		id,
		util.IntToNullInt64(d.Age),
		util.StringToNullString(d.Gender),
		util.StringToNullString(d.Education),
		util.StringToNullString(d.Country),
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to update demographics for user %s: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.NewNotFoundError(fmt.Sprintf("User not found with ID: %s", id))
	}
	return nil
}

func toDomainUser(m *models.User) *domain.User {
	if m == nil {
		return nil
	}
	var deletedAt *time.Time
	if m.DeletedAt.Valid {
		deletedAt = &m.DeletedAt.Time
	}
	return &domain.User{
		ID:                m.ID,
		GoogleID:          m.GoogleID,
		Email:             m.Email,
		Name:              m.Name.String,
		ProfilePictureURL: m.ProfilePictureURL.String,
		Demographics: domain.Demographics{
			Age:       int(m.Age.Int64),
			Gender:    m.Gender.String,
			Education: m.Education.String,
			Country:   m.Country.String,
		},
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
		DeletedAt: deletedAt,
	}
}

func fromDomainUser(d *domain.User) *models.User {
	if d == nil {
		return nil
	}
	var deletedAt sql.NullTime
	if d.DeletedAt != nil {
		deletedAt = util.TimeToNullTime(*d.DeletedAt)
	}
	return &models.User{
		ID:                d.ID,
		GoogleID:          d.GoogleID,
		Email:             d.Email,
		Name:              util.StringToNullString(d.Name),
		ProfilePictureURL: util.StringToNullString(d.ProfilePictureURL),
		Age:               util.IntToNullInt64(d.Demographics.Age),
		Gender:            util.StringToNullString(d.Demographics.Gender),
		Education:         util.StringToNullString(d.Demographics.Education),
		Country:           util.StringToNullString(d.Demographics.Country),
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
		DeletedAt:         deletedAt,
	}
}
