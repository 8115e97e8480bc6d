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

// NormGroupDatabaseAdapter implements domain.NormGroupRepository using sqlx.DB.
// The table is reference data: read at scoring time, written only by seeding.
type NormGroupDatabaseAdapter struct {
	db *sqlx.DB
}

// NewNormGroupDatabaseAdapter creates a new instance of NormGroupDatabaseAdapter
func NewNormGroupDatabaseAdapter(db *sqlx.DB) domain.NormGroupRepository {
	return &NormGroupDatabaseAdapter{db: db}
}

// FindForDemographics implements domain.NormGroupRepository. Country-specific
// rows within the age band win over the country-agnostic band; nil means no
// slice matched and the caller should fall back to the population defaults.
func (a *NormGroupDatabaseAdapter) FindForDemographics(ctx context.Context, d domain.Demographics) (*domain.NormGroup, error) {
	exec := GetExecutor(ctx, a.db)

	var m models.NormGroup
	query := `SELECT id, name, age_min, age_max, country, mean, std_dev, created_at
	FROM norm_groups
	WHERE age_min <= $1 AND age_max >= $1
	AND (country IS NULL OR country = $2)
	ORDER BY country NULLS LAST
	LIMIT 1`
	err := exec.GetContext(ctx, &m, query, d.Age, d.Country)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find norm group: %w", err)
	}
	return toDomainNormGroup(&m), nil
}

// SaveNormGroup implements domain.NormGroupRepository
func (a *NormGroupDatabaseAdapter) SaveNormGroup(ctx context.Context, g *domain.NormGroup) error {
	if g == nil {
		return fmt.Errorf("cannot save nil norm group")
	}
	exec := GetExecutor(ctx, a.db)

	m := fromDomainNormGroup(g)
	m.ID = util.NewULID()
	m.CreatedAt = time.Now()

	query := `INSERT INTO norm_groups (id, name, age_min, age_max, country, mean, std_dev, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := exec.ExecContext(ctx, query,
		m.ID,
		m.Name,
		m.AgeMin,
		m.AgeMax,
		m.Country,
		m.Mean,
		m.StdDev,
		m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save norm group: %w", err)
	}

	g.ID = m.ID
	g.CreatedAt = m.CreatedAt
	return nil
}

func toDomainNormGroup(m *models.NormGroup) *domain.NormGroup {
	if m == nil {
		return nil
	}
	return &domain.NormGroup{
		ID:        m.ID,
		Name:      m.Name,
		AgeMin:    m.AgeMin,
		AgeMax:    m.AgeMax,
		Country:   m.Country.String,
		Mean:      m.Mean,
		StdDev:    m.StdDev,
		CreatedAt: m.CreatedAt,
	}
}

func fromDomainNormGroup(d *domain.NormGroup) *models.NormGroup {
	if d == nil {
		return nil
	}
	return &models.NormGroup{
		ID:        d.ID,
		Name:      d.Name,
		AgeMin:    d.AgeMin,
		AgeMax:    d.AgeMax,
		Country:   util.StringToNullString(d.Country),
		Mean:      d.Mean,
		StdDev:    d.StdDev,
		CreatedAt: d.CreatedAt,
	}
}
