package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/campuskit/timetable-api/internal/models"
)

// StaffRepository provides persistence for staff records.
type StaffRepository struct {
	db *sqlx.DB
}

// NewStaffRepository creates a new staff repository.
func NewStaffRepository(db *sqlx.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

// ListAll returns every staff member ordered by name.
func (r *StaffRepository) ListAll(ctx context.Context) ([]models.Staff, error) {
	const query = `SELECT id, name, department, created_at, updated_at FROM staff ORDER BY name ASC`
	var staff []models.Staff
	if err := r.db.SelectContext(ctx, &staff, query); err != nil {
		return nil, fmt.Errorf("list all staff: %w", err)
	}
	return staff, nil
}

// FindByID loads a staff member by id.
func (r *StaffRepository) FindByID(ctx context.Context, id string) (*models.Staff, error) {
	const query = `SELECT id, name, department, created_at, updated_at FROM staff WHERE id = $1`
	var staff models.Staff
	if err := r.db.GetContext(ctx, &staff, query, id); err != nil {
		return nil, err
	}
	return &staff, nil
}
