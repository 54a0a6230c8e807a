package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/campuskit/timetable-api/internal/models"
)

// RoomConfigRepository provides persistence for per-scope room configurations.
type RoomConfigRepository struct {
	db *sqlx.DB
}

// NewRoomConfigRepository creates a new room configuration repository.
func NewRoomConfigRepository(db *sqlx.DB) *RoomConfigRepository {
	return &RoomConfigRepository{db: db}
}

// ListAll returns every room configuration ordered by semester and division.
func (r *RoomConfigRepository) ListAll(ctx context.Context) ([]models.RoomConfig, error) {
	const query = `SELECT id, semester, division, home_room_name, selected_labs, created_at, updated_at FROM room_configs ORDER BY semester ASC, division ASC`
	var configs []models.RoomConfig
	if err := r.db.SelectContext(ctx, &configs, query); err != nil {
		return nil, fmt.Errorf("list all room configs: %w", err)
	}
	return configs, nil
}

// FindByScope loads the room configuration for a (semester, division) pair.
func (r *RoomConfigRepository) FindByScope(ctx context.Context, semester int, division string) (*models.RoomConfig, error) {
	const query = `SELECT id, semester, division, home_room_name, selected_labs, created_at, updated_at FROM room_configs WHERE semester = $1 AND division = $2`
	var cfg models.RoomConfig
	if err := r.db.GetContext(ctx, &cfg, query, semester, division); err != nil {
		return nil, err
	}
	return &cfg, nil
}
