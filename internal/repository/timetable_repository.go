package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campuskit/timetable-api/internal/models"
)

// TimetableRepository provides persistence for generated timetable entries.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository creates a new timetable repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

const timetableColumns = "id, day, time_label, semester, division, staff_id, staff_name, subject, session_type, room_name, created_at"

// List returns timetable entries matching the filter.
func (r *TimetableRepository) List(ctx context.Context, filter models.TimetableFilter) ([]models.TimetableEntry, error) {
	base := "FROM timetable_entries WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Semester > 0 {
		conditions = append(conditions, fmt.Sprintf("semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}
	if filter.Division != "" {
		conditions = append(conditions, fmt.Sprintf("division = $%d", len(args)+1))
		args = append(args, filter.Division)
	}
	if filter.StaffID != "" {
		conditions = append(conditions, fmt.Sprintf("staff_id = $%d", len(args)+1))
		args = append(args, filter.StaffID)
	}
	if filter.Day != "" {
		conditions = append(conditions, fmt.Sprintf("day = $%d", len(args)+1))
		args = append(args, filter.Day)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf("SELECT %s %s ORDER BY semester ASC, division ASC", timetableColumns, base)
	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list timetable entries: %w", err)
	}
	return entries, nil
}

// ListAll returns the full schedule snapshot across every scope.
func (r *TimetableRepository) ListAll(ctx context.Context) ([]models.TimetableEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM timetable_entries ORDER BY semester ASC, division ASC", timetableColumns)
	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("list all timetable entries: %w", err)
	}
	return entries, nil
}

// ListByStaff returns every session taught by a staff member.
func (r *TimetableRepository) ListByStaff(ctx context.Context, staffID string) ([]models.TimetableEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM timetable_entries WHERE staff_id = $1 ORDER BY semester ASC, division ASC", timetableColumns)
	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query, staffID); err != nil {
		return nil, fmt.Errorf("list timetable entries by staff: %w", err)
	}
	return entries, nil
}

// DeleteByScope removes every entry of a (semester, division) scope.
func (r *TimetableRepository) DeleteByScope(ctx context.Context, scope models.Scope) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM timetable_entries WHERE semester = $1 AND division = $2`, scope.Semester, scope.Division); err != nil {
		return fmt.Errorf("delete timetable scope: %w", err)
	}
	return nil
}

// DeleteByScopeTx removes a scope's entries inside an existing transaction.
func (r *TimetableRepository) DeleteByScopeTx(ctx context.Context, tx *sqlx.Tx, scope models.Scope) error {
	if tx == nil {
		return fmt.Errorf("nil transaction provided")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM timetable_entries WHERE semester = $1 AND division = $2`, scope.Semester, scope.Division); err != nil {
		return fmt.Errorf("delete timetable scope: %w", err)
	}
	return nil
}

// BulkCreateWithTx inserts entries using an existing transaction.
func (r *TimetableRepository) BulkCreateWithTx(ctx context.Context, tx *sqlx.Tx, entries []models.TimetableEntry) error {
	if tx == nil {
		return fmt.Errorf("nil transaction provided")
	}
	return r.bulkInsertEntries(ctx, tx, entries)
}

func (r *TimetableRepository) bulkInsertEntries(ctx context.Context, exec sqlx.ExtContext, entries []models.TimetableEntry) error {
	now := time.Now().UTC()
	for i := range entries {
		payload := entries[i]
		if payload.ID == "" {
			payload.ID = uuid.NewString()
		}
		if payload.CreatedAt.IsZero() {
			payload.CreatedAt = now
		}

		if _, err := sqlx.NamedExecContext(ctx, exec, `INSERT INTO timetable_entries (id, day, time_label, semester, division, staff_id, staff_name, subject, session_type, room_name, created_at) VALUES (:id, :day, :time_label, :semester, :division, :staff_id, :staff_name, :subject, :session_type, :room_name, :created_at)`, &payload); err != nil {
			return fmt.Errorf("bulk insert timetable entry: %w", err)
		}
		entries[i] = payload
	}
	return nil
}
