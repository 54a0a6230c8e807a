package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRoomConfigRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestRoomConfigRepositoryFindByScope(t *testing.T) {
	db, mock, cleanup := newRoomConfigRepoMock(t)
	defer cleanup()
	repo := NewRoomConfigRepository(db)

	rows := sqlmock.NewRows([]string{"id", "semester", "division", "home_room_name", "selected_labs", "created_at", "updated_at"}).
		AddRow("cfg-1", 4, "A", "B-31", "{L1,L2}", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM room_configs WHERE semester = $1 AND division = $2")).
		WithArgs(4, "A").
		WillReturnRows(rows)

	cfg, err := repo.FindByScope(context.Background(), 4, "A")
	require.NoError(t, err)
	assert.Equal(t, "B-31", cfg.HomeRoomName)
	assert.Equal(t, []string{"L1", "L2"}, []string(cfg.SelectedLabs))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomConfigRepositoryFindByScopeMissing(t *testing.T) {
	db, mock, cleanup := newRoomConfigRepoMock(t)
	defer cleanup()
	repo := NewRoomConfigRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM room_configs WHERE semester = $1 AND division = $2")).
		WithArgs(6, "C").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByScope(context.Background(), 6, "C")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
