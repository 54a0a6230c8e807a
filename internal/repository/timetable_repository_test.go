package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuskit/timetable-api/internal/models"
)

func newTimetableRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func timetableRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "day", "time_label", "semester", "division", "staff_id", "staff_name", "subject", "session_type", "room_name", "created_at"})
}

func TestTimetableRepositoryListWithFilter(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	rows := timetableRows().
		AddRow("tt-1", "Monday", "11:00 AM - 11:50 AM", 4, "A", "staff1", "Dr. X", "DBMS", "Lecture", "B-31", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, day, time_label, semester, division, staff_id, staff_name, subject, session_type, room_name, created_at FROM timetable_entries WHERE 1=1 AND semester = $1 AND division = $2 ORDER BY semester ASC, division ASC")).
		WithArgs(4, "A").
		WillReturnRows(rows)

	entries, err := repo.List(context.Background(), models.TimetableFilter{Semester: 4, Division: "A"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "DBMS", entries[0].Subject)
	assert.Equal(t, models.SessionTypeLecture, entries[0].Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryListByStaff(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	rows := timetableRows().
		AddRow("tt-1", "Monday", "11:00 AM - 11:50 AM", 4, "A", "staff1", "Dr. X", "DBMS", "Lecture", "B-31", time.Now()).
		AddRow("tt-2", "Tuesday", "11:50 AM - 12:40 PM", 2, "B", "staff1", "Dr. X", "Maths", "Lecture", "B-11", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE staff_id = $1")).
		WithArgs("staff1").
		WillReturnRows(rows)

	entries, err := repo.ListByStaff(context.Background(), "staff1")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryReplaceScopeWithinTx(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timetable_entries WHERE semester = $1 AND division = $2")).
		WithArgs(4, "A").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable_entries")).
		WithArgs(sqlmock.AnyArg(), "Monday", "11:00 AM - 11:50 AM", 4, "A", "staff1", "Dr. X", "DBMS", "Lecture", "B-31", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	ctx := context.Background()
	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)

	scope := models.Scope{Semester: 4, Division: "A"}
	require.NoError(t, repo.DeleteByScopeTx(ctx, tx, scope))

	entries := []models.TimetableEntry{
		{Day: "Monday", TimeLabel: "11:00 AM - 11:50 AM", Semester: 4, Division: "A", StaffID: "staff1", StaffName: "Dr. X", Subject: "DBMS", Type: models.SessionTypeLecture, RoomName: "B-31"},
	}
	require.NoError(t, repo.BulkCreateWithTx(ctx, tx, entries))
	require.NoError(t, tx.Commit())

	assert.NotEmpty(t, entries[0].ID, "bulk insert assigns ids")
	assert.False(t, entries[0].CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryBulkCreateRequiresTx(t *testing.T) {
	db, _, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	err := repo.BulkCreateWithTx(context.Background(), nil, nil)
	assert.Error(t, err)

	err = repo.DeleteByScopeTx(context.Background(), nil, models.Scope{Semester: 4, Division: "A"})
	assert.Error(t, err)
}

func TestTimetableRepositoryDeleteByScope(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timetable_entries WHERE semester = $1 AND division = $2")).
		WithArgs(6, "B").
		WillReturnResult(sqlmock.NewResult(0, 7))

	require.NoError(t, repo.DeleteByScope(context.Background(), models.Scope{Semester: 6, Division: "B"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}
