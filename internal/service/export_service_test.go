package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campuskit/timetable-api/internal/dto"
	"github.com/campuskit/timetable-api/internal/models"
	appErrors "github.com/campuskit/timetable-api/pkg/errors"
)

type timetableReaderStub struct {
	entries []models.TimetableEntry
}

func (s timetableReaderStub) List(ctx context.Context, filter models.TimetableFilter) ([]models.TimetableEntry, error) {
	return s.entries, nil
}

func newExportServiceForTest(entries []models.TimetableEntry) *ExportService {
	reader := timetableReaderStub{entries: entries}
	return NewExportService(reader, nil, nil, nil, zap.NewNop(), ExportConfig{DayStartMinute: 660, DayEndMinute: 990})
}

func exportEntries() []models.TimetableEntry {
	return []models.TimetableEntry{
		{Day: "Monday", TimeLabel: "11:00 AM - 11:50 AM", Semester: 4, Division: "A", StaffName: "Dr. X", Subject: "DBMS", Type: models.SessionTypeLecture, RoomName: "B-31"},
		{Day: "Monday", TimeLabel: "11:50 AM - 12:40 PM", Semester: 4, Division: "A", StaffName: "Dr. X", Subject: "DBMS", Type: models.SessionTypeLab, RoomName: "L1"},
	}
}

func TestExportServiceRendersCSVGrid(t *testing.T) {
	svc := newExportServiceForTest(exportEntries())

	result, err := svc.Export(context.Background(), dto.ExportQuery{Semester: 4, Division: "A"})
	require.NoError(t, err)

	assert.Equal(t, "text/csv", result.ContentType)
	assert.True(t, strings.HasSuffix(result.Filename, ".csv"))

	body := string(result.Payload)
	assert.Contains(t, body, "DBMS - Dr. X @ B-31")
	assert.Contains(t, body, "DBMS (Lab) - Dr. X @ L1")
	assert.Contains(t, body, "RECESS")
	assert.Contains(t, body, "01:30 PM - 02:00 PM")
	assert.Contains(t, body, "Saturday")
}

func TestExportServiceRendersPDF(t *testing.T) {
	svc := newExportServiceForTest(exportEntries())

	result, err := svc.Export(context.Background(), dto.ExportQuery{Semester: 4, Division: "A", Format: "pdf"})
	require.NoError(t, err)

	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, strings.HasSuffix(result.Filename, ".pdf"))
	assert.NotEmpty(t, result.Payload)
}

func TestExportServiceEmptyScope(t *testing.T) {
	svc := newExportServiceForTest(nil)

	_, err := svc.Export(context.Background(), dto.ExportQuery{Semester: 6, Division: "C"})
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestExportServiceRejectsUnknownFormat(t *testing.T) {
	svc := newExportServiceForTest(exportEntries())

	_, err := svc.Export(context.Background(), dto.ExportQuery{Semester: 4, Division: "A", Format: "xlsx"})
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}
