package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campuskit/timetable-api/internal/dto"
	"github.com/campuskit/timetable-api/internal/models"
	"github.com/campuskit/timetable-api/internal/timetable"
	appErrors "github.com/campuskit/timetable-api/pkg/errors"
	"github.com/campuskit/timetable-api/pkg/export"
)

type timetableReader interface {
	List(ctx context.Context, filter models.TimetableFilter) ([]models.TimetableEntry, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportResult is a rendered timetable ready to stream to the client.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportConfig tunes export rendering.
type ExportConfig struct {
	DayStartMinute int
	DayEndMinute   int
}

// ExportService renders stored timetables as downloadable CSV or PDF grids.
type ExportService struct {
	store     timetableReader
	csv       csvRenderer
	pdf       pdfRenderer
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(store timetableReader, csv csvRenderer, pdf pdfRenderer, validate *validator.Validate, logger *zap.Logger, cfg ExportConfig) *ExportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		store:     store,
		csv:       csv,
		pdf:       pdf,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Export renders one scope's weekly grid in the requested format.
func (s *ExportService) Export(ctx context.Context, query dto.ExportQuery) (*ExportResult, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export query")
	}
	format := query.Format
	if format == "" {
		format = "csv"
	}

	entries, err := s.store.List(ctx, models.TimetableFilter{Semester: query.Semester, Division: query.Division})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	if len(entries) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no timetable stored for semester %d division %s", query.Semester, query.Division))
	}

	dataset := s.buildGrid(entries)
	title := fmt.Sprintf("Timetable Semester %d Division %s", query.Semester, query.Division)

	var payload []byte
	var contentType string
	switch format {
	case "csv":
		payload, err = s.csv.Render(dataset)
		contentType = "text/csv"
	case "pdf":
		payload, err = s.pdf.Render(dataset, title)
		contentType = "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %s", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	timestamp := time.Now().UTC().Format("20060102_150405")
	filename := fmt.Sprintf("timetable_sem%d_div%s_%s.%s", query.Semester, strings.ToLower(query.Division), timestamp, format)

	return &ExportResult{
		Filename:    filename,
		ContentType: contentType,
		Payload:     payload,
	}, nil
}

// buildGrid pivots entries into a day-by-slot table. Every slot of the day
// window becomes a column, the recess slot included.
func (s *ExportService) buildGrid(entries []models.TimetableEntry) export.Dataset {
	slots := timetable.BuildSlots(s.cfg.DayStartMinute, s.cfg.DayEndMinute)

	headers := make([]string, 0, len(slots)+1)
	headers = append(headers, "Day")
	for _, slot := range slots {
		headers = append(headers, slot.Label)
	}

	cells := make(map[string]map[string]string)
	for _, entry := range entries {
		if cells[entry.Day] == nil {
			cells[entry.Day] = make(map[string]string)
		}
		cells[entry.Day][entry.TimeLabel] = formatCell(entry)
	}

	rows := make([]map[string]string, 0, len(timetable.Weekdays))
	for _, day := range timetable.Weekdays {
		row := map[string]string{"Day": day}
		for _, slot := range slots {
			switch {
			case slot.IsRecess:
				row[slot.Label] = "RECESS"
			case cells[day][slot.Label] != "":
				row[slot.Label] = cells[day][slot.Label]
			default:
				row[slot.Label] = "-"
			}
		}
		rows = append(rows, row)
	}

	return export.Dataset{Headers: headers, Rows: rows}
}

func formatCell(entry models.TimetableEntry) string {
	cell := entry.Subject
	if entry.Type == models.SessionTypeLab {
		cell += " (Lab)"
	}
	if entry.StaffName != "" {
		cell += " - " + entry.StaffName
	}
	if entry.RoomName != "" {
		cell += " @ " + entry.RoomName
	}
	return cell
}
