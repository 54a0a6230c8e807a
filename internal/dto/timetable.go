package dto

import "github.com/campuskit/timetable-api/internal/models"

// GenerateTimetableRequest asks for a fresh schedule for one scope.
type GenerateTimetableRequest struct {
	Semester int    `json:"semester" form:"semester" validate:"required,min=1,max=10"`
	Division string `json:"division" form:"division" validate:"required,min=1,max=5"`
}

// GenerateBatchRequest asks for schedules across several scopes inside a
// single shared search.
type GenerateBatchRequest struct {
	Scopes []GenerateTimetableRequest `json:"scopes" validate:"required,min=1,dive"`
}

// GenerationSummary reports how a run went for one scope.
type GenerationSummary struct {
	Semester       int    `json:"semester"`
	Division       string `json:"division"`
	Perfect        bool   `json:"perfect"`
	Attempts       int    `json:"attempts"`
	Required       int    `json:"required"`
	Placed         int    `json:"placed"`
	FallbackPlaced int    `json:"fallback_placed"`
	Unplaced       int    `json:"unplaced"`
}

// GenerateTimetableResponse carries the committed schedule for one scope.
type GenerateTimetableResponse struct {
	Summary  GenerationSummary       `json:"summary"`
	Entries  []models.TimetableEntry `json:"entries"`
	Warnings []string                `json:"warnings,omitempty"`
}

// GenerateBatchResponse carries per-scope results of a batch run.
type GenerateBatchResponse struct {
	Results  []GenerateTimetableResponse `json:"results"`
	Warnings []string                    `json:"warnings,omitempty"`
}

// TimetableQuery captures query params for reading a stored timetable.
type TimetableQuery struct {
	Semester int    `form:"semester"`
	Division string `form:"division"`
	StaffID  string `form:"staff_id"`
	Day      string `form:"day"`
}

// ExportQuery selects the scope and format of a timetable export.
type ExportQuery struct {
	Semester int    `form:"semester" validate:"required,min=1,max=10"`
	Division string `form:"division" validate:"required"`
	Format   string `form:"format" validate:"omitempty,oneof=csv pdf"`
}
