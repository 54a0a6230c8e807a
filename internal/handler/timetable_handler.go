package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuskit/timetable-api/internal/dto"
	"github.com/campuskit/timetable-api/internal/models"
	"github.com/campuskit/timetable-api/internal/service"
	appErrors "github.com/campuskit/timetable-api/pkg/errors"
	"github.com/campuskit/timetable-api/pkg/response"
)

const maxBatchScopes = 64

type timetableGenerator interface {
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error)
	GenerateBatch(ctx context.Context, req dto.GenerateBatchRequest) (*dto.GenerateBatchResponse, error)
	Get(ctx context.Context, query dto.TimetableQuery) ([]models.TimetableEntry, error)
	StaffView(ctx context.Context, staffID string) ([]models.TimetableEntry, error)
	Clear(ctx context.Context, req dto.GenerateTimetableRequest) error
}

type timetableExporter interface {
	Export(ctx context.Context, query dto.ExportQuery) (*service.ExportResult, error)
}

// TimetableHandler exposes timetable generation and read endpoints.
type TimetableHandler struct {
	service  timetableGenerator
	exporter timetableExporter
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(svc *service.TimetableService, exporter *service.ExportService) *TimetableHandler {
	return &TimetableHandler{service: svc, exporter: exporter}
}

// Generate godoc
// @Summary Generate a timetable for one semester-division scope
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Target scope"
// @Success 200 {object} response.Envelope
// @Router /timetable/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}
	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, warningsMeta(result.Warnings))
}

// GenerateBatch godoc
// @Summary Generate timetables for several scopes in one shared search
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.GenerateBatchRequest true "Target scopes"
// @Success 200 {object} response.Envelope
// @Router /timetable/generate-batch [post]
func (h *TimetableHandler) GenerateBatch(c *gin.Context) {
	var req dto.GenerateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid batch payload"))
		return
	}
	if len(req.Scopes) > maxBatchScopes {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("batch exceeds %d scopes", maxBatchScopes)))
		return
	}
	result, err := h.service.GenerateBatch(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, warningsMeta(result.Warnings))
}

// Get godoc
// @Summary Read stored timetable entries
// @Tags Timetable
// @Produce json
// @Param semester query int false "Semester"
// @Param division query string false "Division"
// @Param staff_id query string false "Staff ID"
// @Param day query string false "Day"
// @Success 200 {object} response.Envelope
// @Router /timetable [get]
func (h *TimetableHandler) Get(c *gin.Context) {
	var query dto.TimetableQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid timetable query"))
		return
	}
	entries, err := h.service.Get(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries)
}

// Staff godoc
// @Summary Read every session taught by a staff member
// @Tags Timetable
// @Produce json
// @Param id path string true "Staff ID"
// @Success 200 {object} response.Envelope
// @Router /timetable/staff/{id} [get]
func (h *TimetableHandler) Staff(c *gin.Context) {
	entries, err := h.service.StaffView(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries)
}

// Clear godoc
// @Summary Delete the stored timetable of one scope
// @Tags Timetable
// @Param semester query int true "Semester"
// @Param division query string true "Division"
// @Success 204
// @Router /timetable [delete]
func (h *TimetableHandler) Clear(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid clear query"))
		return
	}
	if err := h.service.Clear(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Download a scope's timetable as CSV or PDF
// @Tags Timetable
// @Produce text/csv,application/pdf
// @Param semester query int true "Semester"
// @Param division query string true "Division"
// @Param format query string false "csv or pdf"
// @Success 200
// @Router /timetable/export [get]
func (h *TimetableHandler) Export(c *gin.Context) {
	if h.exporter == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "export is disabled"))
		return
	}
	var query dto.ExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export query"))
		return
	}
	result, err := h.exporter.Export(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}

func warningsMeta(warnings []string) map[string]interface{} {
	if len(warnings) == 0 {
		return nil
	}
	return map[string]interface{}{"warnings": warnings}
}
