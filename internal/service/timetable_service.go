package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/campuskit/timetable-api/internal/dto"
	"github.com/campuskit/timetable-api/internal/models"
	"github.com/campuskit/timetable-api/internal/timetable"
	appErrors "github.com/campuskit/timetable-api/pkg/errors"
)

type subjectLister interface {
	ListAll(ctx context.Context) ([]models.Subject, error)
}

type staffLister interface {
	ListAll(ctx context.Context) ([]models.Staff, error)
}

type roomLister interface {
	ListAll(ctx context.Context) ([]models.Room, error)
}

type roomConfigLister interface {
	ListAll(ctx context.Context) ([]models.RoomConfig, error)
}

type timetableStore interface {
	List(ctx context.Context, filter models.TimetableFilter) ([]models.TimetableEntry, error)
	ListAll(ctx context.Context) ([]models.TimetableEntry, error)
	ListByStaff(ctx context.Context, staffID string) ([]models.TimetableEntry, error)
	DeleteByScope(ctx context.Context, scope models.Scope) error
	DeleteByScopeTx(ctx context.Context, tx *sqlx.Tx, scope models.Scope) error
	BulkCreateWithTx(ctx context.Context, tx *sqlx.Tx, entries []models.TimetableEntry) error
}

type timetableCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type generationObserver interface {
	ObserveGeneration(perfect bool, attempts, fallbackPlaced int, duration time.Duration)
	RecordCacheOperation(hit bool, duration time.Duration)
}

// TimetableConfig tunes generation and caching behaviour.
type TimetableConfig struct {
	MaxAttempts    int
	MaxLabsPerDay  int
	DayStartMinute int
	DayEndMinute   int
	CacheEnabled   bool
	CacheTTL       time.Duration
}

// TimetableService orchestrates generation runs: it loads reference data,
// runs the search, and atomically replaces the affected scopes in storage.
type TimetableService struct {
	subjects  subjectLister
	staff     staffLister
	rooms     roomLister
	configs   roomConfigLister
	store     timetableStore
	cache     timetableCache
	tx        txProvider
	metrics   generationObserver
	validator *validator.Validate
	logger    *zap.Logger
	cfg       TimetableConfig
}

// NewTimetableService wires timetable dependencies.
func NewTimetableService(
	subjects subjectLister,
	staff staffLister,
	rooms roomLister,
	configs roomConfigLister,
	store timetableStore,
	cache timetableCache,
	tx txProvider,
	metrics generationObserver,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableConfig,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	return &TimetableService{
		subjects:  subjects,
		staff:     staff,
		rooms:     rooms,
		configs:   configs,
		store:     store,
		cache:     cache,
		tx:        tx,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Generate produces and commits a schedule for a single scope.
func (s *TimetableService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generate payload")
	}

	batch, err := s.run(ctx, []models.Scope{{Semester: req.Semester, Division: req.Division}})
	if err != nil {
		return nil, err
	}
	return &batch.Results[0], nil
}

// GenerateBatch produces schedules for several scopes inside one shared
// search so cross-division staff and room conflicts are honored.
func (s *TimetableService) GenerateBatch(ctx context.Context, req dto.GenerateBatchRequest) (*dto.GenerateBatchResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid batch generate payload")
	}

	scopes := make([]models.Scope, 0, len(req.Scopes))
	seen := make(map[models.Scope]bool, len(req.Scopes))
	for _, item := range req.Scopes {
		scope := models.Scope{Semester: item.Semester, Division: item.Division}
		if seen[scope] {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate scope semester %d division %s", scope.Semester, scope.Division))
		}
		seen[scope] = true
		scopes = append(scopes, scope)
	}

	return s.run(ctx, scopes)
}

func (s *TimetableService) run(ctx context.Context, scopes []models.Scope) (*dto.GenerateBatchResponse, error) {
	ref, err := s.loadReferenceData(ctx)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load existing timetable")
	}

	started := time.Now()
	results, err := timetable.GenerateBatch(scopes, ref, existing, timetable.Options{
		MaxAttempts:    s.cfg.MaxAttempts,
		MaxLabsPerDay:  s.cfg.MaxLabsPerDay,
		DayStartMinute: s.cfg.DayStartMinute,
		DayEndMinute:   s.cfg.DayEndMinute,
	})
	if err != nil {
		switch {
		case errors.Is(err, timetable.ErrMissingRoomConfig):
			return nil, appErrors.Wrap(err, appErrors.ErrRoomConfigMissing.Code, appErrors.ErrRoomConfigMissing.Status, appErrors.ErrRoomConfigMissing.Message)
		case errors.Is(err, timetable.ErrNoSubjects):
			return nil, appErrors.Wrap(err, appErrors.ErrNoSubjects.Code, appErrors.ErrNoSubjects.Status, appErrors.ErrNoSubjects.Message)
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "timetable generation failed")
		}
	}
	duration := time.Since(started)

	if err := s.commit(ctx, results); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, "timetable:*"); err != nil {
			s.logger.Warn("timetable cache invalidation failed", zap.Error(err))
		}
	}

	resp := &dto.GenerateBatchResponse{Results: make([]dto.GenerateTimetableResponse, 0, len(results))}
	for _, result := range results {
		if s.metrics != nil {
			s.metrics.ObserveGeneration(result.Perfect, result.Attempts, result.FallbackPlaced, duration)
		}
		item := dto.GenerateTimetableResponse{
			Summary: dto.GenerationSummary{
				Semester:       result.Scope.Semester,
				Division:       result.Scope.Division,
				Perfect:        result.Perfect,
				Attempts:       result.Attempts,
				Required:       result.Required,
				Placed:         result.Placed,
				FallbackPlaced: result.FallbackPlaced,
				Unplaced:       result.Unplaced,
			},
			Entries:  result.Entries,
			Warnings: generationWarnings(result),
		}
		resp.Results = append(resp.Results, item)
		resp.Warnings = append(resp.Warnings, item.Warnings...)

		s.logger.Info("timetable generated",
			zap.Int("semester", result.Scope.Semester),
			zap.String("division", result.Scope.Division),
			zap.Bool("perfect", result.Perfect),
			zap.Int("attempts", result.Attempts),
			zap.Int("placed", result.Placed),
			zap.Int("fallback_placed", result.FallbackPlaced),
			zap.Int("unplaced", result.Unplaced),
			zap.Duration("duration", duration),
		)
	}
	return resp, nil
}

// commit replaces every generated scope atomically: all scopes land or none.
func (s *TimetableService) commit(ctx context.Context, results []*timetable.Result) error {
	if s.tx == nil {
		return appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, result := range results {
		if err = s.store.DeleteByScopeTx(ctx, tx, result.Scope); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear previous timetable")
			return err
		}
		if len(result.Entries) == 0 {
			continue
		}
		if err = s.store.BulkCreateWithTx(ctx, tx, result.Entries); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist timetable entries")
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit timetable transaction")
		return err
	}
	return nil
}

// Get returns stored timetable entries for the query, served from cache when
// a full (semester, division) scope is requested.
func (s *TimetableService) Get(ctx context.Context, query dto.TimetableQuery) ([]models.TimetableEntry, error) {
	filter := models.TimetableFilter{
		Semester: query.Semester,
		Division: query.Division,
		StaffID:  query.StaffID,
		Day:      query.Day,
	}

	cacheable := s.cfg.CacheEnabled && s.cache != nil &&
		filter.Semester > 0 && filter.Division != "" && filter.StaffID == "" && filter.Day == ""
	key := fmt.Sprintf("timetable:sem:%d:div:%s", filter.Semester, filter.Division)

	if cacheable {
		started := time.Now()
		var cached []models.TimetableEntry
		err := s.cache.Get(ctx, key, &cached)
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(err == nil, time.Since(started))
		}
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("timetable cache read failed", zap.Error(err))
		}
	}

	entries, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable")
	}
	timetable.SortEntries(entries, s.cfg.DayStartMinute, s.cfg.DayEndMinute)

	if cacheable {
		if err := s.cache.Set(ctx, key, entries, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("timetable cache write failed", zap.Error(err))
		}
	}
	return entries, nil
}

// StaffView returns every session a staff member teaches across all scopes.
func (s *TimetableService) StaffView(ctx context.Context, staffID string) ([]models.TimetableEntry, error) {
	if staffID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "staff id is required")
	}
	entries, err := s.store.ListByStaff(ctx, staffID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list staff timetable")
	}
	timetable.SortEntries(entries, s.cfg.DayStartMinute, s.cfg.DayEndMinute)
	return entries, nil
}

// Clear removes the stored schedule of one scope.
func (s *TimetableService) Clear(ctx context.Context, req dto.GenerateTimetableRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid clear payload")
	}
	scope := models.Scope{Semester: req.Semester, Division: req.Division}
	if err := s.store.DeleteByScope(ctx, scope); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear timetable scope")
	}
	if s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, "timetable:*"); err != nil {
			s.logger.Warn("timetable cache invalidation failed", zap.Error(err))
		}
	}
	return nil
}

func (s *TimetableService) loadReferenceData(ctx context.Context) (timetable.ReferenceData, error) {
	var ref timetable.ReferenceData
	var err error

	if ref.Subjects, err = s.subjects.ListAll(ctx); err != nil {
		return ref, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	if ref.Staff, err = s.staff.ListAll(ctx); err != nil {
		return ref, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load staff")
	}
	if ref.Rooms, err = s.rooms.ListAll(ctx); err != nil {
		return ref, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}
	if ref.Configs, err = s.configs.ListAll(ctx); err != nil {
		return ref, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room configs")
	}
	return ref, nil
}

func generationWarnings(result *timetable.Result) []string {
	if result.Perfect {
		return nil
	}
	warnings := []string{
		fmt.Sprintf("semester %d division %s: %d of %d sessions placed without conflicts after %d attempts",
			result.Scope.Semester, result.Scope.Division, result.Placed, result.Required, result.Attempts),
	}
	if result.FallbackPlaced > 0 {
		warnings = append(warnings, fmt.Sprintf("semester %d division %s: %d sessions force-placed ignoring conflicts, review manually",
			result.Scope.Semester, result.Scope.Division, result.FallbackPlaced))
	}
	if result.Unplaced > 0 {
		warnings = append(warnings, fmt.Sprintf("semester %d division %s: %d sessions could not be placed at all",
			result.Scope.Semester, result.Scope.Division, result.Unplaced))
	}
	return warnings
}
