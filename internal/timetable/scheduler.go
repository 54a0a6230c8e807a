package timetable

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/campuskit/timetable-api/internal/models"
)

// Search defaults. The attempt cap guarantees termination on over-subscribed
// inputs; exceeding it hands the best partial schedule to the fallback pass.
const (
	DefaultMaxAttempts   = 2500
	DefaultMaxLabsPerDay = 2
)

// Additive score weights for candidate cells. Ties are broken by a random
// jitter in [0,1).
const (
	saturdayMinorityBonus  = 50.0
	saturdayMajorPenalty   = 30.0
	weekdayMinorityPenalty = 10.0
	labAlignmentBonus      = 20.0
	laterSlotWeight        = 0.1
	emptyWeekdayBonus      = 40.0
	adjacencyBonus         = 15.0
)

// Options tunes a generation run.
type Options struct {
	MaxAttempts    int
	MaxLabsPerDay  int
	DayStartMinute int
	DayEndMinute   int
	// Seed fixes the random source; zero seeds from the clock.
	Seed int64
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.MaxLabsPerDay <= 0 {
		o.MaxLabsPerDay = DefaultMaxLabsPerDay
	}
	return o
}

// Result reports the outcome of one generation run for a single scope.
// Perfect means every requirement item was placed honoring all hard
// constraints; otherwise FallbackPlaced items were forced into free cells
// ignoring conflicts and the caller should surface the schedule for manual
// review.
type Result struct {
	Scope          models.Scope            `json:"scope"`
	Entries        []models.TimetableEntry `json:"entries"`
	Perfect        bool                    `json:"perfect"`
	Attempts       int                     `json:"attempts"`
	Required       int                     `json:"required"`
	Placed         int                     `json:"placed"`
	FallbackPlaced int                     `json:"fallback_placed"`
	Unplaced       int                     `json:"unplaced"`
}

// Generate runs the search for a single (semester, division) scope. existing
// is the full schedule snapshot across all scopes; entries matching the
// target scope are ignored and regenerated, the rest form the read-only
// conflict baseline.
func Generate(scope models.Scope, ref ReferenceData, existing []models.TimetableEntry, opts Options) (*Result, error) {
	results, err := GenerateBatch([]models.Scope{scope}, ref, existing, opts)
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

// GenerateBatch runs one shared restart loop across multiple scopes so that
// cross-division staff and room conflicts are respected inside a single
// search. Scopes whose subject pool is empty are skipped in batch mode; a
// missing room configuration is always fatal. The fallback pass runs per
// scope after the shared attempt budget is exhausted.
func GenerateBatch(scopes []models.Scope, ref ReferenceData, existing []models.TimetableEntry, opts Options) ([]*Result, error) {
	if len(scopes) == 0 {
		return nil, errors.New("timetable: no scopes requested")
	}
	opts = opts.withDefaults()

	slots := ActiveSlots(BuildSlots(opts.DayStartMinute, opts.DayEndMinute))
	if len(slots) == 0 {
		return nil, fmt.Errorf("%w: window %d-%d", ErrNoActiveSlots, opts.DayStartMinute, opts.DayEndMinute)
	}

	pools := make(map[models.Scope][]RequirementItem, len(scopes))
	var items []poolItem
	for _, scope := range scopes {
		cfg := ref.ConfigFor(scope)
		if cfg == nil {
			return nil, fmt.Errorf("%w: semester %d division %s", ErrMissingRoomConfig, scope.Semester, scope.Division)
		}
		pool, err := BuildPool(ref, scope, cfg)
		if err != nil {
			if len(scopes) > 1 && errors.Is(err, ErrNoSubjects) {
				pools[scope] = nil
				continue
			}
			return nil, err
		}
		pools[scope] = pool
		for _, item := range pool {
			items = append(items, poolItem{RequirementItem: item, scope: scope})
		}
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no scope in the batch has qualifying subjects", ErrNoSubjects)
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	baseline := excludeScopes(existing, scopes)

	var best []models.TimetableEntry
	bestCount := -1
	perfect := false
	attempts := 0

	shuffled := make([]poolItem, len(items))
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		attempts = attempt
		copy(shuffled, items)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		state := newSearchState(slots, baseline, opts.MaxLabsPerDay)
		complete := true
		for _, item := range shuffled {
			if !state.placeBest(item, ref, rng) {
				complete = false
				break
			}
		}
		if complete {
			best = state.entries
			perfect = true
			break
		}
		if len(state.entries) > bestCount {
			bestCount = len(state.entries)
			best = state.entries
		}
	}

	searchPlaced := make(map[models.Scope]int, len(scopes))
	for _, entry := range best {
		searchPlaced[models.Scope{Semester: entry.Semester, Division: entry.Division}]++
	}

	results := make([]*Result, 0, len(scopes))
	fallbackState := newFallbackState(slots, best)
	for _, scope := range scopes {
		pool := pools[scope]
		result := &Result{
			Scope:    scope,
			Entries:  filterScope(best, scope),
			Perfect:  perfect,
			Attempts: attempts,
			Required: len(pool),
			Placed:   searchPlaced[scope],
		}
		if !perfect {
			missing := deficitItems(pool, result.Entries)
			for _, item := range missing {
				entry, ok := fallbackState.forcePlace(scope, item)
				if !ok {
					result.Unplaced++
					continue
				}
				result.Entries = append(result.Entries, entry)
				result.FallbackPlaced++
			}
		}
		sortEntries(result.Entries, fallbackState.labelIdx)
		results = append(results, result)
	}
	return results, nil
}

// --- Search state ---

type poolItem struct {
	RequirementItem
	scope models.Scope
}

type searchState struct {
	slots   []TimeSlot
	maxLabs int
	entries []models.TimetableEntry

	staffBusy map[string]struct{}            // day|time|staffID
	roomBusy  map[string]struct{}            // day|time|room
	occupied  map[string]struct{}            // scope|day|slot
	subjectAt map[string]string              // scope|day|slot
	lectureOn map[string]struct{}            // scope|day|subject
	spanMin   map[string]int                 // scope|day
	spanMax   map[string]int                 // scope|day
	dayCount  map[string]int                 // scope|day
	labCount  map[string]int                 // scope|day
	labDivs   map[string]map[string]struct{} // day|time|semester -> divisions with a lab
}

func newSearchState(slots []TimeSlot, baseline Snapshot, maxLabs int) *searchState {
	s := &searchState{
		slots:     slots,
		maxLabs:   maxLabs,
		staffBusy: make(map[string]struct{}),
		roomBusy:  make(map[string]struct{}),
		occupied:  make(map[string]struct{}),
		subjectAt: make(map[string]string),
		lectureOn: make(map[string]struct{}),
		spanMin:   make(map[string]int),
		spanMax:   make(map[string]int),
		dayCount:  make(map[string]int),
		labCount:  make(map[string]int),
		labDivs:   make(map[string]map[string]struct{}),
	}
	for i := range baseline {
		entry := &baseline[i]
		if entry.StaffID != "" {
			s.staffBusy[busyKey(entry.Day, entry.TimeLabel, entry.StaffID)] = struct{}{}
		}
		s.roomBusy[busyKey(entry.Day, entry.TimeLabel, entry.RoomName)] = struct{}{}
		if entry.Type == models.SessionTypeLab {
			s.markLab(entry.Day, entry.TimeLabel, entry.Semester, entry.Division)
		}
	}
	return s
}

// placeBest enumerates every (day, slot) cell for the item, scores the valid
// ones and commits the highest-scoring candidate. Returns false when no cell
// admits the item, which fails the current restart.
func (s *searchState) placeBest(item poolItem, ref ReferenceData, rng *rand.Rand) bool {
	bestScore := math.Inf(-1)
	bestDay := ""
	bestSlot := -1
	bestStaffID := ""
	bestStaffName := ""

	for _, day := range Weekdays {
		dk := scopeDayKey(item.scope, day)
		if item.Type == models.SessionTypeLab && s.labCount[dk] >= s.maxLabs {
			continue
		}
		if item.Type == models.SessionTypeLecture {
			if _, dup := s.lectureOn[dk+"|"+item.Subject]; dup {
				continue
			}
		}
		for si := range s.slots {
			if _, taken := s.occupied[cellKey(item.scope, day, si)]; taken {
				continue
			}
			// A day with placements only grows at its edges, keeping every
			// division's day a single contiguous block.
			if s.dayCount[dk] > 0 && si != s.spanMin[dk]-1 && si != s.spanMax[dk]+1 {
				continue
			}

			label := s.slots[si].Label
			if _, busy := s.roomBusy[busyKey(day, label, item.RoomName)]; busy {
				continue
			}

			staffID, staffName := item.StaffID, item.StaffName
			if staffID != "" && s.isStaffBusy(day, label, staffID) {
				if item.Type != models.SessionTypeLab {
					continue
				}
				sub := FindLabSubstitute(ref, day, label, func(id string) bool {
					return s.isStaffBusy(day, label, id)
				})
				if sub == nil {
					continue
				}
				staffID, staffName = sub.ID, sub.Name
			}

			score := s.score(item, day, si, label, rng)
			if score > bestScore {
				bestScore = score
				bestDay = day
				bestSlot = si
				bestStaffID = staffID
				bestStaffName = staffName
			}
		}
	}

	if bestSlot < 0 {
		return false
	}
	s.commit(item, bestDay, bestSlot, bestStaffID, bestStaffName)
	return true
}

func (s *searchState) score(item poolItem, day string, si int, label string, rng *rand.Rand) float64 {
	score := rng.Float64()

	if day == "Saturday" {
		if item.SubjectType.Minority() {
			score += saturdayMinorityBonus
		}
		if item.SubjectType == models.SubjectTypeMajor {
			score -= saturdayMajorPenalty
		}
	} else if item.SubjectType.Minority() {
		score -= weekdayMinorityPenalty
	}

	if item.Type == models.SessionTypeLab && s.labAligned(day, label, item.scope) {
		score += labAlignmentBonus
	}

	score += float64(si) * laterSlotWeight

	if day != "Saturday" && s.dayCount[scopeDayKey(item.scope, day)] == 0 {
		score += emptyWeekdayBonus
	}

	if si > 0 && s.subjectAt[cellKey(item.scope, day, si-1)] == item.Subject {
		score += adjacencyBonus
	}
	if s.subjectAt[cellKey(item.scope, day, si+1)] == item.Subject {
		score += adjacencyBonus
	}

	return score
}

func (s *searchState) commit(item poolItem, day string, si int, staffID, staffName string) {
	label := s.slots[si].Label
	s.entries = append(s.entries, models.TimetableEntry{
		Day:       day,
		TimeLabel: label,
		Semester:  item.scope.Semester,
		Division:  item.scope.Division,
		StaffID:   staffID,
		StaffName: staffName,
		Subject:   item.Subject,
		Type:      item.Type,
		RoomName:  item.RoomName,
	})

	if staffID != "" {
		s.staffBusy[busyKey(day, label, staffID)] = struct{}{}
	}
	s.roomBusy[busyKey(day, label, item.RoomName)] = struct{}{}
	s.occupied[cellKey(item.scope, day, si)] = struct{}{}
	s.subjectAt[cellKey(item.scope, day, si)] = item.Subject

	dk := scopeDayKey(item.scope, day)
	if s.dayCount[dk] == 0 {
		s.spanMin[dk] = si
		s.spanMax[dk] = si
	} else {
		if si < s.spanMin[dk] {
			s.spanMin[dk] = si
		}
		if si > s.spanMax[dk] {
			s.spanMax[dk] = si
		}
	}
	s.dayCount[dk]++

	switch item.Type {
	case models.SessionTypeLab:
		s.labCount[dk]++
		s.markLab(day, label, item.scope.Semester, item.scope.Division)
	case models.SessionTypeLecture:
		s.lectureOn[dk+"|"+item.Subject] = struct{}{}
	}
}

func (s *searchState) isStaffBusy(day, label, staffID string) bool {
	_, busy := s.staffBusy[busyKey(day, label, staffID)]
	return busy
}

// labAligned reports whether another division of the same semester already
// holds a lab at (day, time); aligned labs share equipment windows.
func (s *searchState) labAligned(day, label string, scope models.Scope) bool {
	divs := s.labDivs[labKey(day, label, scope.Semester)]
	for div := range divs {
		if div != scope.Division {
			return true
		}
	}
	return false
}

func (s *searchState) markLab(day, label string, semester int, division string) {
	key := labKey(day, label, semester)
	if s.labDivs[key] == nil {
		s.labDivs[key] = make(map[string]struct{})
	}
	s.labDivs[key][division] = struct{}{}
}

// --- Fallback pass ---

// fallbackState walks the best partial schedule and forces still-missing
// items into the first free in-scope cell, ignoring staff and room conflicts.
// This trades consistency for completeness: every required session count is
// met even when the placement is imperfect, and the caller reports it.
type fallbackState struct {
	slots    []TimeSlot
	labelIdx map[string]int
	occupied map[string]struct{}
}

func newFallbackState(slots []TimeSlot, entries []models.TimetableEntry) *fallbackState {
	f := &fallbackState{
		slots:    slots,
		labelIdx: make(map[string]int, len(slots)),
		occupied: make(map[string]struct{}),
	}
	for i, slot := range slots {
		f.labelIdx[slot.Label] = i
	}
	for i := range entries {
		entry := &entries[i]
		scope := models.Scope{Semester: entry.Semester, Division: entry.Division}
		if si, ok := f.labelIdx[entry.TimeLabel]; ok {
			f.occupied[cellKey(scope, entry.Day, si)] = struct{}{}
		}
	}
	return f
}

func (f *fallbackState) forcePlace(scope models.Scope, item RequirementItem) (models.TimetableEntry, bool) {
	for _, day := range Weekdays {
		for si := range f.slots {
			key := cellKey(scope, day, si)
			if _, taken := f.occupied[key]; taken {
				continue
			}
			f.occupied[key] = struct{}{}
			return models.TimetableEntry{
				Day:       day,
				TimeLabel: f.slots[si].Label,
				Semester:  scope.Semester,
				Division:  scope.Division,
				StaffID:   item.StaffID,
				StaffName: item.StaffName,
				Subject:   item.Subject,
				Type:      item.Type,
				RoomName:  item.RoomName,
			}, true
		}
	}
	return models.TimetableEntry{}, false
}

// deficitItems returns the pool items whose (subject, type) occurrence count
// is still short of target in the placed entries.
func deficitItems(pool []RequirementItem, placed []models.TimetableEntry) []RequirementItem {
	type countKey struct {
		subject string
		typ     models.SessionType
	}
	counts := make(map[countKey]int)
	for i := range placed {
		counts[countKey{placed[i].Subject, placed[i].Type}]++
	}

	var missing []RequirementItem
	for _, item := range pool {
		key := countKey{item.Subject, item.Type}
		if counts[key] > 0 {
			counts[key]--
			continue
		}
		missing = append(missing, item)
	}
	return missing
}

// --- Helpers ---

var dayIndex = func() map[string]int {
	m := make(map[string]int, len(Weekdays))
	for i, day := range Weekdays {
		m[day] = i
	}
	return m
}()

// SortEntries orders entries chronologically, Monday through Saturday and by
// slot position within the given day window.
func SortEntries(entries []models.TimetableEntry, dayStartMinute, dayEndMinute int) {
	slots := ActiveSlots(BuildSlots(dayStartMinute, dayEndMinute))
	labelIdx := make(map[string]int, len(slots))
	for i, slot := range slots {
		labelIdx[slot.Label] = i
	}
	sortEntries(entries, labelIdx)
}

func sortEntries(entries []models.TimetableEntry, labelIdx map[string]int) {
	sort.SliceStable(entries, func(i, j int) bool {
		if dayIndex[entries[i].Day] != dayIndex[entries[j].Day] {
			return dayIndex[entries[i].Day] < dayIndex[entries[j].Day]
		}
		return labelIdx[entries[i].TimeLabel] < labelIdx[entries[j].TimeLabel]
	})
}

func excludeScopes(entries []models.TimetableEntry, scopes []models.Scope) Snapshot {
	targets := make(map[models.Scope]struct{}, len(scopes))
	for _, scope := range scopes {
		targets[scope] = struct{}{}
	}
	baseline := make(Snapshot, 0, len(entries))
	for _, entry := range entries {
		if _, target := targets[models.Scope{Semester: entry.Semester, Division: entry.Division}]; target {
			continue
		}
		baseline = append(baseline, entry)
	}
	return baseline
}

func filterScope(entries []models.TimetableEntry, scope models.Scope) []models.TimetableEntry {
	var out []models.TimetableEntry
	for _, entry := range entries {
		if entry.Semester == scope.Semester && entry.Division == scope.Division {
			out = append(out, entry)
		}
	}
	return out
}

func busyKey(day, label, id string) string {
	return day + "|" + label + "|" + id
}

func cellKey(scope models.Scope, day string, si int) string {
	return fmt.Sprintf("%d|%s|%s|%d", scope.Semester, scope.Division, day, si)
}

func scopeDayKey(scope models.Scope, day string) string {
	return fmt.Sprintf("%d|%s|%s", scope.Semester, scope.Division, day)
}

func labKey(day, label string, semester int) string {
	return fmt.Sprintf("%s|%s|%d", day, label, semester)
}
