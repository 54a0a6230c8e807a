package timetable

import (
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuskit/timetable-api/internal/models"
)

func testOptions() Options {
	return Options{
		DayStartMinute: 660,
		DayEndMinute:   990,
		MaxAttempts:    200,
		Seed:           7,
	}
}

func testSlotIndex() map[string]int {
	idx := make(map[string]int)
	for i, slot := range ActiveSlots(BuildSlots(660, 990)) {
		idx[slot.Label] = i
	}
	return idx
}

func assertGaplessDays(t *testing.T, entries []models.TimetableEntry) {
	t.Helper()
	idx := testSlotIndex()
	byDay := make(map[string][]int)
	for _, entry := range entries {
		si, ok := idx[entry.TimeLabel]
		require.True(t, ok, "unknown slot label %q", entry.TimeLabel)
		key := fmt.Sprintf("%d|%s|%s", entry.Semester, entry.Division, entry.Day)
		byDay[key] = append(byDay[key], si)
	}
	for key, indices := range byDay {
		sort.Ints(indices)
		for i := 1; i < len(indices); i++ {
			assert.Equal(t, indices[i-1]+1, indices[i], "day %s must be one contiguous block", key)
		}
	}
}

func TestGenerateConcreteScenario(t *testing.T) {
	ref := poolFixture(t)
	scope := models.Scope{Semester: 4, Division: "A"}

	// Pre-existing commitment for staff1 in another scope must stay honored.
	existing := []models.TimetableEntry{
		{Day: "Monday", TimeLabel: "11:00 AM - 11:50 AM", Semester: 2, Division: "B", StaffID: "staff1", Subject: "Maths", Type: models.SessionTypeLecture, RoomName: "B-11"},
	}

	result, err := Generate(scope, ref, existing, testOptions())
	require.NoError(t, err)

	assert.True(t, result.Perfect)
	assert.Equal(t, 4, result.Required)
	assert.Equal(t, 4, result.Placed)
	assert.Zero(t, result.FallbackPlaced)
	require.Len(t, result.Entries, 4)

	lectures := 0
	labs := 0
	for _, entry := range result.Entries {
		assert.Equal(t, 4, entry.Semester)
		assert.Equal(t, "A", entry.Division)
		assert.Equal(t, "DBMS", entry.Subject)
		switch entry.Type {
		case models.SessionTypeLecture:
			lectures++
			assert.Equal(t, "B-31", entry.RoomName)
		case models.SessionTypeLab:
			labs++
			assert.Equal(t, "L1", entry.RoomName)
		}
		if entry.StaffID == "staff1" {
			assert.False(t, entry.Day == "Monday" && entry.TimeLabel == "11:00 AM - 11:50 AM",
				"staff1 is already teaching semester 2 at this cell")
		}
	}
	assert.Equal(t, 3, lectures)
	assert.Equal(t, 1, labs)
	assertGaplessDays(t, result.Entries)
}

func TestGenerateMissingRoomConfig(t *testing.T) {
	ref := poolFixture(t)
	ref.Configs = nil

	_, err := Generate(models.Scope{Semester: 4, Division: "A"}, ref, nil, testOptions())
	assert.ErrorIs(t, err, ErrMissingRoomConfig)
}

func TestGenerateNoSubjects(t *testing.T) {
	ref := poolFixture(t)
	ref.Subjects = nil

	_, err := Generate(models.Scope{Semester: 4, Division: "A"}, ref, nil, testOptions())
	assert.ErrorIs(t, err, ErrNoSubjects)
}

func TestGenerateNoActiveSlots(t *testing.T) {
	ref := poolFixture(t)
	opts := testOptions()
	opts.DayStartMinute = 990
	opts.DayEndMinute = 660

	_, err := Generate(models.Scope{Semester: 4, Division: "A"}, ref, nil, opts)
	assert.ErrorIs(t, err, ErrNoActiveSlots)
}

func TestGenerateSingleLecturePerSubjectDay(t *testing.T) {
	ref := poolFixture(t)
	ref.Subjects[0].LectureCount = 6
	ref.Subjects[0].LabCount = 0

	result, err := Generate(models.Scope{Semester: 4, Division: "A"}, ref, nil, testOptions())
	require.NoError(t, err)
	require.True(t, result.Perfect)

	perDay := make(map[string]int)
	for _, entry := range result.Entries {
		require.Equal(t, models.SessionTypeLecture, entry.Type)
		perDay[entry.Day]++
	}
	for day, count := range perDay {
		assert.Equal(t, 1, count, "day %s must hold at most one DBMS lecture", day)
	}
}

func TestGenerateLabCapPerDay(t *testing.T) {
	ref := poolFixture(t)
	ref.Subjects[0].LectureCount = 0
	ref.Subjects[0].LabCount = 3

	opts := testOptions()
	opts.MaxLabsPerDay = 1

	result, err := Generate(models.Scope{Semester: 4, Division: "A"}, ref, nil, opts)
	require.NoError(t, err)
	require.True(t, result.Perfect)
	require.Len(t, result.Entries, 3)

	perDay := make(map[string]int)
	for _, entry := range result.Entries {
		perDay[entry.Day]++
	}
	for day, count := range perDay {
		assert.LessOrEqual(t, count, 1, "lab cap exceeded on %s", day)
	}
}

func TestGenerateSaturdayBias(t *testing.T) {
	ref := poolFixture(t)
	ref.Subjects[0].LectureCount = 1
	ref.Subjects[0].LabCount = 0
	ref.Subjects = append(ref.Subjects, models.Subject{
		ID:               "sub-aec",
		Name:             "Soft Skills",
		Semester:         4,
		Department:       "AEC",
		Type:             models.SubjectTypeAEC,
		LectureCount:     1,
		AllowedDivisions: []string{"A"},
		DivisionStaff:    divisionStaffJSON(t, map[string]string{"A": "staff2"}),
	})
	ref.Staff = append(ref.Staff, models.Staff{ID: "staff2", Name: "Ms. Y", Department: "AEC"})

	result, err := Generate(models.Scope{Semester: 4, Division: "A"}, ref, nil, testOptions())
	require.NoError(t, err)
	require.True(t, result.Perfect)

	for _, entry := range result.Entries {
		switch entry.Subject {
		case "Soft Skills":
			assert.Equal(t, "Saturday", entry.Day, "minority subjects belong on Saturday")
		case "DBMS":
			assert.NotEqual(t, "Saturday", entry.Day, "major subjects avoid Saturday")
		}
	}
}

func TestGenerateLabAlignmentAcrossDivisions(t *testing.T) {
	ref := poolFixture(t)
	ref.Subjects[0].LectureCount = 0
	ref.Subjects[0].LabCount = 1

	existing := []models.TimetableEntry{
		{Day: "Monday", TimeLabel: "11:00 AM - 11:50 AM", Semester: 4, Division: "B", StaffID: "staff9", Subject: "Java", Type: models.SessionTypeLab, RoomName: "L9"},
	}

	result, err := Generate(models.Scope{Semester: 4, Division: "A"}, ref, existing, testOptions())
	require.NoError(t, err)
	require.True(t, result.Perfect)
	require.Len(t, result.Entries, 1)

	entry := result.Entries[0]
	assert.Equal(t, "Monday", entry.Day)
	assert.Equal(t, "11:00 AM - 11:50 AM", entry.TimeLabel)
}

func TestGenerateLabSubstituteWhenPrimaryBusy(t *testing.T) {
	ref := poolFixture(t)
	ref.Subjects[0].LectureCount = 0
	ref.Subjects[0].LabCount = 1
	ref.Staff = append(ref.Staff, models.Staff{ID: "staff2", Name: "Mr. Z", Department: "BCA"})

	// staff1 teaches another scope in every active slot of the week.
	var existing []models.TimetableEntry
	for _, day := range Weekdays {
		for i, slot := range ActiveSlots(BuildSlots(660, 990)) {
			existing = append(existing, models.TimetableEntry{
				Day:       day,
				TimeLabel: slot.Label,
				Semester:  2,
				Division:  "B",
				StaffID:   "staff1",
				Subject:   "Maths",
				Type:      models.SessionTypeLecture,
				RoomName:  fmt.Sprintf("B-%s-%d", day, i),
			})
		}
	}

	result, err := Generate(models.Scope{Semester: 4, Division: "A"}, ref, existing, testOptions())
	require.NoError(t, err)
	require.True(t, result.Perfect)
	require.Len(t, result.Entries, 1)

	entry := result.Entries[0]
	assert.Equal(t, "staff2", entry.StaffID)
	assert.Equal(t, "Mr. Z", entry.StaffName)
}

func TestGenerateUnassignedStaffNeverConflicted(t *testing.T) {
	ref := poolFixture(t)
	ref.Subjects[0].DivisionStaff = nil

	existing := []models.TimetableEntry{
		{Day: "Monday", TimeLabel: "11:00 AM - 11:50 AM", Semester: 2, Division: "B", StaffID: "", Subject: "Seminar", Type: models.SessionTypeLecture, RoomName: "Hall"},
	}

	result, err := Generate(models.Scope{Semester: 4, Division: "A"}, ref, existing, testOptions())
	require.NoError(t, err)
	assert.True(t, result.Perfect)
	for _, entry := range result.Entries {
		assert.Empty(t, entry.StaffID)
		assert.Equal(t, UnassignedStaffName, entry.StaffName)
	}
}

func TestGenerateOverSubscribedFallsBack(t *testing.T) {
	ref := poolFixture(t)
	// 40 lectures cannot fit one-per-day across a 6x6 grid; search caps at 6
	// and the fallback fills every remaining free cell.
	ref.Subjects[0].LectureCount = 40
	ref.Subjects[0].LabCount = 0

	opts := testOptions()
	opts.MaxAttempts = 25

	result, err := Generate(models.Scope{Semester: 4, Division: "A"}, ref, nil, opts)
	require.NoError(t, err)

	assert.False(t, result.Perfect)
	assert.Equal(t, 25, result.Attempts)
	assert.Equal(t, 40, result.Required)
	assert.Greater(t, result.Placed, 0)
	assert.Greater(t, result.FallbackPlaced, 0)
	assert.Equal(t, 36, result.Placed+result.FallbackPlaced, "every cell of the 6x6 grid ends up used")
	assert.Equal(t, 4, result.Unplaced)
	assert.Len(t, result.Entries, 36)
}

func TestGenerateBatchSharedStaffConflicts(t *testing.T) {
	ref := poolFixture(t)
	ref.Subjects[0].AllowedDivisions = []string{"A", "B"}
	ref.Subjects[0].DivisionStaff = divisionStaffJSON(t, map[string]string{"A": "staff1", "B": "staff1"})
	ref.Subjects[0].LectureCount = 3
	ref.Subjects[0].LabCount = 0
	ref.Configs = append(ref.Configs, models.RoomConfig{Semester: 4, Division: "B", HomeRoomName: "B-32", SelectedLabs: []string{"L1"}})

	scopes := []models.Scope{
		{Semester: 4, Division: "A"},
		{Semester: 4, Division: "B"},
	}
	results, err := GenerateBatch(scopes, ref, nil, testOptions())
	require.NoError(t, err)
	require.Len(t, results, 2)

	seen := make(map[string]bool)
	for _, result := range results {
		require.True(t, result.Perfect)
		for _, entry := range result.Entries {
			key := entry.Day + "|" + entry.TimeLabel + "|" + entry.StaffID
			assert.False(t, seen[key], "staff double-booked at %s", key)
			seen[key] = true
		}
	}
}

func TestGenerateBatchSharedRoomConflicts(t *testing.T) {
	ref := poolFixture(t)
	ref.Subjects[0].AllowedDivisions = []string{"A", "B"}
	ref.Subjects[0].DivisionStaff = divisionStaffJSON(t, map[string]string{"A": "staff1", "B": "staff2"})
	ref.Subjects[0].LectureCount = 3
	ref.Subjects[0].LabCount = 0
	ref.Staff = append(ref.Staff, models.Staff{ID: "staff2", Name: "Mr. Z", Department: "BCA"})
	// Both divisions share one home room.
	ref.Configs[0].HomeRoomName = "R-1"
	ref.Configs = append(ref.Configs, models.RoomConfig{Semester: 4, Division: "B", HomeRoomName: "R-1"})

	results, err := GenerateBatch([]models.Scope{
		{Semester: 4, Division: "A"},
		{Semester: 4, Division: "B"},
	}, ref, nil, testOptions())
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, result := range results {
		require.True(t, result.Perfect)
		for _, entry := range result.Entries {
			key := entry.Day + "|" + entry.TimeLabel + "|" + entry.RoomName
			assert.False(t, seen[key], "room double-booked at %s", key)
			seen[key] = true
		}
	}
}

func TestGenerateBatchSkipsEmptyScopes(t *testing.T) {
	ref := poolFixture(t)
	ref.Configs = append(ref.Configs, models.RoomConfig{Semester: 6, Division: "A", HomeRoomName: "B-61"})

	results, err := GenerateBatch([]models.Scope{
		{Semester: 4, Division: "A"},
		{Semester: 6, Division: "A"},
	}, ref, nil, testOptions())
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, 4, results[0].Required)
	assert.Zero(t, results[1].Required)
	assert.Empty(t, results[1].Entries)
}

func TestGenerateSessionCountCompleteness(t *testing.T) {
	ref := poolFixture(t)
	ref.Subjects = append(ref.Subjects, models.Subject{
		ID:               "sub-java",
		Name:             "Java",
		Semester:         4,
		Department:       "BCA",
		Type:             models.SubjectTypeMajor,
		LectureCount:     2,
		LabCount:         2,
		AllowedDivisions: []string{"A"},
		DivisionStaff:    divisionStaffJSON(t, map[string]string{"A": "staff2"}),
	})
	ref.Staff = append(ref.Staff, models.Staff{ID: "staff2", Name: "Mr. Z", Department: "BCA"})

	result, err := Generate(models.Scope{Semester: 4, Division: "A"}, ref, nil, testOptions())
	require.NoError(t, err)
	require.True(t, result.Perfect)

	counts := make(map[string]int)
	for _, entry := range result.Entries {
		counts[entry.Subject+"|"+string(entry.Type)]++
	}
	assert.Equal(t, 3, counts["DBMS|Lecture"])
	assert.Equal(t, 1, counts["DBMS|Lab"])
	assert.Equal(t, 2, counts["Java|Lecture"])
	assert.Equal(t, 2, counts["Java|Lab"])
	assertGaplessDays(t, result.Entries)
}
