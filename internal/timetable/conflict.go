package timetable

import (
	"strings"

	"github.com/campuskit/timetable-api/internal/models"
)

// Snapshot is an immutable view of schedule entries used for conflict
// checking. It spans all semesters and divisions; staff and rooms share one
// global busy space.
type Snapshot []models.TimetableEntry

// StaffBusy reports whether the staff member already teaches at (day, time).
// An empty staff id is the "any staff acceptable" sentinel and is never
// busy.
func (s Snapshot) StaffBusy(staffID, day, timeLabel string) bool {
	if staffID == "" {
		return false
	}
	for i := range s {
		if s[i].Day == day && s[i].TimeLabel == timeLabel && s[i].StaffID == staffID {
			return true
		}
	}
	return false
}

// RoomBusy reports whether any entry occupies the room at (day, time). Room
// names compare literally, so every unresolved lab sharing the generic "Lab"
// label contends for one room.
func (s Snapshot) RoomBusy(roomName, day, timeLabel string) bool {
	for i := range s {
		if s[i].Day == day && s[i].TimeLabel == timeLabel && s[i].RoomName == roomName {
			return true
		}
	}
	return false
}

// Departments whose staff never substitute-teach labs. Only technical,
// major-subject staff may stand in.
var restrictedSubstituteDepts = map[string]struct{}{
	"MATHEMATICS":    {},
	"AEC":            {},
	"VAC":            {},
	"SEC":            {},
	"COMMUNICATIONS": {},
	"COMM":           {},
	"ENGLISH":        {},
}

// FindLabSubstitute scans the staff roster for someone free at (day, time)
// whose own primary subject's department is not restricted. busy reports
// whether a staff id is already teaching at that cell. Returns nil when no
// substitute qualifies.
func FindLabSubstitute(ref ReferenceData, day, timeLabel string, busy func(staffID string) bool) *models.Staff {
	for i := range ref.Staff {
		st := &ref.Staff[i]

		dept := ""
		for j := range ref.Subjects {
			if ref.Subjects[j].TaughtBy(st.ID) {
				dept = ref.Subjects[j].Department
				break
			}
		}
		if _, restricted := restrictedSubstituteDepts[strings.ToUpper(strings.TrimSpace(dept))]; restricted {
			continue
		}
		if busy(st.ID) {
			continue
		}
		return st
	}
	return nil
}
