package timetable

import (
	"errors"
	"fmt"

	"github.com/campuskit/timetable-api/internal/models"
)

// Precondition failures surfaced before any search is attempted.
var (
	ErrMissingRoomConfig = errors.New("timetable: no room configuration for scope")
	ErrNoSubjects        = errors.New("timetable: no subjects qualify for scope")
	ErrNoActiveSlots     = errors.New("timetable: day window yields no active slots")
)

// UnassignedStaffName is the display name carried by requirement items whose
// subject has no primary staff bound for the division.
const UnassignedStaffName = "Unassigned"

// GenericLabRoom is assigned when a scope has no configured lab rooms. Every
// unresolved lab item then contends for one shared room named "Lab"; the
// conflict check deliberately preserves this ambiguity instead of guessing a
// fix.
const GenericLabRoom = "Lab"

// RequirementItem is one atomic lecture or lab occurrence a subject needs
// scheduled per week. Items are built fresh per generation run.
type RequirementItem struct {
	Subject     string
	Type        models.SessionType
	StaffID     string
	StaffName   string
	RoomName    string
	SubjectType models.SubjectType
}

// ReferenceData bundles the read-only inputs of a generation run.
type ReferenceData struct {
	Subjects []models.Subject
	Staff    []models.Staff
	Rooms    []models.Room
	Configs  []models.RoomConfig
}

// ConfigFor resolves the room configuration for a scope, or nil.
func (r ReferenceData) ConfigFor(scope models.Scope) *models.RoomConfig {
	for i := range r.Configs {
		if r.Configs[i].Semester == scope.Semester && r.Configs[i].Division == scope.Division {
			return &r.Configs[i]
		}
	}
	return nil
}

// StaffByID resolves a staff record, or nil.
func (r ReferenceData) StaffByID(id string) *models.Staff {
	if id == "" {
		return nil
	}
	for i := range r.Staff {
		if r.Staff[i].ID == id {
			return &r.Staff[i]
		}
	}
	return nil
}

func (r ReferenceData) roomNameByID(id string) string {
	for i := range r.Rooms {
		if r.Rooms[i].ID == id {
			return r.Rooms[i].Name
		}
	}
	return ""
}

// BuildPool expands every subject matching the scope into atomic requirement
// items: lectureCount Lecture items in the home room and labCount Lab items
// cycling round-robin through the configured lab pool. Staff for all items
// of a subject is the subject's primary staff for the division; an unset
// binding yields an empty StaffID meaning any staff is acceptable.
func BuildPool(ref ReferenceData, scope models.Scope, cfg *models.RoomConfig) ([]RequirementItem, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: semester %d division %s", ErrMissingRoomConfig, scope.Semester, scope.Division)
	}

	var pool []RequirementItem
	for i := range ref.Subjects {
		sub := &ref.Subjects[i]
		if sub.Semester != scope.Semester || !sub.AllowsDivision(scope.Division) {
			continue
		}

		staffID := sub.StaffFor(scope.Division)
		staffName := UnassignedStaffName
		if staff := ref.StaffByID(staffID); staff != nil {
			staffName = staff.Name
		} else {
			staffID = ""
		}

		for n := 0; n < sub.LectureCount; n++ {
			pool = append(pool, RequirementItem{
				Subject:     sub.Name,
				Type:        models.SessionTypeLecture,
				StaffID:     staffID,
				StaffName:   staffName,
				RoomName:    cfg.HomeRoomName,
				SubjectType: sub.Type,
			})
		}

		for n := 0; n < sub.LabCount; n++ {
			room := GenericLabRoom
			if len(cfg.SelectedLabs) > 0 {
				if name := ref.roomNameByID(cfg.SelectedLabs[n%len(cfg.SelectedLabs)]); name != "" {
					room = name
				}
			}
			pool = append(pool, RequirementItem{
				Subject:     sub.Name,
				Type:        models.SessionTypeLab,
				StaffID:     staffID,
				StaffName:   staffName,
				RoomName:    room,
				SubjectType: sub.Type,
			})
		}
	}

	if len(pool) == 0 {
		return nil, fmt.Errorf("%w: semester %d division %s", ErrNoSubjects, scope.Semester, scope.Division)
	}
	return pool, nil
}
