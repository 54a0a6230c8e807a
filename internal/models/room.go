package models

import (
	"time"

	"github.com/lib/pq"
)

// RoomKind distinguishes lecture rooms from labs.
type RoomKind string

const (
	RoomKindLecture RoomKind = "Lecture"
	RoomKindLab     RoomKind = "Lab"
)

// Room represents a physical room.
type Room struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Kind      RoomKind  `db:"kind" json:"kind"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// RoomConfig binds a (semester, division) pair to its home room and lab pool.
// Its absence is a hard precondition failure for timetable generation.
type RoomConfig struct {
	ID           string         `db:"id" json:"id"`
	Semester     int            `db:"semester" json:"semester"`
	Division     string         `db:"division" json:"division"`
	HomeRoomName string         `db:"home_room_name" json:"home_room_name"`
	SelectedLabs pq.StringArray `db:"selected_labs" json:"selected_labs"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}
