package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSlotsStandardDay(t *testing.T) {
	slots := BuildSlots(660, 990) // 11:00 AM - 4:30 PM

	require.Len(t, slots, 7)
	assert.Equal(t, "11:00 AM - 11:50 AM", slots[0].Label)
	assert.Equal(t, "11:50 AM - 12:40 PM", slots[1].Label)
	assert.Equal(t, "12:40 PM - 01:30 PM", slots[2].Label)
	assert.True(t, slots[3].IsRecess)
	assert.Equal(t, "01:30 PM - 02:00 PM", slots[3].Label)
	assert.Equal(t, "02:00 PM - 02:50 PM", slots[4].Label)
	assert.Equal(t, "02:50 PM - 03:40 PM", slots[5].Label)
	assert.Equal(t, "03:40 PM - 04:30 PM", slots[6].Label)

	for i, slot := range slots {
		if i == 3 {
			continue
		}
		assert.Equal(t, SlotMinutes, slot.EndMinute-slot.StartMinute, "slot %d duration", i)
	}
}

func TestBuildSlotsContiguous(t *testing.T) {
	slots := BuildSlots(660, 990)
	for i := 1; i < len(slots); i++ {
		assert.Equal(t, slots[i-1].EndMinute, slots[i].StartMinute, "slot %d must start where %d ends", i, i-1)
	}
}

func TestBuildSlotsDropsTrailingOverrun(t *testing.T) {
	// 4:31 PM end leaves no room for another 50-minute slot after 4:30 PM.
	slots := BuildSlots(660, 991)
	require.Len(t, slots, 7)
	assert.Equal(t, 990, slots[6].EndMinute)
}

func TestBuildSlotsInvertedWindow(t *testing.T) {
	assert.Empty(t, BuildSlots(990, 660))
	assert.Empty(t, BuildSlots(660, 660))
}

func TestActiveSlotsExcludesRecess(t *testing.T) {
	active := ActiveSlots(BuildSlots(660, 990))
	require.Len(t, active, 6)
	for _, slot := range active {
		assert.False(t, slot.IsRecess)
	}
}

func TestParseClock(t *testing.T) {
	minutes, err := ParseClock("11:00")
	require.NoError(t, err)
	assert.Equal(t, 660, minutes)

	minutes, err = ParseClock("16:30")
	require.NoError(t, err)
	assert.Equal(t, 990, minutes)

	_, err = ParseClock("half past nine")
	assert.Error(t, err)

	_, err = ParseClock("25:00")
	assert.Error(t, err)
}
