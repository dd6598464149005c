package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDetermineState(t *testing.T) {
	today := NewDate(2026, time.March, 15)

	tests := []struct {
		name  string
		start Date
		end   Date
		want  WorkshopState
	}{
		{"starts tomorrow", today.AddDays(1), today.AddDays(5), StateUpcoming},
		{"starts far in the future", today.AddDays(30), today.AddDays(31), StateUpcoming},
		{"started yesterday, ends tomorrow", today.AddDays(-1), today.AddDays(1), StateOngoing},
		{"starts today", today, today.AddDays(3), StateOngoing},
		{"ends today", today.AddDays(-3), today, StateOngoing},
		{"single-day workshop today", today, today, StateOngoing},
		{"ended yesterday", today.AddDays(-5), today.AddDays(-1), StateCompleted},
		{"ended long ago", today.AddDays(-30), today.AddDays(-20), StateCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetermineState(tt.start, tt.end, today))
		})
	}
}

// Every valid (start, end, today) triple lands in exactly one state.
func TestDetermineStatePartitions(t *testing.T) {
	base := NewDate(2026, time.January, 1)
	for s := 0; s < 10; s++ {
		for e := s; e < 10; e++ {
			for d := 0; d < 12; d++ {
				start, end, today := base.AddDays(s), base.AddDays(e), base.AddDays(d)
				got := DetermineState(start, end, today)
				assert.True(t, got.Valid(), "start=%s end=%s today=%s", start, end, today)
				switch {
				case today.Before(start):
					assert.Equal(t, StateUpcoming, got)
				case today.After(end):
					assert.Equal(t, StateCompleted, got)
				default:
					assert.Equal(t, StateOngoing, got)
				}
			}
		}
	}
}

func TestWorkshopStateValid(t *testing.T) {
	assert.True(t, StateUpcoming.Valid())
	assert.True(t, StateOngoing.Valid())
	assert.True(t, StateCompleted.Valid())
	assert.False(t, WorkshopState("CANCELLED").Valid())
	assert.False(t, WorkshopState("").Valid())
}
