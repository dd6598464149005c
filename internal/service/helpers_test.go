package service_test

import (
	"time"

	"github.com/workshophq/workshop-backend/internal/model"
	"github.com/workshophq/workshop-backend/internal/service"
)

// today is the fixed "current date" all service tests run against.
var today = model.NewDate(2026, time.June, 15)

// fixedClock pins the clock to noon on the fixed test date.
func fixedClock() service.Clock {
	return service.ClockFunc(func() time.Time {
		return time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC)
	})
}

func strPtr(s string) *string { return &s }

func datePtr(d model.Date) *model.Date { return &d }

func intPtr(n int) *int { return &n }

// workshopAt builds a workshop whose state matches its dates relative
// to the fixed test date.
func workshopAt(id string, start, end model.Date) model.Workshop {
	return model.Workshop{
		ID:          id,
		Title:       "Workshop " + id,
		Topic:       "Go",
		StartDate:   start,
		EndDate:     end,
		CreatedDate: today.AddDays(-30),
		State:       model.DetermineState(start, end, today),
	}
}
