package schedule

import "bookadmin/internal/domain"

type GenerateSlotsRequest struct {
	ServiceID  int64  `json:"service_id" binding:"required"`
	StartDate  string `json:"start_date" binding:"required"` // 2006-01-02
	EndDate    string `json:"end_date" binding:"required"`
	StartTime  string `json:"start_time" binding:"required"` // 15:04
	EndTime    string `json:"end_time" binding:"required"`
	BreakStart string `json:"break_start,omitempty"`
	BreakEnd   string `json:"break_end,omitempty"`
	// IntervalMinutes overrides the service duration as slot length.
	IntervalMinutes int `json:"interval_minutes,omitempty"`
	// Weekdays enabled for generation, 0=Sunday..6=Saturday. Empty means all.
	Weekdays []int `json:"weekdays,omitempty"`
	Capacity int   `json:"capacity,omitempty"` // default 1
}

type GenerateSlotsResponse struct {
	Created int `json:"created"`
}

type DayScheduleResponse struct {
	ServiceID int64                  `json:"service_id"`
	Date      string                 `json:"date"`
	Slots     []domain.AnnotatedSlot `json:"slots"`
}
