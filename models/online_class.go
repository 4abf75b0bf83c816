package models

import "time"

// OnlineClass is a scheduled live session for a course
type OnlineClass struct {
	ID          int        `json:"id"`
	CourseID    int        `json:"course_id"`
	Title       string     `json:"title"`
	MeetingLink string     `json:"meeting_link"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
