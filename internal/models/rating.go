package models

import "time"

// Rating holds at most one entry per (lesson, user); resubmitting replaces
// the prior value in place.
type Rating struct {
	ID        int64     `json:"id"`
	LessonID  int64     `json:"lesson_id"`
	UserID    int64     `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   *string   `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
