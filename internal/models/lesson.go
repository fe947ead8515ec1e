package models

import "time"

type Lesson struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Subject       string    `json:"subject"`
	Form          string    `json:"form"`
	TeacherID     int64     `json:"teacher_id"`
	TeacherName   string    `json:"teacher_name"`
	Price         float64   `json:"price"`
	VideoURL      *string   `json:"video_url,omitempty"`
	ImageURL      *string   `json:"image_url,omitempty"`
	AverageRating float64   `json:"average_rating"`
	RatingCount   int       `json:"rating_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
