package models

import "time"

type UserProfile struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	FullName    *string    `json:"full_name"`
	Phone       *string    `json:"phone"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	Gender      *string    `json:"gender"`
	AvatarURL   *string    `json:"avatar_url"`
	Bio         *string    `json:"bio"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
