package repository

import (
	"context"
	"time"

	"github.com/somo-app/SomoAppBack/internal/models"
)

// UpdateUserProfileInput carries a partial update; nil fields are left
// untouched.
type UpdateUserProfileInput struct {
	FullName    *string
	Phone       *string
	DateOfBirth *time.Time
	Gender      *string
	AvatarURL   *string
	Bio         *string
}

type UserProfileRepository struct {
	db DBTX
}

func NewUserProfileRepository(db DBTX) *UserProfileRepository {
	return &UserProfileRepository{db: db}
}

func (r *UserProfileRepository) CreateEmpty(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO user_profiles (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`, userID)
	return err
}

func (r *UserProfileRepository) GetByUserID(ctx context.Context, userID int64) (*models.UserProfile, error) {
	query := `
		SELECT id, user_id, full_name, phone, date_of_birth, gender, avatar_url, bio,
		       created_at, updated_at
		FROM user_profiles
		WHERE user_id = $1
	`
	var profile models.UserProfile
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&profile.ID,
		&profile.UserID,
		&profile.FullName,
		&profile.Phone,
		&profile.DateOfBirth,
		&profile.Gender,
		&profile.AvatarURL,
		&profile.Bio,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *UserProfileRepository) UpdatePartial(
	ctx context.Context,
	userID int64,
	input UpdateUserProfileInput,
) (*models.UserProfile, error) {
	query := `
		UPDATE user_profiles
		SET full_name     = COALESCE($2, full_name),
		    phone         = COALESCE($3, phone),
		    date_of_birth = COALESCE($4, date_of_birth),
		    gender        = COALESCE($5, gender),
		    avatar_url    = COALESCE($6, avatar_url),
		    bio           = COALESCE($7, bio),
		    updated_at    = NOW()
		WHERE user_id = $1
		RETURNING id, user_id, full_name, phone, date_of_birth, gender, avatar_url, bio,
		          created_at, updated_at
	`
	var profile models.UserProfile
	err := r.db.QueryRow(
		ctx,
		query,
		userID,
		input.FullName,
		input.Phone,
		input.DateOfBirth,
		input.Gender,
		input.AvatarURL,
		input.Bio,
	).Scan(
		&profile.ID,
		&profile.UserID,
		&profile.FullName,
		&profile.Phone,
		&profile.DateOfBirth,
		&profile.Gender,
		&profile.AvatarURL,
		&profile.Bio,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
