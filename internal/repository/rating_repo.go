package repository

import (
	"context"

	"github.com/somo-app/SomoAppBack/internal/models"
)

type RatingRepository struct {
	db DBTX
}

func NewRatingRepository(db DBTX) *RatingRepository {
	return &RatingRepository{db: db}
}

// Upsert stores the rating for (lesson, user), replacing a prior entry in
// place rather than appending.
func (r *RatingRepository) Upsert(
	ctx context.Context,
	lessonID int64,
	userID int64,
	rating int,
	comment *string,
) (*models.Rating, error) {
	query := `
		INSERT INTO ratings (lesson_id, user_id, rating, comment)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (lesson_id, user_id)
		DO UPDATE SET rating = EXCLUDED.rating, comment = EXCLUDED.comment, updated_at = NOW()
		RETURNING id, lesson_id, user_id, rating, comment, created_at, updated_at
	`
	var stored models.Rating
	err := r.db.QueryRow(ctx, query, lessonID, userID, rating, comment).Scan(
		&stored.ID,
		&stored.LessonID,
		&stored.UserID,
		&stored.Rating,
		&stored.Comment,
		&stored.CreatedAt,
		&stored.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *RatingRepository) GetByLessonAndUser(ctx context.Context, lessonID, userID int64) (*models.Rating, error) {
	query := `
		SELECT id, lesson_id, user_id, rating, comment, created_at, updated_at
		FROM ratings
		WHERE lesson_id = $1 AND user_id = $2
	`
	var stored models.Rating
	err := r.db.QueryRow(ctx, query, lessonID, userID).Scan(
		&stored.ID,
		&stored.LessonID,
		&stored.UserID,
		&stored.Rating,
		&stored.Comment,
		&stored.CreatedAt,
		&stored.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *RatingRepository) ListByLesson(ctx context.Context, lessonID int64) ([]models.Rating, error) {
	query := `
		SELECT id, lesson_id, user_id, rating, comment, created_at, updated_at
		FROM ratings
		WHERE lesson_id = $1
		ORDER BY updated_at DESC, id DESC
	`
	rows, err := r.db.Query(ctx, query, lessonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ratings := make([]models.Rating, 0)
	for rows.Next() {
		var stored models.Rating
		if err := rows.Scan(
			&stored.ID,
			&stored.LessonID,
			&stored.UserID,
			&stored.Rating,
			&stored.Comment,
			&stored.CreatedAt,
			&stored.UpdatedAt,
		); err != nil {
			return nil, err
		}
		ratings = append(ratings, stored)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ratings, nil
}
