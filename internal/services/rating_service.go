package services

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/somo-app/SomoAppBack/internal/models"
)

type ratingStore interface {
	Upsert(ctx context.Context, lessonID, userID int64, rating int, comment *string) (*models.Rating, error)
	GetByLessonAndUser(ctx context.Context, lessonID, userID int64) (*models.Rating, error)
	ListByLesson(ctx context.Context, lessonID int64) ([]models.Rating, error)
}

type ratingLessonStore interface {
	GetByID(ctx context.Context, lessonID int64) (*models.Lesson, error)
	RefreshRating(ctx context.Context, lessonID int64) (*models.Lesson, error)
}

type RatingService struct {
	ratingRepo ratingStore
	lessonRepo ratingLessonStore
}

func NewRatingService(ratingRepo ratingStore, lessonRepo ratingLessonStore) *RatingService {
	return &RatingService{ratingRepo: ratingRepo, lessonRepo: lessonRepo}
}

// SubmitRating upserts the caller's rating for a lesson and recomputes the
// lesson's average over the deduplicated set. A resubmission replaces the
// prior entry in place.
func (s *RatingService) SubmitRating(
	ctx context.Context,
	userID int64,
	lessonID int64,
	rating int,
	comment *string,
) (*models.Rating, *models.Lesson, error) {
	if rating < 1 || rating > 5 {
		return nil, nil, ErrValidation
	}
	if lessonID <= 0 {
		return nil, nil, ErrInvalidInput
	}

	if _, err := s.lessonRepo.GetByID(ctx, lessonID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrLessonNotFound
		}
		return nil, nil, err
	}

	stored, err := s.ratingRepo.Upsert(ctx, lessonID, userID, rating, comment)
	if err != nil {
		return nil, nil, err
	}

	lesson, err := s.lessonRepo.RefreshRating(ctx, lessonID)
	if err != nil {
		return nil, nil, err
	}

	return stored, lesson, nil
}

// GetOwnRating returns the caller's rating for a lesson, nil when none
// exists yet; clients render the read-only view once one is present.
func (s *RatingService) GetOwnRating(ctx context.Context, userID, lessonID int64) (*models.Rating, error) {
	rating, err := s.ratingRepo.GetByLessonAndUser(ctx, lessonID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rating, nil
}

func (s *RatingService) ListLessonRatings(ctx context.Context, lessonID int64) ([]models.Rating, error) {
	if lessonID <= 0 {
		return nil, ErrInvalidInput
	}
	return s.ratingRepo.ListByLesson(ctx, lessonID)
}
