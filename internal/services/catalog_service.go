package services

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/somo-app/SomoAppBack/internal/catalog"
	"github.com/somo-app/SomoAppBack/internal/models"
	"github.com/somo-app/SomoAppBack/internal/repository"
)

type lessonLister interface {
	lessonReader
	Create(ctx context.Context, input repository.CreateLessonInput) (*models.Lesson, error)
	ListAll(ctx context.Context) ([]models.Lesson, error)
	ListByTeacher(ctx context.Context, teacherID int64) ([]models.Lesson, error)
	ListPurchasedByStudent(ctx context.Context, studentID int64) ([]models.Lesson, error)
}

type CatalogService struct {
	lessonRepo lessonLister
}

func NewCatalogService(lessonRepo lessonLister) *CatalogService {
	return &CatalogService{lessonRepo: lessonRepo}
}

// ListAvailable fetches the catalog and applies the in-memory filters.
func (s *CatalogService) ListAvailable(ctx context.Context, query catalog.Query) ([]models.Lesson, error) {
	lessons, err := s.lessonRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Filter(lessons, query), nil
}

func (s *CatalogService) ListPurchased(ctx context.Context, studentID int64) ([]models.Lesson, error) {
	return s.lessonRepo.ListPurchasedByStudent(ctx, studentID)
}

func (s *CatalogService) ListByTeacher(ctx context.Context, teacherID int64) ([]models.Lesson, error) {
	return s.lessonRepo.ListByTeacher(ctx, teacherID)
}

func (s *CatalogService) GetLesson(ctx context.Context, lessonID int64) (*models.Lesson, error) {
	if lessonID <= 0 {
		return nil, ErrInvalidInput
	}
	lesson, err := s.lessonRepo.GetByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLessonNotFound
		}
		return nil, err
	}
	return lesson, nil
}

// CreateLesson publishes a teacher's lesson into the catalog.
func (s *CatalogService) CreateLesson(
	ctx context.Context,
	teacherID int64,
	role string,
	input repository.CreateLessonInput,
) (*models.Lesson, error) {
	if role != models.RoleTeacher {
		return nil, ErrForbidden
	}
	if input.Title == "" || input.Subject == "" || input.Form == "" || input.Price < 0 {
		return nil, ErrValidation
	}
	input.TeacherID = teacherID
	return s.lessonRepo.Create(ctx, input)
}
