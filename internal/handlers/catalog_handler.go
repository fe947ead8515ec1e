package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/somo-app/SomoAppBack/internal/catalog"
	"github.com/somo-app/SomoAppBack/internal/models"
	"github.com/somo-app/SomoAppBack/internal/repository"
	"github.com/somo-app/SomoAppBack/internal/services"
)

type catalogApplicationService interface {
	ListAvailable(ctx context.Context, query catalog.Query) ([]models.Lesson, error)
	ListPurchased(ctx context.Context, studentID int64) ([]models.Lesson, error)
	ListByTeacher(ctx context.Context, teacherID int64) ([]models.Lesson, error)
	GetLesson(ctx context.Context, lessonID int64) (*models.Lesson, error)
	CreateLesson(ctx context.Context, teacherID int64, role string, input repository.CreateLessonInput) (*models.Lesson, error)
}

type CatalogHandler struct {
	service catalogApplicationService
}

func NewCatalogHandler(service catalogApplicationService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// ListLessons serves the directory: the full catalog narrowed by the three
// independent filters.
func (h *CatalogHandler) ListLessons(c *fiber.Ctx) error {
	query := catalog.Query{
		Text:    strings.TrimSpace(c.Query("search")),
		Subject: strings.TrimSpace(c.Query("subject")),
		Form:    strings.TrimSpace(c.Query("form")),
	}

	lessons, err := h.service.ListAvailable(c.Context(), query)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch lessons"})
	}
	return c.JSON(fiber.Map{"lessons": lessons})
}

func (h *CatalogHandler) GetLesson(c *fiber.Ctx) error {
	lessonID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || lessonID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid lesson id"})
	}

	lesson, err := h.service.GetLesson(c.Context(), lessonID)
	if err != nil {
		return mapCatalogError(c, err)
	}
	return c.JSON(fiber.Map{"lesson": lesson})
}

func (h *CatalogHandler) ListPurchased(c *fiber.Ctx) error {
	studentID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	lessons, err := h.service.ListPurchased(c.Context(), studentID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch purchased lessons"})
	}
	return c.JSON(fiber.Map{"lessons": lessons})
}

// ListOwn serves a teacher's dashboard listing of their published lessons.
func (h *CatalogHandler) ListOwn(c *fiber.Ctx) error {
	teacherID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	lessons, err := h.service.ListByTeacher(c.Context(), teacherID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch lessons"})
	}
	return c.JSON(fiber.Map{"lessons": lessons})
}

type createLessonRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description string  `json:"description"`
	Subject     string  `json:"subject" validate:"required"`
	Form        string  `json:"form" validate:"required"`
	Price       float64 `json:"price" validate:"min=0"`
	VideoURL    *string `json:"video_url"`
	ImageURL    *string `json:"image_url"`
}

func (h *CatalogHandler) CreateLesson(c *fiber.Ctx) error {
	teacherID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req createLessonRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	lesson, err := h.service.CreateLesson(c.Context(), teacherID, actorRole(c), repository.CreateLessonInput{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Subject:     strings.TrimSpace(req.Subject),
		Form:        strings.TrimSpace(req.Form),
		Price:       req.Price,
		VideoURL:    req.VideoURL,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		return mapCatalogError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"lesson": lesson})
}

func mapCatalogError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrLessonNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Lesson not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process request"})
	}
}
