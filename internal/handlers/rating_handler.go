package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/somo-app/SomoAppBack/internal/models"
	"github.com/somo-app/SomoAppBack/internal/services"
)

type ratingApplicationService interface {
	SubmitRating(ctx context.Context, userID, lessonID int64, rating int, comment *string) (*models.Rating, *models.Lesson, error)
	GetOwnRating(ctx context.Context, userID, lessonID int64) (*models.Rating, error)
	ListLessonRatings(ctx context.Context, lessonID int64) ([]models.Rating, error)
}

type RatingHandler struct {
	service ratingApplicationService
}

func NewRatingHandler(service ratingApplicationService) *RatingHandler {
	return &RatingHandler{service: service}
}

type submitRatingRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

func (h *RatingHandler) SubmitRating(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	lessonID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || lessonID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid lesson id"})
	}

	var req submitRatingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	var comment *string
	if trimmed := strings.TrimSpace(req.Comment); trimmed != "" {
		comment = &trimmed
	}

	rating, lesson, err := h.service.SubmitRating(c.Context(), userID, lessonID, req.Rating, comment)
	if err != nil {
		return mapRatingError(c, err)
	}

	return c.JSON(fiber.Map{
		"rating": rating,
		"lesson": fiber.Map{
			"id":             lesson.ID,
			"average_rating": lesson.AverageRating,
			"rating_count":   lesson.RatingCount,
		},
	})
}

// GetOwnRating lets the client decide between the rating form and the
// read-only view.
func (h *RatingHandler) GetOwnRating(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	lessonID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || lessonID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid lesson id"})
	}

	rating, err := h.service.GetOwnRating(c.Context(), userID, lessonID)
	if err != nil {
		return mapRatingError(c, err)
	}
	return c.JSON(fiber.Map{"rating": rating})
}

func (h *RatingHandler) ListRatings(c *fiber.Ctx) error {
	lessonID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || lessonID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid lesson id"})
	}

	ratings, err := h.service.ListLessonRatings(c.Context(), lessonID)
	if err != nil {
		return mapRatingError(c, err)
	}
	return c.JSON(fiber.Map{"ratings": ratings})
}

func mapRatingError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Rating must be between 1 and 5"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrLessonNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Lesson not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process rating"})
	}
}
