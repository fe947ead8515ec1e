package handlers

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/somo-app/SomoAppBack/internal/models"
	"github.com/somo-app/SomoAppBack/internal/repository"
	"github.com/somo-app/SomoAppBack/internal/services"
)

type profileApplicationService interface {
	GetProfile(ctx context.Context, userID int64) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, userID int64, input repository.UpdateUserProfileInput) (*models.UserProfile, error)
	SetAvatar(ctx context.Context, userID int64, avatarURL string) (*models.UserProfile, error)
}

type ProfileHandler struct {
	service profileApplicationService
	storage services.StorageService
}

func NewProfileHandler(service profileApplicationService, storage services.StorageService) *ProfileHandler {
	return &ProfileHandler{service: service, storage: storage}
}

func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	profile, err := h.service.GetProfile(c.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch profile"})
	}
	return c.JSON(fiber.Map{"profile": profile})
}

type updateProfileRequest struct {
	FullName    *string `json:"full_name" validate:"omitempty,min=1"`
	Phone       *string `json:"phone" validate:"omitempty,min=7,max=20"`
	DateOfBirth *string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Gender      *string `json:"gender" validate:"omitempty,oneof=male female other"`
	Bio         *string `json:"bio" validate:"omitempty,max=1000"`
}

func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	input := repository.UpdateUserProfileInput{
		FullName: req.FullName,
		Phone:    req.Phone,
		Gender:   req.Gender,
		Bio:      req.Bio,
	}
	if req.DateOfBirth != nil {
		dob, err := time.Parse("2006-01-02", *req.DateOfBirth)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date_of_birth must be YYYY-MM-DD"})
		}
		input.DateOfBirth = &dob
	}

	profile, err := h.service.UpdateProfile(c.Context(), userID, input)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update profile"})
	}
	return c.JSON(fiber.Map{"profile": profile})
}

func (h *ProfileHandler) UploadAvatar(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	if h.storage == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "File storage is not configured"})
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "avatar file is required"})
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "avatar must be a jpg, png or webp image"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Failed to read avatar file"})
	}
	defer file.Close()

	filename := fmt.Sprintf("%d_%d%s", userID, time.Now().Unix(), ext)
	avatarURL, err := h.storage.UploadFile(c.Context(), file, filename, "avatars")
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Failed to upload avatar"})
	}

	// Remember the previous avatar so it can be cleaned up after the swap.
	previous, _ := h.service.GetProfile(c.Context(), userID)

	profile, err := h.service.SetAvatar(c.Context(), userID, avatarURL)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save avatar"})
	}

	if previous != nil && previous.AvatarURL != nil && *previous.AvatarURL != avatarURL {
		_ = h.storage.DeleteFile(c.Context(), *previous.AvatarURL)
	}

	return c.JSON(fiber.Map{"profile": profile})
}
