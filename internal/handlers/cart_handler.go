package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/somo-app/SomoAppBack/internal/cart"
	"github.com/somo-app/SomoAppBack/internal/services"
)

type checkoutApplicationService interface {
	Cart(ctx context.Context, studentID int64) (*services.CartView, error)
	AddLesson(ctx context.Context, studentID, lessonID int64) (*services.CartView, error)
	RemoveLesson(ctx context.Context, studentID, lessonID int64) (*services.CartView, error)
	BeginCheckout(ctx context.Context, studentID int64) (*services.CartView, error)
	SelectPaymentMethod(ctx context.Context, studentID int64, method string) (*services.CartView, error)
	CancelPaymentSelection(ctx context.Context, studentID int64) (*services.CartView, error)
	ConfirmCheckout(ctx context.Context, studentID int64) (*services.CheckoutResult, error)
}

type CartHandler struct {
	service checkoutApplicationService
}

func NewCartHandler(service checkoutApplicationService) *CartHandler {
	return &CartHandler{service: service}
}

func (h *CartHandler) GetCart(c *fiber.Ctx) error {
	studentID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	view, err := h.service.Cart(c.Context(), studentID)
	if err != nil {
		return mapCartError(c, err)
	}
	return c.JSON(fiber.Map{"cart": view})
}

type addCartItemRequest struct {
	LessonID int64 `json:"lesson_id" validate:"required,gt=0"`
}

func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	studentID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req addCartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	view, err := h.service.AddLesson(c.Context(), studentID, req.LessonID)
	if err != nil {
		return mapCartError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"cart": view})
}

func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	studentID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	lessonID, err := strconv.ParseInt(c.Params("lessonId"), 10, 64)
	if err != nil || lessonID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid lesson id"})
	}

	view, err := h.service.RemoveLesson(c.Context(), studentID, lessonID)
	if err != nil {
		return mapCartError(c, err)
	}
	return c.JSON(fiber.Map{"cart": view})
}

func (h *CartHandler) BeginCheckout(c *fiber.Ctx) error {
	studentID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	view, err := h.service.BeginCheckout(c.Context(), studentID)
	if err != nil {
		return mapCartError(c, err)
	}
	return c.JSON(fiber.Map{"cart": view})
}

type selectPaymentRequest struct {
	Method string `json:"payment_method" validate:"required"`
}

func (h *CartHandler) SelectPaymentMethod(c *fiber.Ctx) error {
	studentID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req selectPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	view, err := h.service.SelectPaymentMethod(c.Context(), studentID, req.Method)
	if err != nil {
		return mapCartError(c, err)
	}
	return c.JSON(fiber.Map{"cart": view})
}

func (h *CartHandler) CancelPaymentSelection(c *fiber.Ctx) error {
	studentID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	view, err := h.service.CancelPaymentSelection(c.Context(), studentID)
	if err != nil {
		return mapCartError(c, err)
	}
	return c.JSON(fiber.Map{"cart": view})
}

// ConfirmCheckout charges the selected method and commits the purchase. On
// failure the cart and method are preserved so the student can retry.
func (h *CartHandler) ConfirmCheckout(c *fiber.Ctx) error {
	studentID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	result, err := h.service.ConfirmCheckout(c.Context(), studentID)
	if err != nil {
		return mapCartError(c, err)
	}
	return c.JSON(fiber.Map{
		"purchases": result.Purchases,
		"total":     result.Total,
	})
}

func mapCartError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, cart.ErrAlreadyInCart):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Lesson is already in your cart"})
	case errors.Is(err, cart.ErrAlreadyPurchased):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Lesson already purchased"})
	case errors.Is(err, cart.ErrCartEmpty):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Cart is empty"})
	case errors.Is(err, cart.ErrInvalidState):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Operation not allowed in current checkout state"})
	case errors.Is(err, cart.ErrNoMethod):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Select a payment method first"})
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrLessonNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Lesson not found"})
	case errors.Is(err, services.ErrPaymentFailed):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Payment failed, your cart was not changed"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process cart request"})
	}
}
