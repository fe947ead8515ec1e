package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/somo-app/SomoAppBack/internal/cart"
	"github.com/somo-app/SomoAppBack/internal/models"
	"github.com/somo-app/SomoAppBack/internal/services"
)

type stubCheckoutService struct {
	view          *services.CartView
	result        *services.CheckoutResult
	err           error
	lastStudentID int64
	lastLessonID  int64
	lastMethod    string
}

func (s *stubCheckoutService) Cart(_ context.Context, studentID int64) (*services.CartView, error) {
	s.lastStudentID = studentID
	return s.view, s.err
}

func (s *stubCheckoutService) AddLesson(_ context.Context, studentID, lessonID int64) (*services.CartView, error) {
	s.lastStudentID = studentID
	s.lastLessonID = lessonID
	return s.view, s.err
}

func (s *stubCheckoutService) RemoveLesson(_ context.Context, studentID, lessonID int64) (*services.CartView, error) {
	s.lastStudentID = studentID
	s.lastLessonID = lessonID
	return s.view, s.err
}

func (s *stubCheckoutService) BeginCheckout(_ context.Context, studentID int64) (*services.CartView, error) {
	s.lastStudentID = studentID
	return s.view, s.err
}

func (s *stubCheckoutService) SelectPaymentMethod(_ context.Context, studentID int64, method string) (*services.CartView, error) {
	s.lastStudentID = studentID
	s.lastMethod = method
	return s.view, s.err
}

func (s *stubCheckoutService) CancelPaymentSelection(_ context.Context, studentID int64) (*services.CartView, error) {
	s.lastStudentID = studentID
	return s.view, s.err
}

func (s *stubCheckoutService) ConfirmCheckout(_ context.Context, studentID int64) (*services.CheckoutResult, error) {
	s.lastStudentID = studentID
	return s.result, s.err
}

func newCartTestApp(service *stubCheckoutService) *fiber.App {
	handler := NewCartHandler(service)
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", "42")
		c.Locals("role", models.RoleStudent)
		return c.Next()
	})
	app.Get("/api/v1/cart", handler.GetCart)
	app.Post("/api/v1/cart/items", handler.AddItem)
	app.Delete("/api/v1/cart/items/:lessonId", handler.RemoveItem)
	app.Post("/api/v1/cart/checkout", handler.BeginCheckout)
	app.Put("/api/v1/cart/checkout/method", handler.SelectPaymentMethod)
	app.Post("/api/v1/cart/checkout/confirm", handler.ConfirmCheckout)
	return app
}

func TestGetCartReturnsView(t *testing.T) {
	service := &stubCheckoutService{
		view: &services.CartView{
			State: cart.StateHasItems,
			Items: []models.CartItem{{LessonID: 10, Title: "Algebra", Price: 5000}},
			Total: 5000,
		},
	}
	app := newCartTestApp(service)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastStudentID != 42 {
		t.Fatalf("expected student 42, got %d", service.lastStudentID)
	}

	var body struct {
		Cart services.CartView `json:"cart"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.Cart.State != cart.StateHasItems || body.Cart.Total != 5000 {
		t.Fatalf("unexpected cart view: %+v", body.Cart)
	}
}

func TestAddItemValidatesBody(t *testing.T) {
	app := newCartTestApp(&stubCheckoutService{view: &services.CartView{State: cart.StateHasItems}})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"lesson_id": 0}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for zero lesson id, got %d", resp.StatusCode)
	}
}

func TestAddItemCreated(t *testing.T) {
	service := &stubCheckoutService{view: &services.CartView{State: cart.StateHasItems}}
	app := newCartTestApp(service)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"lesson_id": 10}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastLessonID != 10 {
		t.Fatalf("expected lesson 10, got %d", service.lastLessonID)
	}
}

func TestAddItemAlreadyInCartConflict(t *testing.T) {
	app := newCartTestApp(&stubCheckoutService{err: cart.ErrAlreadyInCart})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"lesson_id": 10}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestRemoveItemRejectsBadID(t *testing.T) {
	app := newCartTestApp(&stubCheckoutService{view: &services.CartView{State: cart.StateEmpty}})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart/items/abc", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestBeginCheckoutEmptyCartConflict(t *testing.T) {
	app := newCartTestApp(&stubCheckoutService{err: cart.ErrCartEmpty})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/checkout", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestSelectPaymentMethodForwardsValue(t *testing.T) {
	service := &stubCheckoutService{view: &services.CartView{State: cart.StateSelectingPayment, Method: cart.MethodMpesa}}
	app := newCartTestApp(service)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/cart/checkout/method", strings.NewReader(`{"payment_method": "mpesa"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastMethod != "mpesa" {
		t.Fatalf("expected mpesa forwarded, got %q", service.lastMethod)
	}
}

func TestConfirmCheckoutWithoutMethod(t *testing.T) {
	app := newCartTestApp(&stubCheckoutService{err: cart.ErrNoMethod})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/checkout/confirm", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestConfirmCheckoutPaymentFailed(t *testing.T) {
	app := newCartTestApp(&stubCheckoutService{err: services.ErrPaymentFailed})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/checkout/confirm", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}
}

func TestConfirmCheckoutReturnsPurchases(t *testing.T) {
	service := &stubCheckoutService{
		result: &services.CheckoutResult{
			Purchases: []models.Purchase{{ID: 1, LessonID: 10, StudentID: 42, Price: 5000, PaymentMethod: "mpesa"}},
			Total:     5000,
		},
	}
	app := newCartTestApp(service)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/checkout/confirm", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Purchases []models.Purchase `json:"purchases"`
		Total     float64           `json:"total"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(body.Purchases) != 1 || body.Total != 5000 {
		t.Fatalf("unexpected body: %+v", body)
	}
}
