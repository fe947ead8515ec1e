package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/somo-app/SomoAppBack/internal/cart"
	"github.com/somo-app/SomoAppBack/internal/models"
	"github.com/somo-app/SomoAppBack/internal/repository"
)

var (
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
	ErrValidation      = errors.New("validation failed")
	ErrInvalidInput    = errors.New("invalid input")
	ErrLessonNotFound  = errors.New("lesson not found")
	ErrTeacherNotFound = errors.New("teacher not found")
	ErrPaymentFailed   = errors.New("payment failed")
)

// PaymentGateway is the externally-owned payment integration. Charge
// returns the gateway transaction id on success.
type PaymentGateway interface {
	Charge(ctx context.Context, amount float64, method cart.PaymentMethod) (string, error)
}

type lessonReader interface {
	GetByID(ctx context.Context, lessonID int64) (*models.Lesson, error)
	ListByIDs(ctx context.Context, lessonIDs []int64) ([]models.Lesson, error)
}

type purchaseWriter interface {
	CreateBatch(ctx context.Context, inputs []repository.CreatePurchaseInput) ([]models.Purchase, error)
}

// CartView is the cart as shown to the student: items with their current
// catalog prices and the live total.
type CartView struct {
	State  cart.State         `json:"state"`
	Items  []models.CartItem  `json:"items"`
	Method cart.PaymentMethod `json:"payment_method,omitempty"`
	Total  float64            `json:"total"`
}

type CheckoutResult struct {
	Purchases []models.Purchase `json:"purchases"`
	Total     float64           `json:"total"`
}

type CheckoutService struct {
	carts        *cart.Store
	lessonRepo   lessonReader
	purchaseRepo purchaseWriter
	gateway      PaymentGateway
}

func NewCheckoutService(
	carts *cart.Store,
	lessonRepo lessonReader,
	purchaseRepo purchaseWriter,
	gateway PaymentGateway,
) *CheckoutService {
	return &CheckoutService{
		carts:        carts,
		lessonRepo:   lessonRepo,
		purchaseRepo: purchaseRepo,
		gateway:      gateway,
	}
}

// Cart returns the student's cart with prices refreshed from the catalog.
// Prices are never snapshotted at add time; a catalog price change before
// checkout shows up here.
func (s *CheckoutService) Cart(ctx context.Context, studentID int64) (*CartView, error) {
	machine, err := s.carts.ForStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return s.buildView(ctx, machine)
}

func (s *CheckoutService) AddLesson(ctx context.Context, studentID, lessonID int64) (*CartView, error) {
	if lessonID <= 0 {
		return nil, ErrInvalidInput
	}
	machine, err := s.carts.ForStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	lesson, err := s.lessonRepo.GetByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLessonNotFound
		}
		return nil, err
	}

	if err := machine.AddItem(models.CartItem{
		LessonID:  lesson.ID,
		TeacherID: lesson.TeacherID,
		Title:     lesson.Title,
		Price:     lesson.Price,
	}); err != nil {
		return nil, err
	}
	return s.buildView(ctx, machine)
}

func (s *CheckoutService) RemoveLesson(ctx context.Context, studentID, lessonID int64) (*CartView, error) {
	machine, err := s.carts.ForStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if err := machine.RemoveItem(lessonID); err != nil {
		return nil, err
	}
	return s.buildView(ctx, machine)
}

func (s *CheckoutService) BeginCheckout(ctx context.Context, studentID int64) (*CartView, error) {
	machine, err := s.carts.ForStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if err := machine.BeginCheckout(); err != nil {
		return nil, err
	}
	return s.buildView(ctx, machine)
}

func (s *CheckoutService) SelectPaymentMethod(ctx context.Context, studentID int64, method string) (*CartView, error) {
	parsed, ok := cart.ParseMethod(method)
	if !ok {
		return nil, ErrValidation
	}
	machine, err := s.carts.ForStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if err := machine.SelectPaymentMethod(parsed); err != nil {
		return nil, err
	}
	return s.buildView(ctx, machine)
}

func (s *CheckoutService) CancelPaymentSelection(ctx context.Context, studentID int64) (*CartView, error) {
	machine, err := s.carts.ForStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if err := machine.CancelPaymentSelection(); err != nil {
		return nil, err
	}
	return s.buildView(ctx, machine)
}

// ConfirmCheckout drives the machine through Processing: re-price the cart
// from the catalog, charge the gateway, then commit one purchase row per
// item in a single batch. Any failure leaves the cart and selection intact
// and the machine back in payment selection.
func (s *CheckoutService) ConfirmCheckout(ctx context.Context, studentID int64) (*CheckoutResult, error) {
	machine, err := s.carts.ForStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	var total float64
	purchases, err := machine.ConfirmCheckout(ctx, func(
		ctx context.Context,
		method cart.PaymentMethod,
		items []models.CartItem,
	) ([]models.Purchase, error) {
		priced, err := s.currentPrices(ctx, items)
		if err != nil {
			return nil, err
		}
		for _, lesson := range priced {
			total += lesson.Price
		}

		transactionID, err := s.gateway.Charge(ctx, total, method)
		if err != nil {
			return nil, err
		}

		inputs := make([]repository.CreatePurchaseInput, 0, len(priced))
		for _, lesson := range priced {
			inputs = append(inputs, repository.CreatePurchaseInput{
				LessonID:      lesson.ID,
				StudentID:     studentID,
				TeacherID:     lesson.TeacherID,
				Price:         lesson.Price,
				PaymentMethod: string(method),
				TransactionID: transactionID,
			})
		}
		return s.purchaseRepo.CreateBatch(ctx, inputs)
	})
	if err != nil {
		return nil, err
	}

	return &CheckoutResult{Purchases: purchases, Total: total}, nil
}

func (s *CheckoutService) buildView(ctx context.Context, machine *cart.Machine) (*CartView, error) {
	items := machine.Items()
	view := &CartView{
		State:  machine.State(),
		Items:  items,
		Method: machine.Method(),
	}
	if len(items) == 0 {
		return view, nil
	}

	priced, err := s.currentPrices(ctx, items)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]models.Lesson, len(priced))
	for _, lesson := range priced {
		byID[lesson.ID] = lesson
	}
	for i := range view.Items {
		if lesson, ok := byID[view.Items[i].LessonID]; ok {
			view.Items[i].Price = lesson.Price
			view.Total += lesson.Price
		}
	}
	return view, nil
}

// currentPrices resolves the cart items against the catalog; every item must
// still exist.
func (s *CheckoutService) currentPrices(ctx context.Context, items []models.CartItem) ([]models.Lesson, error) {
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.LessonID)
	}
	lessons, err := s.lessonRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(lessons) != len(ids) {
		return nil, ErrLessonNotFound
	}
	return lessons, nil
}

// SimulatedGateway stands in for the real payment integration; it accepts
// any positive amount after a short artificial delay.
type SimulatedGateway struct {
	Delay time.Duration
}

func (g *SimulatedGateway) Charge(ctx context.Context, amount float64, method cart.PaymentMethod) (string, error) {
	if amount <= 0 {
		return "", ErrPaymentFailed
	}
	if g.Delay > 0 {
		select {
		case <-time.After(g.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return newTransactionID(), nil
}

func newTransactionID() string {
	return "txn_" + uuid.NewString()
}
