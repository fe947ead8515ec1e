package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/somo-app/SomoAppBack/internal/cart"
	"github.com/somo-app/SomoAppBack/internal/models"
	"github.com/somo-app/SomoAppBack/internal/repository"
)

type stubPurchasedLoader struct {
	owned []int64
}

func (s *stubPurchasedLoader) ListLessonIDsByStudent(_ context.Context, _ int64) ([]int64, error) {
	return s.owned, nil
}

type stubLessonReader struct {
	lessons map[int64]models.Lesson
}

func (s *stubLessonReader) GetByID(_ context.Context, lessonID int64) (*models.Lesson, error) {
	lesson, ok := s.lessons[lessonID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &lesson, nil
}

func (s *stubLessonReader) ListByIDs(_ context.Context, lessonIDs []int64) ([]models.Lesson, error) {
	out := make([]models.Lesson, 0, len(lessonIDs))
	for _, id := range lessonIDs {
		if lesson, ok := s.lessons[id]; ok {
			out = append(out, lesson)
		}
	}
	return out, nil
}

type stubPurchaseWriter struct {
	lastInputs []repository.CreatePurchaseInput
	err        error
	calls      int
}

func (s *stubPurchaseWriter) CreateBatch(_ context.Context, inputs []repository.CreatePurchaseInput) ([]models.Purchase, error) {
	s.calls++
	s.lastInputs = inputs
	if s.err != nil {
		return nil, s.err
	}
	purchases := make([]models.Purchase, 0, len(inputs))
	for i, in := range inputs {
		purchases = append(purchases, models.Purchase{
			ID:            int64(i + 1),
			LessonID:      in.LessonID,
			StudentID:     in.StudentID,
			TeacherID:     in.TeacherID,
			Price:         in.Price,
			PaymentMethod: in.PaymentMethod,
			TransactionID: in.TransactionID,
		})
	}
	return purchases, nil
}

type stubGateway struct {
	txnID      string
	err        error
	lastAmount float64
	lastMethod cart.PaymentMethod
	calls      int
}

func (g *stubGateway) Charge(_ context.Context, amount float64, method cart.PaymentMethod) (string, error) {
	g.calls++
	g.lastAmount = amount
	g.lastMethod = method
	if g.err != nil {
		return "", g.err
	}
	return g.txnID, nil
}

func newCheckoutFixture(lessons map[int64]models.Lesson, owned []int64) (*CheckoutService, *stubPurchaseWriter, *stubGateway) {
	store := cart.NewStore(&stubPurchasedLoader{owned: owned}, time.Hour)
	writer := &stubPurchaseWriter{}
	gateway := &stubGateway{txnID: "txn_abc"}
	service := NewCheckoutService(store, &stubLessonReader{lessons: lessons}, writer, gateway)
	return service, writer, gateway
}

func TestAddLessonUnknownID(t *testing.T) {
	service, _, _ := newCheckoutFixture(map[int64]models.Lesson{}, nil)
	if _, err := service.AddLesson(context.Background(), 1, 99); !errors.Is(err, ErrLessonNotFound) {
		t.Fatalf("expected ErrLessonNotFound, got %v", err)
	}
}

func TestAddLessonAlreadyOwned(t *testing.T) {
	lessons := map[int64]models.Lesson{
		10: {ID: 10, TeacherID: 100, Title: "Algebra", Price: 5000},
	}
	service, _, _ := newCheckoutFixture(lessons, []int64{10})
	if _, err := service.AddLesson(context.Background(), 1, 10); !errors.Is(err, cart.ErrAlreadyPurchased) {
		t.Fatalf("expected ErrAlreadyPurchased, got %v", err)
	}
}

func TestCartViewUsesCurrentPrices(t *testing.T) {
	reader := &stubLessonReader{lessons: map[int64]models.Lesson{
		10: {ID: 10, TeacherID: 100, Title: "Algebra", Price: 5000},
	}}
	store := cart.NewStore(&stubPurchasedLoader{}, time.Hour)
	service := NewCheckoutService(store, reader, &stubPurchaseWriter{}, &stubGateway{txnID: "t"})

	if _, err := service.AddLesson(context.Background(), 1, 10); err != nil {
		t.Fatalf("AddLesson: %v", err)
	}

	// Catalog price changes after the item was added.
	reader.lessons[10] = models.Lesson{ID: 10, TeacherID: 100, Title: "Algebra", Price: 7500}

	view, err := service.Cart(context.Background(), 1)
	if err != nil {
		t.Fatalf("Cart: %v", err)
	}
	if view.Total != 7500 {
		t.Fatalf("expected live total 7500, got %v", view.Total)
	}
	if view.Items[0].Price != 7500 {
		t.Fatalf("expected item re-priced to 7500, got %v", view.Items[0].Price)
	}
}

func TestConfirmCheckoutChargesAndCommits(t *testing.T) {
	lessons := map[int64]models.Lesson{
		10: {ID: 10, TeacherID: 100, Title: "Algebra", Price: 5000},
		11: {ID: 11, TeacherID: 101, Title: "Chemistry", Price: 2500},
	}
	service, writer, gateway := newCheckoutFixture(lessons, nil)
	ctx := context.Background()

	for _, id := range []int64{10, 11} {
		if _, err := service.AddLesson(ctx, 1, id); err != nil {
			t.Fatalf("AddLesson %d: %v", id, err)
		}
	}
	if _, err := service.BeginCheckout(ctx, 1); err != nil {
		t.Fatalf("BeginCheckout: %v", err)
	}
	if _, err := service.SelectPaymentMethod(ctx, 1, "mpesa"); err != nil {
		t.Fatalf("SelectPaymentMethod: %v", err)
	}

	result, err := service.ConfirmCheckout(ctx, 1)
	if err != nil {
		t.Fatalf("ConfirmCheckout: %v", err)
	}
	if result.Total != 7500 {
		t.Fatalf("expected total 7500, got %v", result.Total)
	}
	if gateway.lastAmount != 7500 || gateway.lastMethod != cart.MethodMpesa {
		t.Fatalf("expected charge of 7500 via mpesa, got %v via %s", gateway.lastAmount, gateway.lastMethod)
	}
	if len(writer.lastInputs) != 2 {
		t.Fatalf("expected 2 purchase rows, got %d", len(writer.lastInputs))
	}
	for _, in := range writer.lastInputs {
		if in.TransactionID != "txn_abc" {
			t.Fatalf("expected gateway transaction id on purchase, got %s", in.TransactionID)
		}
		if in.StudentID != 1 {
			t.Fatalf("expected student id 1, got %d", in.StudentID)
		}
	}
	if len(result.Purchases) != 2 {
		t.Fatalf("expected 2 purchases, got %d", len(result.Purchases))
	}
}

func TestConfirmCheckoutGatewayFailureLeavesCart(t *testing.T) {
	lessons := map[int64]models.Lesson{
		10: {ID: 10, TeacherID: 100, Title: "Algebra", Price: 5000},
	}
	service, writer, gateway := newCheckoutFixture(lessons, nil)
	gateway.err = ErrPaymentFailed
	ctx := context.Background()

	if _, err := service.AddLesson(ctx, 1, 10); err != nil {
		t.Fatalf("AddLesson: %v", err)
	}
	if _, err := service.BeginCheckout(ctx, 1); err != nil {
		t.Fatalf("BeginCheckout: %v", err)
	}
	if _, err := service.SelectPaymentMethod(ctx, 1, "bank"); err != nil {
		t.Fatalf("SelectPaymentMethod: %v", err)
	}

	if _, err := service.ConfirmCheckout(ctx, 1); !errors.Is(err, ErrPaymentFailed) {
		t.Fatalf("expected ErrPaymentFailed, got %v", err)
	}
	if writer.calls != 0 {
		t.Fatalf("no purchases may be written on gateway failure, got %d calls", writer.calls)
	}

	view, err := service.Cart(ctx, 1)
	if err != nil {
		t.Fatalf("Cart: %v", err)
	}
	if view.State != cart.StateSelectingPayment {
		t.Fatalf("expected selecting_payment, got %s", view.State)
	}
	if len(view.Items) != 1 || view.Method != cart.MethodBank {
		t.Fatalf("expected cart and method preserved, got %d items method %s", len(view.Items), view.Method)
	}

	// Retry without touching anything succeeds.
	gateway.err = nil
	if _, err := service.ConfirmCheckout(ctx, 1); err != nil {
		t.Fatalf("retry ConfirmCheckout: %v", err)
	}
	if writer.calls != 1 {
		t.Fatalf("expected 1 commit after retry, got %d", writer.calls)
	}
}

func TestConfirmCheckoutLessonRemovedFromCatalog(t *testing.T) {
	reader := &stubLessonReader{lessons: map[int64]models.Lesson{
		10: {ID: 10, TeacherID: 100, Title: "Algebra", Price: 5000},
	}}
	store := cart.NewStore(&stubPurchasedLoader{}, time.Hour)
	writer := &stubPurchaseWriter{}
	service := NewCheckoutService(store, reader, writer, &stubGateway{txnID: "t"})
	ctx := context.Background()

	if _, err := service.AddLesson(ctx, 1, 10); err != nil {
		t.Fatalf("AddLesson: %v", err)
	}
	if _, err := service.BeginCheckout(ctx, 1); err != nil {
		t.Fatalf("BeginCheckout: %v", err)
	}
	if _, err := service.SelectPaymentMethod(ctx, 1, "wallet"); err != nil {
		t.Fatalf("SelectPaymentMethod: %v", err)
	}

	delete(reader.lessons, 10)

	if _, err := service.ConfirmCheckout(ctx, 1); !errors.Is(err, ErrLessonNotFound) {
		t.Fatalf("expected ErrLessonNotFound, got %v", err)
	}
	if writer.calls != 0 {
		t.Fatalf("expected no commit, got %d calls", writer.calls)
	}
}

func TestSelectPaymentMethodRejectsUnknown(t *testing.T) {
	lessons := map[int64]models.Lesson{
		10: {ID: 10, TeacherID: 100, Title: "Algebra", Price: 5000},
	}
	service, _, _ := newCheckoutFixture(lessons, nil)
	ctx := context.Background()

	if _, err := service.AddLesson(ctx, 1, 10); err != nil {
		t.Fatalf("AddLesson: %v", err)
	}
	if _, err := service.BeginCheckout(ctx, 1); err != nil {
		t.Fatalf("BeginCheckout: %v", err)
	}
	if _, err := service.SelectPaymentMethod(ctx, 1, "paypal"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestSimulatedGatewayRejectsZeroAmount(t *testing.T) {
	gateway := &SimulatedGateway{}
	if _, err := gateway.Charge(context.Background(), 0, cart.MethodMpesa); !errors.Is(err, ErrPaymentFailed) {
		t.Fatalf("expected ErrPaymentFailed, got %v", err)
	}
	txn, err := gateway.Charge(context.Background(), 100, cart.MethodMpesa)
	if err != nil {
		t.Fatalf("Charge: %v", err)
	}
	if txn == "" {
		t.Fatalf("expected transaction id")
	}
}
