package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/somo-app/SomoAppBack/internal/models"
)

func item(lessonID int64, price float64) models.CartItem {
	return models.CartItem{LessonID: lessonID, TeacherID: 100, Title: "Lesson", Price: price}
}

func okCommit(method PaymentMethod) CommitFunc {
	return func(_ context.Context, m PaymentMethod, items []models.CartItem) ([]models.Purchase, error) {
		purchases := make([]models.Purchase, 0, len(items))
		for _, it := range items {
			purchases = append(purchases, models.Purchase{
				LessonID:      it.LessonID,
				TeacherID:     it.TeacherID,
				Price:         it.Price,
				PaymentMethod: string(m),
				TransactionID: "txn_test",
			})
		}
		return purchases, nil
	}
}

func TestAddRemoveRoundTrip(t *testing.T) {
	m := NewMachine(1, nil, time.Hour)

	if m.State() != StateEmpty {
		t.Fatalf("expected empty state, got %s", m.State())
	}
	if err := m.AddItem(item(10, 5000)); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if m.State() != StateHasItems {
		t.Fatalf("expected has_items, got %s", m.State())
	}
	if err := m.RemoveItem(10); err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if m.State() != StateEmpty {
		t.Fatalf("expected empty after removing last item, got %s", m.State())
	}
	if got := len(m.Items()); got != 0 {
		t.Fatalf("expected no items, got %d", got)
	}
}

func TestAddDuplicateRejectedWithoutChange(t *testing.T) {
	m := NewMachine(1, nil, time.Hour)
	if err := m.AddItem(item(10, 5000)); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if err := m.AddItem(item(10, 5000)); !errors.Is(err, ErrAlreadyInCart) {
		t.Fatalf("expected ErrAlreadyInCart, got %v", err)
	}
	if got := len(m.Items()); got != 1 {
		t.Fatalf("expected cart unchanged with 1 item, got %d", got)
	}
}

func TestAddPurchasedLessonRejected(t *testing.T) {
	m := NewMachine(1, []int64{10}, time.Hour)
	if err := m.AddItem(item(10, 5000)); !errors.Is(err, ErrAlreadyPurchased) {
		t.Fatalf("expected ErrAlreadyPurchased, got %v", err)
	}
	if m.State() != StateEmpty {
		t.Fatalf("expected state unchanged, got %s", m.State())
	}
}

func TestRemoveUnknownLessonIgnored(t *testing.T) {
	m := NewMachine(1, nil, time.Hour)
	if err := m.AddItem(item(10, 5000)); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if err := m.RemoveItem(99); err != nil {
		t.Fatalf("RemoveItem unknown id: %v", err)
	}
	if got := len(m.Items()); got != 1 {
		t.Fatalf("expected 1 item, got %d", got)
	}
}

func TestBeginCheckoutOnEmptyCart(t *testing.T) {
	m := NewMachine(1, nil, time.Hour)
	if err := m.BeginCheckout(); !errors.Is(err, ErrCartEmpty) {
		t.Fatalf("expected ErrCartEmpty, got %v", err)
	}
	if m.State() != StateEmpty {
		t.Fatalf("expected empty state, got %s", m.State())
	}
}

func TestConfirmWithoutMethodRejected(t *testing.T) {
	m := NewMachine(1, nil, time.Hour)
	if err := m.AddItem(item(10, 5000)); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if err := m.BeginCheckout(); err != nil {
		t.Fatalf("BeginCheckout: %v", err)
	}
	if _, err := m.ConfirmCheckout(context.Background(), okCommit(MethodMpesa)); !errors.Is(err, ErrNoMethod) {
		t.Fatalf("expected ErrNoMethod, got %v", err)
	}
}

func TestReselectingMethodOverwrites(t *testing.T) {
	m := NewMachine(1, nil, time.Hour)
	if err := m.AddItem(item(10, 5000)); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if err := m.BeginCheckout(); err != nil {
		t.Fatalf("BeginCheckout: %v", err)
	}
	if err := m.SelectPaymentMethod(MethodMpesa); err != nil {
		t.Fatalf("SelectPaymentMethod: %v", err)
	}
	if err := m.SelectPaymentMethod(MethodBank); err != nil {
		t.Fatalf("SelectPaymentMethod overwrite: %v", err)
	}
	if got := m.Method(); got != MethodBank {
		t.Fatalf("expected bank, got %s", got)
	}
}

func TestSuccessfulCheckoutPostconditions(t *testing.T) {
	m := NewMachine(1, nil, time.Hour)
	if err := m.AddItem(item(10, 5000)); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if err := m.AddItem(item(11, 2500)); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if err := m.BeginCheckout(); err != nil {
		t.Fatalf("BeginCheckout: %v", err)
	}
	if err := m.SelectPaymentMethod(MethodBank); err != nil {
		t.Fatalf("SelectPaymentMethod: %v", err)
	}

	purchases, err := m.ConfirmCheckout(context.Background(), okCommit(MethodBank))
	if err != nil {
		t.Fatalf("ConfirmCheckout: %v", err)
	}
	if got := len(purchases); got != 2 {
		t.Fatalf("expected 2 purchases, got %d", got)
	}
	for _, p := range purchases {
		if p.PaymentMethod != string(MethodBank) {
			t.Fatalf("expected purchase method bank, got %s", p.PaymentMethod)
		}
	}
	if m.State() != StateSuccess {
		t.Fatalf("expected success state, got %s", m.State())
	}
	if got := len(m.Items()); got != 0 {
		t.Fatalf("expected cart emptied, got %d items", got)
	}
	if m.Method() != "" {
		t.Fatalf("expected method cleared, got %s", m.Method())
	}
	if !m.HasPurchased(10) || !m.HasPurchased(11) {
		t.Fatalf("expected both lessons in purchased set")
	}
	if err := m.AddItem(item(10, 5000)); !errors.Is(err, ErrAlreadyPurchased) {
		t.Fatalf("expected re-add of purchased lesson rejected, got %v", err)
	}
}

func TestFailedCheckoutPreservesCartAndMethod(t *testing.T) {
	m := NewMachine(1, nil, time.Hour)
	if err := m.AddItem(item(10, 5000)); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if err := m.BeginCheckout(); err != nil {
		t.Fatalf("BeginCheckout: %v", err)
	}
	if err := m.SelectPaymentMethod(MethodMpesa); err != nil {
		t.Fatalf("SelectPaymentMethod: %v", err)
	}

	gatewayErr := errors.New("gateway down")
	_, err := m.ConfirmCheckout(context.Background(), func(context.Context, PaymentMethod, []models.CartItem) ([]models.Purchase, error) {
		return nil, gatewayErr
	})
	if !errors.Is(err, gatewayErr) {
		t.Fatalf("expected gateway error, got %v", err)
	}
	if m.State() != StateSelectingPayment {
		t.Fatalf("expected back in payment selection, got %s", m.State())
	}
	if got := len(m.Items()); got != 1 {
		t.Fatalf("expected cart preserved, got %d items", got)
	}
	if m.Method() != MethodMpesa {
		t.Fatalf("expected method preserved, got %s", m.Method())
	}
	if m.HasPurchased(10) {
		t.Fatalf("failed checkout must not mark lesson purchased")
	}

	// Retry succeeds without re-selecting a method.
	if _, err := m.ConfirmCheckout(context.Background(), okCommit(MethodMpesa)); err != nil {
		t.Fatalf("retry ConfirmCheckout: %v", err)
	}
	if m.State() != StateSuccess {
		t.Fatalf("expected success after retry, got %s", m.State())
	}
}

func TestCancelPaymentSelectionKeepsCart(t *testing.T) {
	m := NewMachine(1, nil, time.Hour)
	if err := m.AddItem(item(10, 5000)); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if err := m.BeginCheckout(); err != nil {
		t.Fatalf("BeginCheckout: %v", err)
	}
	if err := m.SelectPaymentMethod(MethodWallet); err != nil {
		t.Fatalf("SelectPaymentMethod: %v", err)
	}
	if err := m.CancelPaymentSelection(); err != nil {
		t.Fatalf("CancelPaymentSelection: %v", err)
	}
	if m.State() != StateHasItems {
		t.Fatalf("expected has_items, got %s", m.State())
	}
	if got := len(m.Items()); got != 1 {
		t.Fatalf("expected cart intact, got %d items", got)
	}
}

func TestLargeBankCheckout(t *testing.T) {
	m := NewMachine(1, nil, time.Hour)
	if err := m.AddItem(item(10, 10000)); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if err := m.BeginCheckout(); err != nil {
		t.Fatalf("BeginCheckout: %v", err)
	}
	if err := m.SelectPaymentMethod(MethodBank); err != nil {
		t.Fatalf("SelectPaymentMethod: %v", err)
	}

	var charged float64
	purchases, err := m.ConfirmCheckout(context.Background(), func(_ context.Context, method PaymentMethod, items []models.CartItem) ([]models.Purchase, error) {
		for _, it := range items {
			charged += it.Price
		}
		return okCommit(method)(context.Background(), method, items)
	})
	if err != nil {
		t.Fatalf("ConfirmCheckout: %v", err)
	}
	if charged != 10000 {
		t.Fatalf("expected 10000 charged, got %v", charged)
	}
	if got := len(purchases); got != 1 {
		t.Fatalf("expected 1 purchase, got %d", got)
	}
}

func TestSuccessAutoResetsToEmpty(t *testing.T) {
	m := NewMachine(1, nil, 10*time.Millisecond)
	if err := m.AddItem(item(10, 5000)); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if err := m.BeginCheckout(); err != nil {
		t.Fatalf("BeginCheckout: %v", err)
	}
	if err := m.SelectPaymentMethod(MethodMpesa); err != nil {
		t.Fatalf("SelectPaymentMethod: %v", err)
	}
	if _, err := m.ConfirmCheckout(context.Background(), okCommit(MethodMpesa)); err != nil {
		t.Fatalf("ConfirmCheckout: %v", err)
	}
	if m.State() != StateSuccess {
		t.Fatalf("expected success, got %s", m.State())
	}

	deadline := time.Now().Add(time.Second)
	for m.State() != StateEmpty {
		if time.Now().After(deadline) {
			t.Fatalf("machine never reset to empty, still %s", m.State())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestAddDuringSuccessCancelsReset(t *testing.T) {
	m := NewMachine(1, nil, 20*time.Millisecond)
	if err := m.AddItem(item(10, 5000)); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if err := m.BeginCheckout(); err != nil {
		t.Fatalf("BeginCheckout: %v", err)
	}
	if err := m.SelectPaymentMethod(MethodMpesa); err != nil {
		t.Fatalf("SelectPaymentMethod: %v", err)
	}
	if _, err := m.ConfirmCheckout(context.Background(), okCommit(MethodMpesa)); err != nil {
		t.Fatalf("ConfirmCheckout: %v", err)
	}

	if err := m.AddItem(item(11, 2500)); err != nil {
		t.Fatalf("AddItem during success: %v", err)
	}
	if m.State() != StateHasItems {
		t.Fatalf("expected has_items, got %s", m.State())
	}

	time.Sleep(50 * time.Millisecond)
	if m.State() != StateHasItems {
		t.Fatalf("reset timer fired after new add, state %s", m.State())
	}
	if got := len(m.Items()); got != 1 {
		t.Fatalf("expected 1 item in new cart, got %d", got)
	}
}

func TestOperationsRejectedWhileSelectingPayment(t *testing.T) {
	m := NewMachine(1, nil, time.Hour)
	if err := m.AddItem(item(10, 5000)); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if err := m.BeginCheckout(); err != nil {
		t.Fatalf("BeginCheckout: %v", err)
	}

	if err := m.AddItem(item(11, 2500)); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for add, got %v", err)
	}
	if err := m.RemoveItem(10); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for remove, got %v", err)
	}
	if err := m.BeginCheckout(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for second begin, got %v", err)
	}
}

func TestParseMethod(t *testing.T) {
	for _, valid := range []string{"mpesa", "tigopesa", "bank", "wallet"} {
		if _, ok := ParseMethod(valid); !ok {
			t.Fatalf("expected %q to parse", valid)
		}
	}
	if _, ok := ParseMethod("paypal"); ok {
		t.Fatalf("expected unknown method to be rejected")
	}
}
