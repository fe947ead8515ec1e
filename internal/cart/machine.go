// Package cart implements the per-student cart and checkout state machine.
//
// Every mutation goes through one of the named operations below; readers get
// copies. A machine serializes its own operations with a mutex, which is the
// server-side equivalent of the one-interaction-at-a-time UI flow the cart
// models: while a checkout is processing, other cart operations for the same
// student wait.
package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/somo-app/SomoAppBack/internal/models"
)

type State string

const (
	StateEmpty            State = "empty"
	StateHasItems         State = "has_items"
	StateSelectingPayment State = "selecting_payment"
	StateProcessing       State = "processing"
	StateSuccess          State = "success"
)

type PaymentMethod string

const (
	MethodMpesa    PaymentMethod = "mpesa"
	MethodTigoPesa PaymentMethod = "tigopesa"
	MethodBank     PaymentMethod = "bank"
	MethodWallet   PaymentMethod = "wallet"
)

// ParseMethod maps a wire value onto the fixed payment method set.
func ParseMethod(value string) (PaymentMethod, bool) {
	switch PaymentMethod(value) {
	case MethodMpesa, MethodTigoPesa, MethodBank, MethodWallet:
		return PaymentMethod(value), true
	default:
		return "", false
	}
}

var (
	// ErrAlreadyInCart and ErrAlreadyPurchased reject an add without
	// changing any state; callers surface them as a notice, not a failure.
	ErrAlreadyInCart    = errors.New("lesson already in cart")
	ErrAlreadyPurchased = errors.New("lesson already purchased")
	ErrCartEmpty        = errors.New("cart is empty")
	ErrInvalidState     = errors.New("operation not valid in current state")
	ErrNoMethod         = errors.New("no payment method selected")
)

// CommitFunc performs the external payment call plus the purchase commit for
// the given items and reports the resulting purchase records. It runs while
// the machine is in StateProcessing.
type CommitFunc func(ctx context.Context, method PaymentMethod, items []models.CartItem) ([]models.Purchase, error)

// DefaultResetDelay is how long a machine displays StateSuccess before
// returning to StateEmpty.
const DefaultResetDelay = 3 * time.Second

type Machine struct {
	mu         sync.Mutex
	studentID  int64
	state      State
	items      []models.CartItem
	purchased  map[int64]struct{}
	method     PaymentMethod
	resetDelay time.Duration
	resetTimer *time.Timer
}

// NewMachine builds a machine for one student, seeded with the lesson ids
// the student has already purchased.
func NewMachine(studentID int64, purchased []int64, resetDelay time.Duration) *Machine {
	if resetDelay <= 0 {
		resetDelay = DefaultResetDelay
	}
	owned := make(map[int64]struct{}, len(purchased))
	for _, id := range purchased {
		owned[id] = struct{}{}
	}
	return &Machine{
		studentID:  studentID,
		state:      StateEmpty,
		purchased:  owned,
		resetDelay: resetDelay,
	}
}

// AddItem appends a lesson to the cart. A lesson already in the cart or in
// the purchased set is rejected without altering the cart. Adding while the
// success screen is showing cancels the pending reset and resumes from the
// new item.
func (m *Machine) AddItem(item models.CartItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case StateEmpty, StateHasItems:
	case StateSuccess:
		m.stopResetLocked()
		m.state = StateEmpty
	default:
		return ErrInvalidState
	}

	if _, ok := m.purchased[item.LessonID]; ok {
		return ErrAlreadyPurchased
	}
	for _, existing := range m.items {
		if existing.LessonID == item.LessonID {
			return ErrAlreadyInCart
		}
	}

	m.items = append(m.items, item)
	m.state = StateHasItems
	return nil
}

// RemoveItem drops a lesson by id; unknown ids are ignored. An emptied cart
// returns to StateEmpty.
func (m *Machine) RemoveItem(lessonID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateEmpty && m.state != StateHasItems {
		return ErrInvalidState
	}

	kept := m.items[:0]
	for _, item := range m.items {
		if item.LessonID != lessonID {
			kept = append(kept, item)
		}
	}
	m.items = kept
	if len(m.items) == 0 {
		m.items = nil
		m.state = StateEmpty
	}
	return nil
}

// BeginCheckout moves a non-empty cart into payment selection. On an empty
// cart it is a guarded no-op.
func (m *Machine) BeginCheckout() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateEmpty {
		return ErrCartEmpty
	}
	if m.state != StateHasItems {
		return ErrInvalidState
	}
	m.state = StateSelectingPayment
	return nil
}

// SelectPaymentMethod records the single selected method; re-invoking
// overwrites the prior selection.
func (m *Machine) SelectPaymentMethod(method PaymentMethod) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateSelectingPayment {
		return ErrInvalidState
	}
	if _, ok := ParseMethod(string(method)); !ok {
		return ErrNoMethod
	}
	m.method = method
	return nil
}

// CancelPaymentSelection returns to HasItems, keeping the cart intact.
func (m *Machine) CancelPaymentSelection() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateSelectingPayment {
		return ErrInvalidState
	}
	m.state = StateHasItems
	return nil
}

// ConfirmCheckout runs commit for the current cart. On success the cart is
// emptied, every item joins the purchased set, and the machine shows
// StateSuccess until the reset delay elapses. On failure the cart and the
// selected method are untouched and the machine returns to payment
// selection so the attempt can be retried.
func (m *Machine) ConfirmCheckout(ctx context.Context, commit CommitFunc) ([]models.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateSelectingPayment {
		return nil, ErrInvalidState
	}
	if m.method == "" {
		return nil, ErrNoMethod
	}

	items := make([]models.CartItem, len(m.items))
	copy(items, m.items)

	m.state = StateProcessing
	purchases, err := commit(ctx, m.method, items)
	if err != nil {
		m.state = StateSelectingPayment
		return nil, err
	}

	for _, item := range items {
		m.purchased[item.LessonID] = struct{}{}
	}
	m.items = nil
	m.method = ""
	m.state = StateSuccess
	m.resetTimer = time.AfterFunc(m.resetDelay, m.resetAfterSuccess)
	return purchases, nil
}

func (m *Machine) resetAfterSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateSuccess {
		m.state = StateEmpty
	}
}

func (m *Machine) stopResetLocked() {
	if m.resetTimer != nil {
		m.resetTimer.Stop()
		m.resetTimer = nil
	}
}

// State reports the current machine state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Items returns a copy of the cart contents.
func (m *Machine) Items() []models.CartItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]models.CartItem, len(m.items))
	copy(items, m.items)
	return items
}

// Method reports the selected payment method, empty if none.
func (m *Machine) Method() PaymentMethod {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.method
}

// HasPurchased reports whether the student owns the lesson.
func (m *Machine) HasPurchased(lessonID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.purchased[lessonID]
	return ok
}

// PurchasedIDs returns a copy of the purchased lesson id set.
func (m *Machine) PurchasedIDs() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, 0, len(m.purchased))
	for id := range m.purchased {
		ids = append(ids, id)
	}
	return ids
}
