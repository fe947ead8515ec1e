package models

import "time"

// CartItem is a lesson held pending purchase. Price is the price shown when
// the item was added; totals and checkout always recompute against the
// current catalog price.
type CartItem struct {
	LessonID  int64   `json:"lesson_id"`
	TeacherID int64   `json:"teacher_id"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
}

// Purchase is append-only: one row per cart item per successful checkout.
type Purchase struct {
	ID            int64     `json:"id"`
	LessonID      int64     `json:"lesson_id"`
	StudentID     int64     `json:"student_id"`
	TeacherID     int64     `json:"teacher_id"`
	Price         float64   `json:"price"`
	PaymentMethod string    `json:"payment_method"`
	TransactionID string    `json:"transaction_id"`
	PurchasedAt   time.Time `json:"purchased_at"`
}
