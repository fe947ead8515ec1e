package repository

import (
	"context"

	"github.com/somo-app/SomoAppBack/internal/models"
)

type CreatePurchaseInput struct {
	LessonID      int64
	StudentID     int64
	TeacherID     int64
	Price         float64
	PaymentMethod string
	TransactionID string
}

type PurchaseRepository struct {
	db DBTX
}

func NewPurchaseRepository(db DBTX) *PurchaseRepository {
	return &PurchaseRepository{db: db}
}

// CreateBatch inserts one purchase row per cart item in a single statement,
// so a checkout commits atomically or not at all.
func (r *PurchaseRepository) CreateBatch(ctx context.Context, inputs []CreatePurchaseInput) ([]models.Purchase, error) {
	if len(inputs) == 0 {
		return []models.Purchase{}, nil
	}

	lessonIDs := make([]int64, len(inputs))
	studentIDs := make([]int64, len(inputs))
	teacherIDs := make([]int64, len(inputs))
	prices := make([]float64, len(inputs))
	methods := make([]string, len(inputs))
	transactions := make([]string, len(inputs))
	for i, input := range inputs {
		lessonIDs[i] = input.LessonID
		studentIDs[i] = input.StudentID
		teacherIDs[i] = input.TeacherID
		prices[i] = input.Price
		methods[i] = input.PaymentMethod
		transactions[i] = input.TransactionID
	}

	query := `
		INSERT INTO purchases (lesson_id, student_id, teacher_id, price, payment_method, transaction_id)
		SELECT * FROM UNNEST($1::bigint[], $2::bigint[], $3::bigint[], $4::numeric[], $5::text[], $6::text[])
		RETURNING id, lesson_id, student_id, teacher_id, price, payment_method, transaction_id, purchased_at
	`
	rows, err := r.db.Query(ctx, query, lessonIDs, studentIDs, teacherIDs, prices, methods, transactions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	purchases := make([]models.Purchase, 0, len(inputs))
	for rows.Next() {
		var purchase models.Purchase
		if err := rows.Scan(
			&purchase.ID,
			&purchase.LessonID,
			&purchase.StudentID,
			&purchase.TeacherID,
			&purchase.Price,
			&purchase.PaymentMethod,
			&purchase.TransactionID,
			&purchase.PurchasedAt,
		); err != nil {
			return nil, err
		}
		purchases = append(purchases, purchase)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return purchases, nil
}

func (r *PurchaseRepository) ListByStudent(ctx context.Context, studentID int64) ([]models.Purchase, error) {
	query := `
		SELECT id, lesson_id, student_id, teacher_id, price, payment_method, transaction_id, purchased_at
		FROM purchases
		WHERE student_id = $1
		ORDER BY purchased_at DESC, id DESC
	`
	rows, err := r.db.Query(ctx, query, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	purchases := make([]models.Purchase, 0)
	for rows.Next() {
		var purchase models.Purchase
		if err := rows.Scan(
			&purchase.ID,
			&purchase.LessonID,
			&purchase.StudentID,
			&purchase.TeacherID,
			&purchase.Price,
			&purchase.PaymentMethod,
			&purchase.TransactionID,
			&purchase.PurchasedAt,
		); err != nil {
			return nil, err
		}
		purchases = append(purchases, purchase)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return purchases, nil
}

func (r *PurchaseRepository) ListLessonIDsByStudent(ctx context.Context, studentID int64) ([]int64, error) {
	query := `
		SELECT DISTINCT lesson_id
		FROM purchases
		WHERE student_id = $1
	`
	rows, err := r.db.Query(ctx, query, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
