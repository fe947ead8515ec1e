package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/somo-app/SomoAppBack/internal/models"
)

const lessonColumns = `
	l.id, l.title, l.description, l.subject, l.form, l.teacher_id,
	COALESCE(p.full_name, ''), l.price, l.video_url, l.image_url,
	l.average_rating, l.rating_count, l.created_at, l.updated_at
`

type CreateLessonInput struct {
	TeacherID   int64
	Title       string
	Description string
	Subject     string
	Form        string
	Price       float64
	VideoURL    *string
	ImageURL    *string
}

type LessonRepository struct {
	db DBTX
}

func NewLessonRepository(db DBTX) *LessonRepository {
	return &LessonRepository{db: db}
}

func (r *LessonRepository) Create(ctx context.Context, input CreateLessonInput) (*models.Lesson, error) {
	query := `
		INSERT INTO lessons (teacher_id, title, description, subject, form, price, video_url, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	lesson := models.Lesson{
		TeacherID:   input.TeacherID,
		Title:       input.Title,
		Description: input.Description,
		Subject:     input.Subject,
		Form:        input.Form,
		Price:       input.Price,
		VideoURL:    input.VideoURL,
		ImageURL:    input.ImageURL,
	}
	err := r.db.QueryRow(
		ctx,
		query,
		input.TeacherID,
		input.Title,
		input.Description,
		input.Subject,
		input.Form,
		input.Price,
		input.VideoURL,
		input.ImageURL,
	).Scan(&lesson.ID, &lesson.CreatedAt, &lesson.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (r *LessonRepository) ListAll(ctx context.Context) ([]models.Lesson, error) {
	query := `
		SELECT ` + lessonColumns + `
		FROM lessons l
		LEFT JOIN user_profiles p ON p.user_id = l.teacher_id
		ORDER BY l.created_at DESC, l.id DESC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLessons(rows)
}

func (r *LessonRepository) ListByTeacher(ctx context.Context, teacherID int64) ([]models.Lesson, error) {
	query := `
		SELECT ` + lessonColumns + `
		FROM lessons l
		LEFT JOIN user_profiles p ON p.user_id = l.teacher_id
		WHERE l.teacher_id = $1
		ORDER BY l.created_at DESC, l.id DESC
	`
	rows, err := r.db.Query(ctx, query, teacherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLessons(rows)
}

func (r *LessonRepository) ListPurchasedByStudent(ctx context.Context, studentID int64) ([]models.Lesson, error) {
	query := `
		SELECT ` + lessonColumns + `
		FROM purchases pu
		JOIN lessons l ON l.id = pu.lesson_id
		LEFT JOIN user_profiles p ON p.user_id = l.teacher_id
		WHERE pu.student_id = $1
		ORDER BY pu.purchased_at DESC, pu.id DESC
	`
	rows, err := r.db.Query(ctx, query, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLessons(rows)
}

func (r *LessonRepository) GetByID(ctx context.Context, lessonID int64) (*models.Lesson, error) {
	query := `
		SELECT ` + lessonColumns + `
		FROM lessons l
		LEFT JOIN user_profiles p ON p.user_id = l.teacher_id
		WHERE l.id = $1
	`
	var lesson models.Lesson
	err := r.db.QueryRow(ctx, query, lessonID).Scan(
		&lesson.ID,
		&lesson.Title,
		&lesson.Description,
		&lesson.Subject,
		&lesson.Form,
		&lesson.TeacherID,
		&lesson.TeacherName,
		&lesson.Price,
		&lesson.VideoURL,
		&lesson.ImageURL,
		&lesson.AverageRating,
		&lesson.RatingCount,
		&lesson.CreatedAt,
		&lesson.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (r *LessonRepository) ListByIDs(ctx context.Context, lessonIDs []int64) ([]models.Lesson, error) {
	if len(lessonIDs) == 0 {
		return []models.Lesson{}, nil
	}
	query := `
		SELECT ` + lessonColumns + `
		FROM lessons l
		LEFT JOIN user_profiles p ON p.user_id = l.teacher_id
		WHERE l.id = ANY($1)
		ORDER BY l.id
	`
	rows, err := r.db.Query(ctx, query, lessonIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLessons(rows)
}

// RefreshRating recomputes the lesson's aggregate as the unweighted mean
// over all current ratings.
func (r *LessonRepository) RefreshRating(ctx context.Context, lessonID int64) (*models.Lesson, error) {
	query := `
		UPDATE lessons l
		SET average_rating = agg.avg_rating,
		    rating_count   = agg.count,
		    updated_at     = NOW()
		FROM (
			SELECT COALESCE(AVG(rating), 0) AS avg_rating, COUNT(*) AS count
			FROM ratings
			WHERE lesson_id = $1
		) agg
		WHERE l.id = $1
		RETURNING l.id, l.average_rating, l.rating_count
	`
	var lesson models.Lesson
	err := r.db.QueryRow(ctx, query, lessonID).
		Scan(&lesson.ID, &lesson.AverageRating, &lesson.RatingCount)
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

func scanLessons(rows pgx.Rows) ([]models.Lesson, error) {
	lessons := make([]models.Lesson, 0)
	for rows.Next() {
		var lesson models.Lesson
		if err := rows.Scan(
			&lesson.ID,
			&lesson.Title,
			&lesson.Description,
			&lesson.Subject,
			&lesson.Form,
			&lesson.TeacherID,
			&lesson.TeacherName,
			&lesson.Price,
			&lesson.VideoURL,
			&lesson.ImageURL,
			&lesson.AverageRating,
			&lesson.RatingCount,
			&lesson.CreatedAt,
			&lesson.UpdatedAt,
		); err != nil {
			return nil, err
		}
		lessons = append(lessons, lesson)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lessons, nil
}
