// Package catalog holds the pure, in-memory lesson filtering used by the
// directory and dashboard listings. Datasets are modest (tens to low
// hundreds of records), so everything works on full slices with no
// pagination.
package catalog

import (
	"strings"

	"github.com/somo-app/SomoAppBack/internal/models"
)

// Query combines three independent filters. A zero-value field matches
// everything, so the zero Query returns the input unchanged.
type Query struct {
	// Text is matched case-insensitively as a substring of the lesson
	// title, description and teacher name.
	Text string
	// Subject must equal the lesson subject exactly when set.
	Subject string
	// Form must equal the lesson form/grade exactly when set.
	Form string
}

// Filter returns the lessons matching the intersection of all set filters,
// preserving input order. The input slice is never mutated.
func Filter(lessons []models.Lesson, q Query) []models.Lesson {
	needle := strings.ToLower(strings.TrimSpace(q.Text))

	matched := make([]models.Lesson, 0, len(lessons))
	for _, lesson := range lessons {
		if !matchesText(lesson, needle) {
			continue
		}
		if q.Subject != "" && lesson.Subject != q.Subject {
			continue
		}
		if q.Form != "" && lesson.Form != q.Form {
			continue
		}
		matched = append(matched, lesson)
	}
	return matched
}

func matchesText(lesson models.Lesson, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(lesson.Title), needle) ||
		strings.Contains(strings.ToLower(lesson.Description), needle) ||
		strings.Contains(strings.ToLower(lesson.TeacherName), needle)
}
