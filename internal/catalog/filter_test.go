package catalog

import (
	"testing"

	"github.com/somo-app/SomoAppBack/internal/models"
)

func sampleLessons() []models.Lesson {
	return []models.Lesson{
		{ID: 1, Title: "Algebra Basics", Description: "Linear equations", Subject: "Mathematics", Form: "Form 2", TeacherName: "Amina Hassan"},
		{ID: 2, Title: "Organic Chemistry", Description: "Hydrocarbons and alkanes", Subject: "Chemistry", Form: "Form 4", TeacherName: "John Mwakyusa"},
		{ID: 3, Title: "Advanced Algebra", Description: "Quadratic equations", Subject: "Mathematics", Form: "Form 4", TeacherName: "Amina Hassan"},
		{ID: 4, Title: "Kiswahili Fasihi", Description: "Uchambuzi wa riwaya", Subject: "Kiswahili", Form: "Form 3", TeacherName: "Neema Joseph"},
	}
}

func TestZeroQueryMatchesAll(t *testing.T) {
	lessons := sampleLessons()
	got := Filter(lessons, Query{})
	if len(got) != len(lessons) {
		t.Fatalf("expected all %d lessons, got %d", len(lessons), len(got))
	}
}

func TestTextMatchIsCaseInsensitive(t *testing.T) {
	got := Filter(sampleLessons(), Query{Text: "ALGEBRA"})
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}
	if got[0].ID != 1 || got[1].ID != 3 {
		t.Fatalf("expected lessons 1 and 3 in input order, got %d and %d", got[0].ID, got[1].ID)
	}
}

func TestTextMatchesTeacherName(t *testing.T) {
	got := Filter(sampleLessons(), Query{Text: "amina"})
	if len(got) != 2 {
		t.Fatalf("expected 2 lessons by Amina, got %d", len(got))
	}
}

func TestTextMatchesDescription(t *testing.T) {
	got := Filter(sampleLessons(), Query{Text: "hydrocarbons"})
	if len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("expected only lesson 2, got %v", got)
	}
}

func TestSubjectIsExactMatch(t *testing.T) {
	got := Filter(sampleLessons(), Query{Subject: "Mathematics"})
	if len(got) != 2 {
		t.Fatalf("expected 2 mathematics lessons, got %d", len(got))
	}
	if got := Filter(sampleLessons(), Query{Subject: "math"}); len(got) != 0 {
		t.Fatalf("subject filter must not substring-match, got %d lessons", len(got))
	}
}

func TestFiltersCompose(t *testing.T) {
	got := Filter(sampleLessons(), Query{Text: "algebra", Subject: "Mathematics", Form: "Form 4"})
	if len(got) != 1 || got[0].ID != 3 {
		t.Fatalf("expected only lesson 3, got %v", got)
	}
}

func TestNoMatches(t *testing.T) {
	got := Filter(sampleLessons(), Query{Text: "physics"})
	if len(got) != 0 {
		t.Fatalf("expected no matches, got %d", len(got))
	}
}

func TestInputNotMutated(t *testing.T) {
	lessons := sampleLessons()
	Filter(lessons, Query{Text: "algebra", Form: "Form 4"})
	if lessons[0].ID != 1 || lessons[3].ID != 4 {
		t.Fatalf("input slice was reordered")
	}
}
