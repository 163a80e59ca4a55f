package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"classroom-quiz/internal/domain"
)

func TestReadQuizFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geography.gift")
	doc := `// capitals
::Capital:: What is the capital of Canada? {=Ottawa ~Toronto}

::Match:: Match the pairs {=Canada -> Ottawa =France -> Paris}

::Flat:: The earth is flat {F}
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	quiz, err := readQuizFile(path, "", "")
	if err != nil {
		t.Fatalf("read quiz: %v", err)
	}
	if quiz.ID != "geography" || quiz.Title != "geography" {
		t.Fatalf("expected id and title from file name, got %+v", quiz)
	}
	if len(quiz.Questions) != 2 {
		t.Fatalf("expected matching question to be dropped, got %d questions", len(quiz.Questions))
	}
}

func TestReadQuizFileWithoutQuestions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.gift")
	if err := os.WriteFile(path, []byte("// nothing here\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := readQuizFile(path, "x", "X"); !errors.Is(err, domain.ErrNoParseableQuestions) {
		t.Fatalf("expected ErrNoParseableQuestions, got %v", err)
	}
}
