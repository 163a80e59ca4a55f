package gift

import (
	"errors"
	"testing"

	"classroom-quiz/internal/domain"
	"classroom-quiz/internal/grading"
)

func TestParseTrueFalse(t *testing.T) {
	q, err := Parse("::Earth:: The earth is round. {TRUE#Correct!}")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	key, ok := q.Key.(domain.TrueFalseKey)
	if !ok || !key.IsTrue {
		t.Fatalf("expected true key, got %#v", q.Key)
	}
	if q.Title != "Earth" || q.Text != "The earth is round." {
		t.Fatalf("unexpected title/text %q / %q", q.Title, q.Text)
	}

	q, err = Parse("Two plus two is five. {F}")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if key := q.Key.(domain.TrueFalseKey); key.IsTrue {
		t.Fatalf("expected false key")
	}
}

func TestParseMultipleChoice(t *testing.T) {
	q, err := Parse("What is the capital of Canada? {=Ottawa ~Toronto#Nope ~Montreal}")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	key, ok := q.Key.(domain.MultipleChoiceKey)
	if !ok {
		t.Fatalf("expected multiple choice, got %#v", q.Key)
	}
	if len(key.Choices) != 3 || key.Choices[1].Text != "Toronto" {
		t.Fatalf("unexpected choices %+v", key.Choices)
	}
	if got := key.CorrectTexts(); len(got) != 1 || got[0] != "Ottawa" {
		t.Fatalf("unexpected correct set %v", got)
	}
	view := q.View(0)
	if len(view.Choices) != 3 || view.Kind != domain.KindMultipleChoice {
		t.Fatalf("unexpected view %+v", view)
	}
}

func TestParseWeightedMultipleChoice(t *testing.T) {
	q, err := Parse("Pick the primes. {~%50%2 ~%50%3 ~%-100%4}")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	key := q.Key.(domain.MultipleChoiceKey)
	if key.Choices[0].Weight != 50 || !key.Choices[0].IsCorrect || key.Choices[2].IsCorrect {
		t.Fatalf("unexpected weights %+v", key.Choices)
	}
	if !grading.Evaluate(q, domain.ChoicesValue("2", "3")) {
		t.Fatalf("full correct set should be accepted")
	}
	if grading.Evaluate(q, domain.ChoicesValue("2")) {
		t.Fatalf("partial set should be rejected")
	}
}

func TestParseShortAnswer(t *testing.T) {
	q, err := Parse("How do you say key in French? {=clé =clef}")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	key, ok := q.Key.(domain.ShortAnswerKey)
	if !ok || len(key.Accepted) != 2 || key.Accepted[0] != "clé" {
		t.Fatalf("unexpected key %#v", q.Key)
	}
	if !grading.Evaluate(q, domain.TextValue("CLÉ")) {
		t.Fatalf("expected case-insensitive match")
	}
}

func TestParseNumerical(t *testing.T) {
	cases := []struct {
		raw  string
		want domain.NumericRule
	}{
		{"Pi to two places? {#3.14}", domain.SimpleRule{Number: 3.14}},
		{"Three give or take two? {#3:2}", domain.RangeRule{Number: 3, Range: 2}},
		{"Between one and two? {#1..2}", domain.HighLowRule{Low: 1, High: 2}},
	}
	for _, tc := range cases {
		q, err := Parse(tc.raw)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.raw, err)
		}
		key, ok := q.Key.(domain.NumericalKey)
		if !ok || key.Rule != tc.want {
			t.Fatalf("%q: got %#v, want %#v", tc.raw, q.Key, tc.want)
		}
	}
}

func TestParseNumericalMultiple(t *testing.T) {
	q, err := Parse("When was Ulysses S. Grant born? {#=1822:0 =%50%1822:2}")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	rule, ok := q.Key.(domain.NumericalKey).Rule.(domain.MultipleRule)
	if !ok || len(rule.Alternatives) != 2 {
		t.Fatalf("unexpected rule %#v", q.Key)
	}
	if rule.Alternatives[1].Weight != 50 || !rule.Alternatives[1].IsCorrect {
		t.Fatalf("unexpected alternative %+v", rule.Alternatives[1])
	}
	if !grading.Evaluate(q, domain.TextValue("1822")) {
		t.Fatalf("1822 should be accepted")
	}
}

func TestParseMissingWordAndEscapes(t *testing.T) {
	q, err := Parse(`// comment line
Mahatma Gandhi's birthday is an Indian holiday \{really\} on {~15th =2nd ~3rd} of October.`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := "Mahatma Gandhi's birthday is an Indian holiday {really} on _____ of October."
	if q.Text != want {
		t.Fatalf("got text %q, want %q", q.Text, want)
	}
}

func TestParseRejectsUngradable(t *testing.T) {
	if _, err := Parse("Write an essay. {}"); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected unsupported for essay, got %v", err)
	}
	if _, err := Parse("Match. {=a -> 1 =b -> 2}"); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected unsupported for matching, got %v", err)
	}
	if _, err := Parse("Just a description."); !errors.Is(err, ErrNoAnswerBlock) {
		t.Fatalf("expected missing block, got %v", err)
	}
	if _, err := Parse("Bad number {#abc}"); err == nil {
		t.Fatalf("expected numeric parse error")
	}
}

func TestSplitQuestions(t *testing.T) {
	doc := "// header\n\nQ1 {T}\n\n\nQ2\n{=a ~b}\n\n// trailing comment\n"
	qs := SplitQuestions(doc)
	if len(qs) != 2 || qs[1] != "Q2\n{=a ~b}" {
		t.Fatalf("unexpected split %q", qs)
	}
}
