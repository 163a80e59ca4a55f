// Package grading decides whether a submitted answer is correct for a question.
package grading

import (
	"math"
	"strconv"
	"strings"

	"classroom-quiz/internal/domain"
)

// Evaluate reports whether value is a correct answer to q. It is total: questions without
// an answer key and values of the wrong shape are simply incorrect.
func Evaluate(q domain.Question, value domain.Value) bool {
	if q.Key == nil {
		return false
	}
	return q.Key.Accept(evaluator{value: value})
}

type evaluator struct {
	value domain.Value
}

func (e evaluator) VisitTrueFalse(k domain.TrueFalseKey) bool {
	b, ok := e.value.Bool()
	return ok && b == k.IsTrue
}

// VisitMultipleChoice is all-or-nothing: the submitted set must equal the correct set.
// Choice weights are not consulted.
func (e evaluator) VisitMultipleChoice(k domain.MultipleChoiceKey) bool {
	correct := toSet(k.CorrectTexts())
	if len(correct) == 0 {
		return false
	}
	submitted, ok := e.value.Choices()
	if !ok {
		return false
	}
	return equalSets(toSet(submitted), correct)
}

func (e evaluator) VisitNumerical(k domain.NumericalKey) bool {
	x, ok := parseNumber(e.value)
	if !ok {
		return false
	}
	return matchRule(k.Rule, x)
}

func (e evaluator) VisitShortAnswer(k domain.ShortAnswerKey) bool {
	text, ok := e.value.Text()
	if !ok {
		return false
	}
	text = strings.TrimSpace(text)
	for _, accepted := range k.Accepted {
		if strings.EqualFold(text, strings.TrimSpace(accepted)) {
			return true
		}
	}
	return false
}

func matchRule(rule domain.NumericRule, x float64) bool {
	if rule == nil {
		return false
	}
	return rule.Accept(numberMatcher(x))
}

// numberMatcher checks one parsed number against the numeric rule variants.
type numberMatcher float64

func (m numberMatcher) VisitSimple(r domain.SimpleRule) bool {
	return float64(m) == r.Number
}

func (m numberMatcher) VisitRange(r domain.RangeRule) bool {
	x, tolerance := float64(m), math.Abs(r.Range)
	return r.Number-tolerance <= x && x <= r.Number+tolerance
}

func (m numberMatcher) VisitHighLow(r domain.HighLowRule) bool {
	x := float64(m)
	return r.Low <= x && x <= r.High
}

func (m numberMatcher) VisitMultiple(r domain.MultipleRule) bool {
	for _, alt := range r.Alternatives {
		if alt.IsCorrect && matchRule(alt.Rule, float64(m)) {
			return true
		}
	}
	return false
}

func parseNumber(v domain.Value) (float64, bool) {
	text, ok := v.Text()
	if !ok {
		return 0, false
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, false
	}
	return x, true
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}

func equalSets(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for item := range a {
		if _, ok := b[item]; !ok {
			return false
		}
	}
	return true
}
