package domain

// QuestionKind names the variant of a question's answer key.
type QuestionKind string

const (
	KindTrueFalse      QuestionKind = "true-false"
	KindMultipleChoice QuestionKind = "multiple-choice"
	KindNumerical      QuestionKind = "numerical"
	KindShortAnswer    QuestionKind = "short-answer"
)

// Question is one parsed quiz question. ID is the 1-based position assigned at launch.
type Question struct {
	ID    string
	Title string
	Text  string
	Key   AnswerKey
	Raw   string
}

// Kind reports the answer-key variant, or "" when the question carries none.
func (q Question) Kind() QuestionKind {
	if q.Key == nil {
		return ""
	}
	return q.Key.Kind()
}

// QuestionView is what participants receive. It never includes the answer key.
type QuestionView struct {
	ID      string       `json:"id"`
	Index   int          `json:"index"`
	Kind    QuestionKind `json:"kind"`
	Title   string       `json:"title,omitempty"`
	Text    string       `json:"text"`
	Choices []string     `json:"choices,omitempty"`
}

// View renders q at position index for delivery to clients.
func (q Question) View(index int) QuestionView {
	view := QuestionView{
		ID:    q.ID,
		Index: index,
		Kind:  q.Kind(),
		Title: q.Title,
		Text:  q.Text,
	}
	if mc, ok := q.Key.(MultipleChoiceKey); ok {
		for _, choice := range mc.Choices {
			view.Choices = append(view.Choices, choice.Text)
		}
	}
	return view
}

// AnswerKey is the correctness descriptor of a question. The set of variants is closed:
// every variant dispatches to its own KeyVisitor method, so adding a variant means adding
// a visitor method and every evaluator stops compiling until it handles the new case.
type AnswerKey interface {
	Kind() QuestionKind
	Accept(v KeyVisitor) bool
}

// KeyVisitor evaluates one answer key variant.
type KeyVisitor interface {
	VisitTrueFalse(TrueFalseKey) bool
	VisitMultipleChoice(MultipleChoiceKey) bool
	VisitNumerical(NumericalKey) bool
	VisitShortAnswer(ShortAnswerKey) bool
}

type TrueFalseKey struct {
	IsTrue bool
}

func (TrueFalseKey) Kind() QuestionKind         { return KindTrueFalse }
func (k TrueFalseKey) Accept(v KeyVisitor) bool { return v.VisitTrueFalse(k) }

// Choice is one option of a multiple-choice question. Weight is the authored percentage
// credit; it is kept for display and never used for grading.
type Choice struct {
	Text      string
	IsCorrect bool
	Weight    float64
}

type MultipleChoiceKey struct {
	Choices []Choice
}

func (MultipleChoiceKey) Kind() QuestionKind         { return KindMultipleChoice }
func (k MultipleChoiceKey) Accept(v KeyVisitor) bool { return v.VisitMultipleChoice(k) }

// CorrectTexts returns the texts of all choices flagged correct.
func (k MultipleChoiceKey) CorrectTexts() []string {
	var out []string
	for _, choice := range k.Choices {
		if choice.IsCorrect {
			out = append(out, choice.Text)
		}
	}
	return out
}

type NumericalKey struct {
	Rule NumericRule
}

func (NumericalKey) Kind() QuestionKind         { return KindNumerical }
func (k NumericalKey) Accept(v KeyVisitor) bool { return v.VisitNumerical(k) }

type ShortAnswerKey struct {
	Accepted []string
}

func (ShortAnswerKey) Kind() QuestionKind         { return KindShortAnswer }
func (k ShortAnswerKey) Accept(v KeyVisitor) bool { return v.VisitShortAnswer(k) }

// NumericRule is one of SimpleRule, RangeRule, HighLowRule or MultipleRule. Like AnswerKey
// the set is closed through NumericVisitor.
type NumericRule interface {
	Accept(v NumericVisitor) bool
}

// NumericVisitor matches a number against one numeric rule variant.
type NumericVisitor interface {
	VisitSimple(SimpleRule) bool
	VisitRange(RangeRule) bool
	VisitHighLow(HighLowRule) bool
	VisitMultiple(MultipleRule) bool
}

// SimpleRule accepts exactly Number.
type SimpleRule struct {
	Number float64
}

// RangeRule accepts Number ± Range, bounds included.
type RangeRule struct {
	Number float64
	Range  float64
}

// HighLowRule accepts Low..High, bounds included.
type HighLowRule struct {
	Low  float64
	High float64
}

// MultipleRule accepts a value matched by any alternative flagged correct.
type MultipleRule struct {
	Alternatives []NumericAlternative
}

type NumericAlternative struct {
	Rule      NumericRule
	IsCorrect bool
	Weight    float64
}

func (r SimpleRule) Accept(v NumericVisitor) bool   { return v.VisitSimple(r) }
func (r RangeRule) Accept(v NumericVisitor) bool    { return v.VisitRange(r) }
func (r HighLowRule) Accept(v NumericVisitor) bool  { return v.VisitHighLow(r) }
func (r MultipleRule) Accept(v NumericVisitor) bool { return v.VisitMultiple(r) }
