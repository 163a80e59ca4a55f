// Package gift parses single quiz questions written in the GIFT markup
// (true/false, multiple choice, short answer and numerical forms).
package gift

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"classroom-quiz/internal/domain"
)

var (
	// ErrNoAnswerBlock is returned for text without a {...} answer block.
	ErrNoAnswerBlock = errors.New("gift: missing answer block")
	// ErrUnsupported is returned for GIFT forms the session engine cannot grade
	// (essay, matching, description).
	ErrUnsupported = errors.New("gift: unsupported question format")
)

// Parse turns one raw GIFT question into a domain.Question. The ID is left empty;
// it is assigned when the quiz is launched.
func Parse(raw string) (domain.Question, error) {
	src := stripComments(raw)
	title, src := splitTitle(src)
	src = stripFormat(src)

	open, close, ok := findBlock(src)
	if !ok {
		return domain.Question{}, ErrNoAnswerBlock
	}
	body := strings.TrimSpace(src[open+1 : close])
	before := strings.TrimSpace(src[:open])
	after := strings.TrimSpace(src[close+1:])

	text := before
	if after != "" {
		text = before + " _____ " + after
	}

	key, err := parseKey(body)
	if err != nil {
		return domain.Question{}, fmt.Errorf("parse %q: %w", shorten(raw), err)
	}
	return domain.Question{
		Title: unescape(title),
		Text:  unescape(strings.TrimSpace(text)),
		Key:   key,
		Raw:   raw,
	}, nil
}

func parseKey(body string) (domain.AnswerKey, error) {
	if body == "" {
		return nil, ErrUnsupported
	}
	if strings.HasPrefix(body, "#") {
		rule, err := parseNumerical(body[1:])
		if err != nil {
			return nil, err
		}
		return domain.NumericalKey{Rule: rule}, nil
	}
	if isTrueFalse(body) {
		head, _ := splitUnescaped(body, '#')
		switch strings.ToUpper(strings.TrimSpace(head)) {
		case "T", "TRUE":
			return domain.TrueFalseKey{IsTrue: true}, nil
		default:
			return domain.TrueFalseKey{IsTrue: false}, nil
		}
	}
	if strings.Contains(body, "->") {
		return nil, ErrUnsupported
	}

	entries := splitEntries(body)
	if len(entries) == 0 {
		return nil, ErrUnsupported
	}
	hasWrong := false
	for _, e := range entries {
		if e.prefix == '~' {
			hasWrong = true
			break
		}
	}
	if !hasWrong {
		accepted := make([]string, 0, len(entries))
		for _, e := range entries {
			answer, _, _ := entryParts(e.text)
			accepted = append(accepted, answer)
		}
		return domain.ShortAnswerKey{Accepted: accepted}, nil
	}

	choices := make([]domain.Choice, 0, len(entries))
	for _, e := range entries {
		answer, weight, hasWeight := entryParts(e.text)
		correct := e.prefix == '='
		if hasWeight && weight > 0 {
			correct = true
		}
		choices = append(choices, domain.Choice{Text: answer, IsCorrect: correct, Weight: weight})
	}
	return domain.MultipleChoiceKey{Choices: choices}, nil
}

func parseNumerical(body string) (domain.NumericRule, error) {
	body = strings.TrimSpace(body)
	if !strings.HasPrefix(body, "=") && !strings.HasPrefix(body, "~") {
		spec, _ := splitUnescaped(body, '#')
		return parseNumericSpec(spec)
	}

	var alternatives []domain.NumericAlternative
	for _, e := range splitEntries(body) {
		spec, weight, _ := entryParts(e.text)
		rule, err := parseNumericSpec(spec)
		if err != nil {
			return nil, err
		}
		alternatives = append(alternatives, domain.NumericAlternative{
			Rule:      rule,
			IsCorrect: e.prefix == '=',
			Weight:    weight,
		})
	}
	if len(alternatives) == 0 {
		return nil, ErrUnsupported
	}
	return domain.MultipleRule{Alternatives: alternatives}, nil
}

// parseNumericSpec reads "n", "n:tolerance" or "low..high".
func parseNumericSpec(spec string) (domain.NumericRule, error) {
	spec = strings.TrimSpace(spec)
	if low, high, ok := strings.Cut(spec, ".."); ok {
		lo, err := parseFloat(low)
		if err != nil {
			return nil, err
		}
		hi, err := parseFloat(high)
		if err != nil {
			return nil, err
		}
		return domain.HighLowRule{Low: lo, High: hi}, nil
	}
	if number, tolerance, ok := strings.Cut(spec, ":"); ok {
		n, err := parseFloat(number)
		if err != nil {
			return nil, err
		}
		r, err := parseFloat(tolerance)
		if err != nil {
			return nil, err
		}
		return domain.RangeRule{Number: n, Range: r}, nil
	}
	n, err := parseFloat(spec)
	if err != nil {
		return nil, err
	}
	return domain.SimpleRule{Number: n}, nil
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("gift: invalid number %q", strings.TrimSpace(s))
	}
	return f, nil
}

func isTrueFalse(body string) bool {
	head, _ := splitUnescaped(body, '#')
	switch strings.ToUpper(strings.TrimSpace(head)) {
	case "T", "F", "TRUE", "FALSE":
		return true
	}
	return false
}

type entry struct {
	prefix rune
	text   string
}

// splitEntries cuts an answer block at every unescaped '=' or '~'.
func splitEntries(body string) []entry {
	var (
		out     []entry
		current *entry
		b       strings.Builder
		escaped bool
	)
	flush := func() {
		if current != nil {
			current.text = b.String()
			out = append(out, *current)
		}
		b.Reset()
	}
	for _, r := range body {
		if escaped {
			b.WriteRune('\\')
			b.WriteRune(r)
			escaped = false
			continue
		}
		switch r {
		case '\\':
			escaped = true
		case '=', '~':
			flush()
			current = &entry{prefix: r}
		default:
			b.WriteRune(r)
		}
	}
	flush()
	return out
}

// entryParts strips the optional %weight% prefix and #feedback suffix of an entry.
func entryParts(text string) (answer string, weight float64, hasWeight bool) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "%") {
		if end := strings.Index(text[1:], "%"); end >= 0 {
			if w, err := strconv.ParseFloat(text[1:end+1], 64); err == nil {
				weight, hasWeight = w, true
			}
			text = text[end+2:]
		}
	}
	answer, _ = splitUnescaped(text, '#')
	return unescape(strings.TrimSpace(answer)), weight, hasWeight
}

func splitUnescaped(s string, sep byte) (string, string) {
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' {
			i++
			continue
		}
		if s[i] == sep {
			return s[:i], s[i+1:]
		}
	}
	return s, ""
}

func findBlock(s string) (int, int, bool) {
	open := -1
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '{':
			if open < 0 {
				open = i
			}
		case '}':
			if open >= 0 {
				return open, i, true
			}
		}
	}
	return 0, 0, false
}

func splitTitle(s string) (string, string) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "::") {
		return "", s
	}
	end := strings.Index(s[2:], "::")
	if end < 0 {
		return "", s
	}
	return strings.TrimSpace(s[2 : end+2]), strings.TrimSpace(s[end+4:])
}

func stripFormat(s string) string {
	for _, format := range []string{"[html]", "[markdown]", "[plain]", "[moodle]"} {
		if strings.HasPrefix(s, format) {
			return strings.TrimSpace(s[len(format):])
		}
	}
	return s
}

func stripComments(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "//") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

var unescaper = strings.NewReplacer(`\{`, "{", `\}`, "}", `\=`, "=", `\~`, "~", `\#`, "#", `\:`, ":", `\\`, `\`, `\n`, "\n")

func unescape(s string) string {
	return unescaper.Replace(s)
}

func shorten(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 40 {
		return s[:40] + "..."
	}
	return s
}

// SplitQuestions cuts a GIFT document into raw questions separated by blank lines.
func SplitQuestions(doc string) []string {
	var (
		out     []string
		current []string
	)
	flush := func() {
		q := strings.TrimSpace(strings.Join(current, "\n"))
		if q != "" && strings.TrimSpace(stripComments(q)) != "" {
			out = append(out, q)
		}
		current = current[:0]
	}
	for _, line := range strings.Split(strings.ReplaceAll(doc, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()
	return out
}
