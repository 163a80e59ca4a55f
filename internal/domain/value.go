package domain

import (
	"bytes"
	"encoding/json"
)

type valueKind uint8

const (
	valueInvalid valueKind = iota
	valueBool
	valueText
	valueChoices
)

// Value is an answer as submitted by a client: a boolean, a text (numbers arrive as text)
// or a list of choice texts. A payload of any other shape decodes to the zero Value,
// which no answer key accepts.
type Value struct {
	kind    valueKind
	boolean bool
	text    string
	choices []string
}

func BoolValue(b bool) Value {
	return Value{kind: valueBool, boolean: b}
}

func TextValue(s string) Value {
	return Value{kind: valueText, text: s}
}

func ChoicesValue(choices ...string) Value {
	return Value{kind: valueChoices, choices: append([]string(nil), choices...)}
}

// IsZero reports whether v holds no usable answer.
func (v Value) IsZero() bool {
	return v.kind == valueInvalid
}

func (v Value) Bool() (bool, bool) {
	return v.boolean, v.kind == valueBool
}

func (v Value) Text() (string, bool) {
	return v.text, v.kind == valueText
}

// Choices returns the submitted choice texts. A single text counts as one choice.
func (v Value) Choices() ([]string, bool) {
	switch v.kind {
	case valueChoices:
		return append([]string(nil), v.choices...), true
	case valueText:
		return []string{v.text}, true
	default:
		return nil, false
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case valueBool:
		return json.Marshal(v.boolean)
	case valueText:
		return json.Marshal(v.text)
	case valueChoices:
		if v.choices == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.choices)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON never fails: unexpected shapes leave the zero Value.
func (v *Value) UnmarshalJSON(data []byte) error {
	*v = Value{}

	var decoded any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&decoded); err != nil {
		return nil
	}

	switch t := decoded.(type) {
	case bool:
		*v = BoolValue(t)
	case string:
		*v = TextValue(t)
	case json.Number:
		*v = TextValue(t.String())
	case []any:
		choices := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil
			}
			choices = append(choices, s)
		}
		*v = ChoicesValue(choices...)
	}
	return nil
}
