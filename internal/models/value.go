package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

const (
	// SentinelDownRaw is the marker a shift snapshot carries for an unreachable component.
	SentinelDownRaw = "down"
	// SentinelDown is the marker stored in daily aggregates and shown in reports.
	SentinelDown = "Down"
	// NotAvailable is the placeholder for a component with no reading.
	NotAvailable = "Not Available"
)

// ValueKind discriminates the shapes a usage reading can take.
type ValueKind uint8

const (
	KindAbsent ValueKind = iota
	KindNumber
	KindText
)

// Value is a single usage reading: a number, a text marker, or nothing.
type Value struct {
	kind ValueKind
	num  float64
	text string
}

// Number wraps a numeric reading.
func Number(v float64) Value {
	return Value{kind: KindNumber, num: v}
}

// Text wraps a textual reading such as a sentinel or placeholder.
func Text(s string) Value {
	return Value{kind: KindText, text: s}
}

// Kind reports the shape of the value.
func (v Value) Kind() ValueKind { return v.kind }

// IsAbsent is true for the zero Value.
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// IsNumber is true for numeric readings.
func (v Value) IsNumber() bool { return v.kind == KindNumber }

// IsText is true for textual readings.
func (v Value) IsText() bool { return v.kind == KindText }

// Float returns the numeric reading, if any.
func (v Value) Float() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// TextValue returns the textual reading, if any.
func (v Value) TextValue() (string, bool) {
	return v.text, v.kind == KindText
}

// Is reports whether v is the given text marker.
func (v Value) Is(marker string) bool {
	return v.kind == KindText && v.text == marker
}

// Equal reports whether both values have the same kind and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num == o.num
	case KindText:
		return v.text == o.text
	default:
		return true
	}
}

// String renders the value for display.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindText:
		return v.text
	default:
		return ""
	}
}

// MarshalJSON encodes numbers as JSON numbers, text as strings and absent values as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		return []byte(strconv.FormatFloat(v.num, 'f', -1, 64)), nil
	case KindText:
		return json.Marshal(v.text)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts numbers, strings, booleans (kept as text) and null.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty value")
	}
	switch data[0] {
	case 'n':
		*v = Value{}
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Text(s)
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Text(strconv.FormatBool(b))
		return nil
	case '{', '[':
		return fmt.Errorf("unsupported usage value %s", data)
	default:
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return fmt.Errorf("parse usage value: %w", err)
		}
		*v = Number(f)
		return nil
	}
}
