package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// UsageMap maps component names to readings and remembers insertion order.
// The zero value is an empty map ready for use.
type UsageMap struct {
	keys   []string
	values map[string]Value
}

// NewUsageMap builds a map from alternating component/value pairs in order.
func NewUsageMap(pairs ...any) UsageMap {
	var m UsageMap
	for i := 0; i+1 < len(pairs); i += 2 {
		name, _ := pairs[i].(string)
		switch v := pairs[i+1].(type) {
		case Value:
			m.Set(name, v)
		case string:
			m.Set(name, Text(v))
		case int:
			m.Set(name, Number(float64(v)))
		case float64:
			m.Set(name, Number(v))
		}
	}
	return m
}

// Len returns the number of components.
func (m UsageMap) Len() int { return len(m.keys) }

// Keys returns component names in insertion order.
func (m UsageMap) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Get returns the reading for a component, absent when missing.
func (m UsageMap) Get(name string) Value {
	return m.values[name]
}

// Lookup returns the reading and whether the component is present.
func (m UsageMap) Lookup(name string) (Value, bool) {
	v, ok := m.values[name]
	return v, ok
}

// Has reports whether the component is present.
func (m UsageMap) Has(name string) bool {
	_, ok := m.values[name]
	return ok
}

// Set stores a reading; new components are appended to the order.
func (m *UsageMap) Set(name string, v Value) {
	if m.values == nil {
		m.values = make(map[string]Value)
	}
	if _, ok := m.values[name]; !ok {
		m.keys = append(m.keys, name)
	}
	m.values[name] = v
}

// Equal compares content and order.
func (m UsageMap) Equal(o UsageMap) bool {
	if len(m.keys) != len(o.keys) {
		return false
	}
	for i, k := range m.keys {
		if o.keys[i] != k || !m.values[k].Equal(o.values[k]) {
			return false
		}
	}
	return true
}

// MarshalJSON writes a JSON object in insertion order.
func (m UsageMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := m.values[k].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object keeping key order. A null decodes to an empty map.
func (m *UsageMap) UnmarshalJSON(data []byte) error {
	*m = UsageMap{}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("usage map must be a JSON object")
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("usage map key must be a string")
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		var v Value
		if err := v.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("component %q: %w", key, err)
		}
		m.Set(key, v)
	}
	_, err = dec.Token()
	return err
}
