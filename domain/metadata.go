package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Metadata is an ordered key-value map attached to notifications. Each
// notification type defines its own keys; nothing here enforces a schema.
type Metadata struct {
	keys   []string
	values map[string]interface{}
}

// NewMetadata returns an empty map.
func NewMetadata() *Metadata {
	return &Metadata{values: make(map[string]interface{})}
}

// Set stores value under key, keeping the original position of existing keys.
func (m *Metadata) Set(key string, value interface{}) *Metadata {
	if m.values == nil {
		m.values = make(map[string]interface{})
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
	return m
}

// Get returns the value stored under key.
func (m *Metadata) Get(key string) (interface{}, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (m *Metadata) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}

func (m *Metadata) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Merge copies every entry of other into m, in other's order.
func (m *Metadata) Merge(other *Metadata) *Metadata {
	for _, k := range other.Keys() {
		v, _ := other.Get(k)
		m.Set(k, v)
	}
	return m
}

func (m *Metadata) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
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
		val, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts a JSON object and keeps its top-level key order.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("metadata: expected object, got %v", tok)
	}

	m.keys = nil
	m.values = make(map[string]interface{})
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("metadata: unexpected key %v", tok)
		}
		var value interface{}
		if err := dec.Decode(&value); err != nil {
			return err
		}
		m.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// ParseMetadata decodes stored metadata text. Corrupt or non-object input
// yields nil rather than an error.
func ParseMetadata(raw []byte) *Metadata {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	m := NewMetadata()
	if err := m.UnmarshalJSON(raw); err != nil {
		return nil
	}
	return m
}
