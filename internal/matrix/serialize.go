package matrix

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrInvalidDocument is returned by ImportJSON when the text is not a JSON
// object.
var ErrInvalidDocument = errors.New("invalid matrix document")

// document fixes the key order of the persisted format.
type document struct {
	Q1 []Item `json:"1"`
	Q2 []Item `json:"2"`
	Q3 []Item `json:"3"`
	Q4 []Item `json:"4"`
}

func (d Data) document() document {
	nonNil := func(items []Item) []Item {
		if items == nil {
			return []Item{}
		}
		return items
	}
	return document{
		Q1: nonNil(d[DoFirst]),
		Q2: nonNil(d[Schedule]),
		Q3: nonNil(d[Delegate]),
		Q4: nonNil(d[Eliminate]),
	}
}

// MarshalJSON encodes d with keys "1" through "4" in order.
func (d Data) MarshalJSON() ([]byte, error) {
	return encode(d.document(), "")
}

// UnmarshalJSON decodes a persisted document with the same relaxed rules as
// Matrix.LoadData.
func (d *Data) UnmarshalJSON(b []byte) error {
	if string(bytes.TrimSpace(b)) == "null" {
		return nil
	}
	raw, err := decodeObject(b)
	if err != nil {
		return err
	}
	m := New()
	m.LoadData(raw)
	*d = m.GetData()
	return nil
}

// ExportJSON returns the matrix as an indented JSON document.
func (m *Matrix) ExportJSON() string {
	b, err := encode(m.GetData().document(), "  ")
	if err != nil {
		// Items hold only strings and integers.
		return "{}"
	}
	return string(b)
}

// ImportJSON replaces the matrix with the document in text. When text is
// not a JSON object the matrix is left untouched and an error wrapping
// ErrInvalidDocument is returned.
func (m *Matrix) ImportJSON(text string) error {
	raw, err := decodeObject([]byte(text))
	if err != nil {
		return err
	}
	m.LoadData(raw)
	return nil
}

func encode(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func decodeObject(b []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after document", ErrInvalidDocument)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: top-level value is %s", ErrInvalidDocument, kindOf(v))
	}
	return obj, nil
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "an array"
	case string:
		return "a string"
	case bool:
		return "a boolean"
	case json.Number:
		return "a number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
