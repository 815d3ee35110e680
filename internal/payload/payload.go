package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrMissingID is returned when a document has no usable "id" field.
	ErrMissingID = errors.New("payload must contain a string 'id' field")

	// ErrNotFlat is returned when a document nests objects or arrays.
	ErrNotFlat = errors.New("payload must be a flat string/number document")
)

// Document is a flat weather payload: string keys mapped to string or
// numeric values. Numbers are kept as json.Number so they round-trip
// without quoting or precision loss.
type Document map[string]any

// Parse decodes data into a Document. Values other than strings and
// numbers are rejected.
func Parse(data []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse payload: %w", err)
	}

	doc := make(Document, len(raw))
	for k, v := range raw {
		switch v.(type) {
		case string, json.Number:
			doc[k] = v
		default:
			return nil, fmt.Errorf("%w: field %q", ErrNotFlat, k)
		}
	}
	return doc, nil
}

// ParseAll decodes either a single document or a JSON array of documents.
func ParseAll(data []byte) ([]Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] != '[' {
		doc, err := Parse(trimmed)
		if err != nil {
			return nil, err
		}
		return []Document{doc}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var raws []map[string]any
	if err := dec.Decode(&raws); err != nil {
		return nil, fmt.Errorf("parse payload collection: %w", err)
	}

	docs := make([]Document, 0, len(raws))
	for _, raw := range raws {
		encoded, err := json.Marshal(raw)
		if err != nil {
			return nil, err
		}
		doc, err := Parse(encoded)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// FromFields builds a Document from raw key/value pairs, e.g. a producer's
// source file. A value whose entire text parses as a number is stored as a
// number and will be emitted unquoted; everything else stays a string.
// The pairs must include a non-empty "id".
func FromFields(fields map[string]string) (Document, error) {
	id, ok := fields["id"]
	if !ok || strings.TrimSpace(id) == "" {
		return nil, ErrMissingID
	}

	doc := make(Document, len(fields))
	for k, v := range fields {
		if k == "id" {
			doc[k] = v
			continue
		}
		if _, err := strconv.ParseFloat(v, 64); err == nil {
			doc[k] = json.Number(v)
		} else {
			doc[k] = v
		}
	}
	return doc, nil
}

// StationID extracts the required "id" field.
func (d Document) StationID() (string, error) {
	id, ok := d["id"].(string)
	if !ok || id == "" {
		return "", ErrMissingID
	}
	return id, nil
}

// Encode serializes the document as compact single-line JSON with keys in
// sorted order, so equal documents always encode identically.
func (d Document) Encode() ([]byte, error) {
	return json.Marshal(map[string]any(d))
}

// Lines renders the document as human-readable "key: value" lines, keys
// sorted. Used by the reader client's output.
func (d Document) Lines() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(d))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %v", k, d[k]))
	}
	return lines
}
