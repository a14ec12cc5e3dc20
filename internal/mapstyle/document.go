// Package mapstyle is the map-style composition engine: style documents,
// layer groups, the bottom/top style editor, building color derivation and
// the state updaters that tie them together.
package mapstyle

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
)

// Layer is one entry of a style document's layer list.
// Only id, type, paint and layout are interpreted; every other field is
// carried through untouched. An interpreted field that was present but
// null or "" stays in the passthrough fields so it is written back as is.
type Layer struct {
	ID     string
	Type   string
	Paint  map[string]json.RawMessage
	Layout map[string]json.RawMessage

	extra map[string]json.RawMessage
}

// Document is a declarative map style (Mapbox GL style JSON).
// Documents are treated as immutable once published; editors return new
// documents that share untouched layers with their source.
type Document struct {
	Layers []Layer

	fields map[string]json.RawMessage
}

// ParseDocument decodes a style document from JSON.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse style document: %w", err)
	}
	return &doc, nil
}

// ID returns the document's "id" field, or "" if absent.
func (d *Document) ID() string {
	return d.stringField("id")
}

// Name returns the document's "name" field, or "" if absent.
func (d *Document) Name() string {
	return d.stringField("name")
}

// Center returns the style's default map center as a lon/lat point.
func (d *Document) Center() (orb.Point, bool) {
	if d == nil {
		return orb.Point{}, false
	}
	raw, ok := d.fields["center"]
	if !ok {
		return orb.Point{}, false
	}
	var c []float64
	if err := json.Unmarshal(raw, &c); err != nil || len(c) != 2 {
		return orb.Point{}, false
	}
	return orb.Point{c[0], c[1]}, true
}

// Layer returns the first layer with the given id.
func (d *Document) Layer(id string) (Layer, bool) {
	if d == nil {
		return Layer{}, false
	}
	for _, l := range d.Layers {
		if l.ID == id {
			return l, true
		}
	}
	return Layer{}, false
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	data, err := json.Marshal(d)
	if err != nil {
		return d.withLayers(append([]Layer(nil), d.Layers...))
	}
	clone, err := ParseDocument(data)
	if err != nil {
		return d.withLayers(append([]Layer(nil), d.Layers...))
	}
	return clone
}

// withLayers returns a shallow copy of d with a different layer list.
func (d *Document) withLayers(layers []Layer) *Document {
	return &Document{Layers: layers, fields: d.fields}
}

func (d *Document) stringField(key string) string {
	if d == nil {
		return ""
	}
	var s string
	if raw, ok := d.fields[key]; ok {
		_ = json.Unmarshal(raw, &s)
	}
	return s
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Document) UnmarshalJSON(data []byte) error {
	fields, err := decodeFields(data)
	if err != nil {
		return err
	}
	d.Layers = nil
	if raw, ok := fields["layers"]; ok && !isNull(raw) {
		delete(fields, "layers")
		if err := json.Unmarshal(raw, &d.Layers); err != nil {
			return fmt.Errorf("layers: %w", err)
		}
	}
	d.fields = fields
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d *Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.fields)+1)
	for k, v := range d.fields {
		out[k] = v
	}
	if d.Layers != nil {
		out["layers"] = d.Layers
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *Layer) UnmarshalJSON(data []byte) error {
	fields, err := decodeFields(data)
	if err != nil {
		return err
	}
	*l = Layer{}
	if err := takeField(fields, "id", &l.ID); err != nil {
		return err
	}
	if err := takeField(fields, "type", &l.Type); err != nil {
		return err
	}
	if err := takeField(fields, "paint", &l.Paint); err != nil {
		return err
	}
	if err := takeField(fields, "layout", &l.Layout); err != nil {
		return err
	}
	normalize(l.Paint)
	normalize(l.Layout)
	if len(fields) > 0 {
		l.extra = fields
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (l Layer) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(l.extra)+4)
	for k, v := range l.extra {
		out[k] = v
	}
	if l.ID != "" {
		out["id"] = l.ID
	}
	if l.Type != "" {
		out["type"] = l.Type
	}
	if l.Paint != nil {
		out["paint"] = l.Paint
	}
	if l.Layout != nil {
		out["layout"] = l.Layout
	}
	return json.Marshal(out)
}

// PaintString returns a paint property when it is a plain string.
// Expressions and other JSON values report false.
func (l Layer) PaintString(key string) (string, bool) {
	raw, ok := l.Paint[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// Visibility returns the layout visibility, "visible" when unset.
func (l Layer) Visibility() string {
	var v string
	if raw, ok := l.Layout["visibility"]; ok {
		_ = json.Unmarshal(raw, &v)
	}
	if v == "" {
		return VisibilityVisible
	}
	return v
}

// Layout visibility values.
const (
	VisibilityVisible = "visible"
	VisibilityNone    = "none"
)

// withVisibility returns a copy of l with layout.visibility set. The layout
// map is copied; paint and the passthrough fields stay shared.
func (l Layer) withVisibility(v string) Layer {
	if l.Visibility() == v {
		return l
	}
	layout := make(map[string]json.RawMessage, len(l.Layout)+1)
	for k, val := range l.Layout {
		layout[k] = val
	}
	raw, _ := json.Marshal(v)
	layout["visibility"] = raw
	l.Layout = layout
	return l
}

// takeField decodes an interpreted field and removes it from fields. Null
// and "" values are left in place.
func takeField(fields map[string]json.RawMessage, key string, dst any) error {
	raw, ok := fields[key]
	if !ok || isNull(raw) || bytes.Equal(raw, []byte(`""`)) {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("layer %s: %w", key, err)
	}
	delete(fields, key)
	return nil
}

// decodeFields splits a JSON object into normalized raw values.
func decodeFields(data []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	normalize(fields)
	return fields, nil
}

// normalize rewrites raw values into the form encoding/json emits for them
// (compact, HTML-escaped) so documents survive encode/decode unchanged.
func normalize(fields map[string]json.RawMessage) {
	for k, raw := range fields {
		var compact, escaped bytes.Buffer
		if err := json.Compact(&compact, raw); err != nil {
			continue
		}
		json.HTMLEscape(&escaped, compact.Bytes())
		fields[k] = escaped.Bytes()
	}
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
