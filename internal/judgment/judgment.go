// Package judgment validates raw judge output against a role's schema and
// holds the resulting typed records.
package judgment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/drpaneas/resonance/internal/prompt"
)

// MinScore and MaxScore bound every score field, inclusive.
const (
	MinScore = 1
	MaxScore = 10
)

// Field is one qualitative value of a Judgment. Text is set for text
// fields and Items for list fields.
type Field struct {
	Name  string
	Kind  prompt.FieldKind
	Theme prompt.Theme
	Text  string
	Items []string
}

// Judgment is a validated evaluation of one (message, persona) pair.
// Fields follow the declaration order of the schema that produced it.
type Judgment struct {
	ScoreField string
	Score      int
	Fields     []Field
}

// Get returns the named field.
func (j *Judgment) Get(name string) (Field, bool) {
	for _, f := range j.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// MarshalJSON writes the judgment as a flat object keyed by field name, in
// schema order: {"resonance_score": 7, "technical_accuracy": "...", ...}.
func (j Judgment) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	key, err := json.Marshal(j.ScoreField)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(&buf, "%s:%d", key, j.Score)
	for _, f := range j.Fields {
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		var val []byte
		if f.Kind == prompt.KindTextList {
			items := f.Items
			if items == nil {
				items = []string{}
			}
			val, err = json.Marshal(items)
		} else {
			val, err = json.Marshal(f.Text)
		}
		if err != nil {
			return nil, fmt.Errorf("marshaling field %s: %w", f.Name, err)
		}
		buf.WriteByte(',')
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a stored judgment. The schema is recovered from the
// score field name, and the record is validated exactly like judge output.
func (j *Judgment) UnmarshalJSON(data []byte) error {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return fmt.Errorf("decoding judgment: %w", err)
	}
	for _, s := range prompt.Schemas() {
		if _, ok := keys[s.ScoreField]; !ok {
			continue
		}
		parsed, err := fromObject(keys, s)
		if err != nil {
			return err
		}
		*j = *parsed
		return nil
	}
	names := make([]string, 0, len(prompt.Schemas()))
	for _, s := range prompt.Schemas() {
		names = append(names, s.ScoreField)
	}
	return &ValidationError{
		Kind:   ErrWrongType,
		Field:  strings.Join(names, "|"),
		Detail: "no known score field",
	}
}
