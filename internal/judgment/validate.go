package judgment

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/drpaneas/resonance/internal/prompt"
	"github.com/drpaneas/resonance/internal/textutil"
)

// Validation failure kinds. Match them with errors.Is.
var (
	ErrMalformed  = errors.New("malformed judge output")
	ErrWrongType  = errors.New("wrong field type")
	ErrOutOfRange = errors.New("score out of range")
)

// ValidationError reports why a judge response was discarded.
type ValidationError struct {
	Kind   error
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%v: %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("%v: %s: %s", e.Kind, e.Field, e.Detail)
}

func (e *ValidationError) Unwrap() error { return e.Kind }

// Validate parses raw judge output and checks it against schema. The score
// must be an integer literal within [MinScore, MaxScore]; anything else
// rejects the whole response. Unknown keys are ignored and missing
// qualitative fields are left empty.
func Validate(raw string, schema prompt.Schema) (*Judgment, error) {
	obj, err := parseObject(raw)
	if err != nil {
		return nil, err
	}
	return fromObject(obj, schema)
}

func parseObject(raw string) (map[string]json.RawMessage, error) {
	text := textutil.StripCodeFences(raw)
	if text == "" {
		return nil, &ValidationError{Kind: ErrMalformed, Detail: "empty response"}
	}
	if text[0] == '[' {
		return nil, &ValidationError{Kind: ErrMalformed, Detail: "response is a JSON array, want object"}
	}
	obj, err := decodeFirst(text)
	if err != nil {
		if wrappedInArray(text) {
			return nil, &ValidationError{Kind: ErrMalformed, Detail: "response is a JSON array, want object"}
		}
		obj, err = decodeFirst(textutil.SanitizeJSON(text))
		if err != nil {
			return nil, &ValidationError{
				Kind:   ErrMalformed,
				Detail: fmt.Sprintf("%v (first 200 bytes: %s)", err, textutil.Truncate(raw, 200, "...")),
			}
		}
	}
	return obj, nil
}

// wrappedInArray reports whether the first object in text opens inside an
// array, as in "Result: [{...}]".
func wrappedInArray(text string) bool {
	i := strings.IndexByte(text, '{')
	if i < 0 {
		return false
	}
	return strings.HasSuffix(strings.TrimSpace(text[:i]), "[")
}

// decodeFirst reads the first JSON value and ignores trailing commentary.
func decodeFirst(text string) (map[string]json.RawMessage, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	var obj map[string]json.RawMessage
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errors.New("response is not a JSON object")
	}
	return obj, nil
}

func fromObject(obj map[string]json.RawMessage, schema prompt.Schema) (*Judgment, error) {
	score, err := parseScore(obj[schema.ScoreField], schema.ScoreField)
	if err != nil {
		return nil, err
	}
	j := &Judgment{
		ScoreField: schema.ScoreField,
		Score:      score,
		Fields:     make([]Field, 0, len(schema.Fields)),
	}
	for _, spec := range schema.Fields {
		f := Field{Name: spec.Name, Kind: spec.Kind, Theme: spec.Theme}
		switch spec.Kind {
		case prompt.KindTextList:
			f.Items, err = parseList(obj[spec.Name], spec.Name)
		default:
			f.Text, err = parseText(obj[spec.Name], spec.Name)
		}
		if err != nil {
			return nil, err
		}
		j.Fields = append(j.Fields, f)
	}
	return j, nil
}

func parseScore(raw json.RawMessage, field string) (int, error) {
	if isNull(raw) {
		return 0, &ValidationError{Kind: ErrWrongType, Field: field, Detail: "missing"}
	}
	var v any
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return 0, &ValidationError{Kind: ErrWrongType, Field: field, Detail: err.Error()}
	}
	n, ok := v.(json.Number)
	if !ok {
		return 0, &ValidationError{Kind: ErrWrongType, Field: field, Detail: fmt.Sprintf("got %T, want integer", v)}
	}
	score, err := strconv.ParseInt(n.String(), 10, 64)
	if errors.Is(err, strconv.ErrRange) {
		return 0, &ValidationError{Kind: ErrOutOfRange, Field: field, Detail: fmt.Sprintf("%s not in [%d, %d]", n, MinScore, MaxScore)}
	}
	if err != nil {
		return 0, &ValidationError{Kind: ErrWrongType, Field: field, Detail: fmt.Sprintf("%s is not an integer", n)}
	}
	if score < MinScore || score > MaxScore {
		return 0, &ValidationError{
			Kind:   ErrOutOfRange,
			Field:  field,
			Detail: fmt.Sprintf("%d not in [%d, %d]", score, MinScore, MaxScore),
		}
	}
	return int(score), nil
}

func parseText(raw json.RawMessage, field string) (string, error) {
	if isNull(raw) {
		return "", nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", &ValidationError{Kind: ErrWrongType, Field: field, Detail: err.Error()}
	}
	s, ok := scalarText(v, raw)
	if !ok {
		return "", &ValidationError{Kind: ErrWrongType, Field: field, Detail: fmt.Sprintf("got %T, want text", v)}
	}
	return s, nil
}

func parseList(raw json.RawMessage, field string) ([]string, error) {
	if isNull(raw) {
		return []string{}, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, &ValidationError{Kind: ErrWrongType, Field: field, Detail: err.Error()}
	}
	switch t := v.(type) {
	case string:
		if strings.TrimSpace(t) == "" {
			return []string{}, nil
		}
		return []string{t}, nil
	case []any:
		var elems []json.RawMessage
		if err := json.Unmarshal(raw, &elems); err != nil {
			return nil, &ValidationError{Kind: ErrWrongType, Field: field, Detail: err.Error()}
		}
		items := make([]string, 0, len(t))
		for i, e := range t {
			s, ok := scalarText(e, elems[i])
			if !ok {
				return nil, &ValidationError{
					Kind:   ErrWrongType,
					Field:  field,
					Detail: fmt.Sprintf("element %d is %T, want text", i, e),
				}
			}
			items = append(items, s)
		}
		return items, nil
	default:
		return nil, &ValidationError{Kind: ErrWrongType, Field: field, Detail: fmt.Sprintf("got %T, want list of text", v)}
	}
}

// scalarText renders strings as-is and numbers or booleans by their JSON
// literal. Objects and arrays are rejected.
func scalarText(v any, raw json.RawMessage) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64, bool:
		return strings.TrimSpace(string(raw)), true
	default:
		return "", false
	}
}

func isNull(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null"
}
