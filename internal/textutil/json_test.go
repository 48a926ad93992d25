package textutil

import (
	"encoding/json"
	"testing"
)

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "bare object", input: `  {"a":1}  `, want: `{"a":1}`},
		{name: "json fence", input: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "plain fence with preamble", input: "Here you go:\n```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "fence inside value kept", input: "{\"a\":\"```x```\"}", want: "{\"a\":\"```x```\"}"},
		{name: "no fence", input: "not json", want: "not json"},
		{name: "empty", input: "   ", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripCodeFences(tt.input); got != tt.want {
				t.Errorf("StripCodeFences(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "trailing comma in object", input: `{"a": 1, "b": [1, 2,],}`},
		{name: "raw newline in string", input: "{\"a\": \"line one\nline two\"}"},
		{name: "raw tab in string", input: "{\"a\": \"x\ty\"}"},
		{name: "curly quotes", input: "{“a”: 1}"},
		{name: "preamble", input: `Sure! {"a": 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := SanitizeJSON(tt.input)
			var v map[string]any
			if err := json.Unmarshal([]byte(out), &v); err != nil {
				t.Errorf("SanitizeJSON(%q) = %q, still invalid: %v", tt.input, out, err)
			}
		})
	}
}

func TestSanitizeJSON_KeepsCommaInsideString(t *testing.T) {
	in := `{"a": "x, }"}`
	if got := SanitizeJSON(in); got != in {
		t.Errorf("SanitizeJSON(%q) = %q, want unchanged", in, got)
	}
}
