package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindJSONCandidates(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "simple",
			input: `prefix {"key": "value"} suffix`,
			want:  []string{`{"key": "value"}`},
		},
		{
			name:  "nested",
			input: `start {"a": {"b": "c"}} end`,
			want:  []string{`{"a": {"b": "c"}}`},
		},
		{
			name:  "multiple",
			input: `obj1 {"id": 1} obj2 {"id": 2}`,
			want:  []string{`{"id": 1}`, `{"id": 2}`},
		},
		{
			name:  "string_with_braces",
			input: `{"notes": "brace } inside"}`,
			want:  []string{`{"notes": "brace } inside"}`},
		},
		{
			name:  "escaped_quote",
			input: `{"notes": "quote \" inside"}`,
			want:  []string{`{"notes": "quote \" inside"}`},
		},
		{
			name:  "incomplete",
			input: `prefix { incomplete`,
			want:  nil,
		},
		{
			name:  "stray_close_then_object",
			input: `} { valid }`,
			want:  []string{`{ valid }`},
		},
		{
			name:  "empty_object",
			input: `{}`,
			want:  []string{`{}`},
		},
		{
			name:  "none",
			input: `no json here`,
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, findJSONCandidates(tt.input))
		})
	}
}
