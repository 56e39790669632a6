package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/EntityRisk-Intelligence/internal/domain/search"
)

func TestCanonicalizeNumbers(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "exponent notation expanded",
			input: `{"score":1e+21}`,
			want:  `{"score":1000000000000000000000}`,
		},
		{
			name:  "trailing zeros stripped",
			input: `{"relevance":0.700,"position":3}`,
			want:  `{"position":3,"relevance":0.7}`,
		},
		{
			name:  "nested arrays and objects",
			input: `{"a":[1.50,{"b":2e-3}],"c":"text"}`,
			want:  `{"a":[1.5,{"b":0.002}],"c":"text"}`,
		},
		{
			name:  "non numeric values untouched",
			input: `{"s":"1e+21","b":true,"n":null}`,
			want:  `{"b":true,"n":null,"s":"1e+21"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := canonicalizeNumbers([]byte(tt.input))
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestEncodeDecodeRecord(t *testing.T) {
	rec := search.NewRecord("Acme Corp fraud", []search.Result{
		{Title: "headline", URL: "https://example.com/a", Snippet: "text", Position: 1, Query: "Acme Corp fraud"},
	}, map[string]interface{}{"result_count": 10})

	data, err := encodeRecord(&rec)
	require.NoError(t, err)

	var got search.Record
	require.NoError(t, decodeRecord(data, &got))
	assert.Equal(t, rec.Query, got.Query)
	assert.Equal(t, rec.QueryHash, got.QueryHash)
	assert.Equal(t, rec.TotalResults, got.TotalResults)
	assert.Equal(t, rec.Status, got.Status)
}

func TestDecodeRecord_Invalid(t *testing.T) {
	var got search.Record
	err := decodeRecord([]byte("{not json"), &got)
	assert.Error(t, err)
}
