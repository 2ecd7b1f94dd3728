package cache

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Test Cases for StableSerialize
// ============================================================================

func TestStableSerialize(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, "null"},
		{"bool", true, "true"},
		{"number", float64(1.5), "1.5"},
		{"string", "hi", `"hi"`},
		{"string escaping", `a"b`, `"a\"b"`},
		{"empty object", map[string]any{}, "{}"},
		{"empty array", []any{}, "[]"},
		{
			name: "keys sorted",
			in:   map[string]any{"b": float64(2), "a": float64(1), "c": float64(3)},
			want: `{"a":1,"b":2,"c":3}`,
		},
		{
			name: "nested keys sorted",
			in: map[string]any{
				"z": map[string]any{"beta": float64(2), "alpha": float64(1)},
				"a": []any{map[string]any{"y": nil, "x": "v"}},
			},
			want: `{"a":[{"x":"v","y":null}],"z":{"alpha":1,"beta":2}}`,
		},
		{
			name: "array order preserved",
			in:   []any{float64(3), float64(1), float64(2)},
			want: `[3,1,2]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := StableSerialize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStableSerialize_Struct(t *testing.T) {
	type profile struct {
		Name  string `json:"name"`
		Theme string `json:"theme"`
	}

	got, err := StableSerialize(profile{Name: "alice", Theme: "dark"})
	require.NoError(t, err)
	assert.Equal(t, `{"name":"alice","theme":"dark"}`, got)
}

func TestStableSerialize_OutputIsValidJSON(t *testing.T) {
	in := map[string]any{"list": []any{float64(1), "two", nil}, "ok": true}
	got, err := StableSerialize(in)
	require.NoError(t, err)

	var back any
	require.NoError(t, json.Unmarshal([]byte(got), &back))
	assert.Equal(t, in, back)
}

// ============================================================================
// Test Cases for ETag
// ============================================================================

func TestETag_Format(t *testing.T) {
	etag, err := ETag(map[string]any{"a": float64(1)})
	require.NoError(t, err)

	require.Len(t, etag, 66) // 64 hex chars plus quotes
	assert.Equal(t, byte('"'), etag[0])
	assert.Equal(t, byte('"'), etag[len(etag)-1])
}

func TestETag_KeyOrderInsensitive(t *testing.T) {
	v1 := map[string]any{
		"a": float64(1),
		"b": map[string]any{"x": "1", "y": "2"},
		"c": []any{map[string]any{"p": float64(1), "q": float64(2)}},
	}
	v2 := map[string]any{
		"c": []any{map[string]any{"q": float64(2), "p": float64(1)}},
		"b": map[string]any{"y": "2", "x": "1"},
		"a": float64(1),
	}

	e1, err := ETag(v1)
	require.NoError(t, err)
	e2, err := ETag(v2)
	require.NoError(t, err)
	assert.Equal(t, e1, e2)
}

func TestETag_DifferentDataDiffers(t *testing.T) {
	e1, err := ETag(map[string]any{"a": float64(1)})
	require.NoError(t, err)
	e2, err := ETag(map[string]any{"a": float64(2)})
	require.NoError(t, err)
	assert.NotEqual(t, e1, e2)
}

// ============================================================================
// Test Cases for ShouldReturn304
// ============================================================================

func TestShouldReturn304(t *testing.T) {
	etag, err := ETag(map[string]any{"a": float64(1)})
	require.NoError(t, err)

	tests := []struct {
		name        string
		ifNoneMatch string
		want        bool
	}{
		{"exact match", etag, true},
		{"unquoted match", etag[1 : len(etag)-1], true},
		{"absent header", "", false},
		{"stale etag", `"stale-etag"`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldReturn304(etag, tt.ifNoneMatch))
		})
	}
}

// ============================================================================
// Test Cases for BuildControl
// ============================================================================

func TestBuildControl(t *testing.T) {
	tests := []struct {
		name    string
		opts    ControlOptions
		want    string
		wantErr error
	}{
		{
			name: "default scope",
			opts: ControlOptions{MaxAge: 60},
			want: "private, max-age=60",
		},
		{
			name: "public with all directives",
			opts: ControlOptions{Scope: ScopePublic, MaxAge: 300, NoTransform: true, MustRevalidate: true},
			want: "public, max-age=300, no-transform, must-revalidate",
		},
		{
			name: "must-revalidate only",
			opts: ControlOptions{MaxAge: 30, MustRevalidate: true},
			want: "private, max-age=30, must-revalidate",
		},
		{
			name:    "zero max-age",
			opts:    ControlOptions{MaxAge: 0},
			wantErr: ErrInvalidMaxAge,
		},
		{
			name:    "negative max-age",
			opts:    ControlOptions{MaxAge: -5},
			wantErr: ErrInvalidMaxAge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildControl(tt.opts)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
