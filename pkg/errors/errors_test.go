package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationErrorIs(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"unsupported schema", NewUnsupportedSchema(2, 1)},
		{"missing field", NewMissingField("source")},
		{"missing table", NewMissingTable("parts")},
		{"schema mismatch", NewSchemaMismatch("colors", []string{"id"}, []string{"id", "extra"})},
		{"malformed table", NewMalformedTable("parts", 7, "row length mismatch")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, errors.Is(tc.err, ErrValidation))
			assert.True(t, IsValidation(tc.err))
			assert.False(t, IsCancelled(tc.err))
		})
	}
}

func TestMalformedTableNamesRow(t *testing.T) {
	err := NewMalformedTable("parts", 12, "row has 3 values, expected 4")
	assert.Contains(t, err.Error(), "parts")
	assert.Contains(t, err.Error(), "row 12")
}

func TestNetworkError(t *testing.T) {
	err := NewNetworkError("https://example.com/catalog.gz", 503, nil)
	assert.Contains(t, err.Error(), "503")
	assert.True(t, IsNetwork(err))

	wrapped := fmt.Errorf("loading: %w", err)
	var ne *NetworkError
	require.True(t, errors.As(wrapped, &ne))
	assert.Equal(t, 503, ne.StatusCode)
}

func TestParseErrorPreservesCause(t *testing.T) {
	cause := errors.New("unexpected end of JSON input")
	err := WrapParse("catalog.lcx.json.gz", cause)

	assert.Contains(t, err.Error(), cause.Error())
	assert.True(t, errors.Is(err, cause))
	assert.True(t, IsParse(err))
}

func TestWrapParseNil(t *testing.T) {
	assert.NoError(t, WrapParse("x", nil))
	assert.NoError(t, WrapStore("write", "parts", nil))
}

func TestCancelled(t *testing.T) {
	err := Cancelled(context.Canceled)
	assert.True(t, IsCancelled(err))
	assert.True(t, IsCancelled(ErrCancelled))
	assert.False(t, IsCancelled(errors.New("other")))
}

func TestStoreBlocked(t *testing.T) {
	open := WrapStore("open", "", errors.New("lock held"))
	write := WrapStore("write", "parts", errors.New("disk full"))

	assert.True(t, IsStoreBlocked(open))
	assert.False(t, IsStoreBlocked(write))
}
