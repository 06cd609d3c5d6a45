package serialization

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type report struct {
	Name  string         `json:"name"`
	Count int            `json:"count"`
	Tags  []string       `json:"tags,omitempty"`
	Extra map[string]any `json:"extra,omitempty"`
}

func TestJSONCodec(t *testing.T) {
	t.Run("round-trips a struct", func(t *testing.T) {
		codec := JSONCodec[report]{}
		in := report{
			Name:  "daily",
			Count: 3,
			Tags:  []string{"a", "b"},
			Extra: map[string]any{"x": float64(1)},
		}

		data, err := codec.Encode(in)
		require.NoError(t, err)

		out, err := codec.Decode(data)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})

	t.Run("round-trips a map", func(t *testing.T) {
		codec := JSONCodec[map[string]any]{}
		in := map[string]any{"x": float64(1)}

		data, err := codec.Encode(in)
		require.NoError(t, err)
		assert.JSONEq(t, `{"x": 1}`, string(data))

		out, err := codec.Decode(data)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})

	t.Run("encode failure returns SerializationError", func(t *testing.T) {
		codec := JSONCodec[chan int]{}

		_, err := codec.Encode(make(chan int))
		require.Error(t, err)
		assert.True(t, IsSerializationError(err))

		var serErr *SerializationError
		require.ErrorAs(t, err, &serErr)
		assert.Equal(t, "encode", serErr.Op)
	})

	t.Run("decode failure returns SerializationError", func(t *testing.T) {
		codec := JSONCodec[report]{}

		_, err := codec.Decode([]byte("not json"))
		require.Error(t, err)
		assert.True(t, IsSerializationError(err))

		var serErr *SerializationError
		require.ErrorAs(t, err, &serErr)
		assert.Equal(t, "decode", serErr.Op)
	})
}

func TestSerializationError(t *testing.T) {
	t.Run("unwraps the underlying error", func(t *testing.T) {
		inner := errors.New("bad byte")
		err := &SerializationError{Op: "decode", Err: inner}
		assert.ErrorIs(t, err, inner)
		assert.Contains(t, err.Error(), "decode")
	})

	t.Run("is never marked retryable", func(t *testing.T) {
		type retryable interface{ IsRetryable() bool }
		var err any = &SerializationError{Op: "encode"}
		_, ok := err.(retryable)
		assert.False(t, ok)
	})

	t.Run("IsSerializationError rejects other errors", func(t *testing.T) {
		assert.False(t, IsSerializationError(errors.New("other")))
		assert.False(t, IsSerializationError(nil))
	})
}
