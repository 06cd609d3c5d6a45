// Package serialization defines the codec boundary for message bodies.
//
// Bodies cross the wire as UTF-8 encoded JSON with no envelope versioning.
// A Codec is parameterized per message type; JSONCodec is the default.
package serialization

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Codec encodes and decodes message bodies of a single type.
type Codec[T any] interface {
	// Encode serializes v to a byte sequence.
	Encode(v T) ([]byte, error)

	// Decode deserializes data into a value of T.
	Decode(data []byte) (T, error)
}

// JSONCodec is the default codec.
type JSONCodec[T any] struct{}

// Encode implements Codec.
func (JSONCodec[T]) Encode(v T) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, &SerializationError{Op: "encode", Err: err}
	}
	return data, nil
}

// Decode implements Codec.
func (JSONCodec[T]) Decode(data []byte) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return v, &SerializationError{Op: "decode", Err: err}
	}
	return v, nil
}

// SerializationError reports a body that could not be encoded or decoded.
// It is never retried; it surfaces immediately to the function invoker.
type SerializationError struct {
	Op  string // encode or decode
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialization: %s failed: %v", e.Op, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// IsSerializationError reports whether err is a SerializationError.
func IsSerializationError(err error) bool {
	var serErr *SerializationError
	return errors.As(err, &serErr)
}
