package codec

import (
	"encoding/json"
	"fmt"
)

// JSON is a Codec using encoding/json. Useful for plain struct messages and
// for wiring tests without generated protobuf types.
type JSON[T any] struct{}

// NewJSON creates a JSON codec for T.
func NewJSON[T any]() JSON[T] {
	return JSON[T]{}
}

func (JSON[T]) Encode(msg T) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}
	return data, nil
}

func (JSON[T]) Decode(data []byte) (T, error) {
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		var zero T
		return zero, fmt.Errorf("failed to decode message: %w", err)
	}
	return out, nil
}
