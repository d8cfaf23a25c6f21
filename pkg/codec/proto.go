package codec

import (
	"fmt"

	"google.golang.org/protobuf/proto"
)

// Proto is a Codec for protobuf messages. T must be a pointer to a generated
// message type.
type Proto[T proto.Message] struct{}

// NewProto creates a protobuf codec for T.
func NewProto[T proto.Message]() Proto[T] {
	return Proto[T]{}
}

// Encode marshals msg into a buffer pre-sized to its reported encoded length.
func (Proto[T]) Encode(msg T) ([]byte, error) {
	opts := proto.MarshalOptions{}
	buf := make([]byte, 0, opts.Size(msg))
	out, err := opts.MarshalAppend(buf, msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", msg.ProtoReflect().Descriptor().FullName(), err)
	}
	return out, nil
}

// Decode unmarshals data into a freshly allocated message.
func (Proto[T]) Decode(data []byte) (T, error) {
	var zero T
	msg := zero.ProtoReflect().New().Interface().(T)
	if err := proto.Unmarshal(data, msg); err != nil {
		return zero, fmt.Errorf("failed to decode %s: %w", msg.ProtoReflect().Descriptor().FullName(), err)
	}
	return msg, nil
}
