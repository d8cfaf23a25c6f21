// Package codec defines how typed messages are converted to and from the raw
// byte payloads carried by the transport.
package codec

// Codec encodes and decodes messages of type T.
type Codec[T any] interface {
	// Encode serializes msg into a byte buffer.
	Encode(msg T) ([]byte, error)

	// Decode deserializes data into a fresh message.
	Decode(data []byte) (T, error)
}
