package codec

import (
	"testing"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type order struct {
	ID    string  `json:"id"`
	Total float64 `json:"total"`
}

func TestJSON_RoundTrip(t *testing.T) {
	c := NewJSON[order]()

	want := order{ID: "A-17", Total: 42.5}
	data, err := c.Encode(want)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	got, err := c.Decode(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestJSON_DecodeMalformed(t *testing.T) {
	c := NewJSON[order]()
	if _, err := c.Decode([]byte("{not json")); err == nil {
		t.Fatal("expected decode error for malformed payload")
	}
}

func TestProto_RoundTrip(t *testing.T) {
	c := NewProto[*wrapperspb.StringValue]()

	want := wrapperspb.String("John Doe")
	data, err := c.Encode(want)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if len(data) != proto.Size(want) {
		t.Errorf("expected %d encoded bytes, got %d", proto.Size(want), len(data))
	}

	got, err := c.Decode(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !proto.Equal(want, got) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestProto_DecodeMalformed(t *testing.T) {
	c := NewProto[*structpb.Struct]()
	// A truncated field header is invalid wire format.
	if _, err := c.Decode([]byte{0xFF}); err == nil {
		t.Fatal("expected decode error for malformed payload")
	}
}

func TestProto_DecodeAllocatesFreshMessage(t *testing.T) {
	c := NewProto[*wrapperspb.StringValue]()

	data, err := c.Encode(wrapperspb.String("first"))
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	a, err := c.Decode(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	b, err := c.Decode(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if a == b {
		t.Error("expected distinct message allocations")
	}
}
