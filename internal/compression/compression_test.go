package compression

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/golang/snappy"
)

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		name    string
		want    Algorithm
		wantErr bool
	}{
		{"", Snappy, false},
		{"snappy", Snappy, false},
		{"SNAPPY", Snappy, false},
		{"none", None, false},
		{"zstd", None, true},
	}
	for _, tt := range tests {
		got, err := ParseAlgorithm(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseAlgorithm(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseAlgorithm(%q) = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestCodec_SnappyShrinksSeriesPayload(t *testing.T) {
	codec, err := NewCodec(Snappy)
	if err != nil {
		t.Fatalf("NewCodec failed: %v", err)
	}
	original := []byte(strings.Repeat(`{"period":"2024-01","value":1250}`, 50))

	encoded, err := codec.Encode(original)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if encoded[0] != byte(Snappy) {
		t.Errorf("expected snappy tag %d, got %d", Snappy, encoded[0])
	}
	if len(encoded) >= len(original) {
		t.Errorf("Expected repetitive data to shrink, %d >= %d", len(encoded), len(original))
	}
	if !bytes.Equal(encoded[1:], snappy.Encode(nil, original)) {
		t.Error("expected the body after the tag to be a snappy block")
	}

	decoded, err := codec.Decode(encoded)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !bytes.Equal(original, decoded) {
		t.Error("Decoded data does not match original")
	}
}

func TestCodec_SnappyBodyErrors(t *testing.T) {
	codec, _ := NewCodec(None)

	// 0xff 0xff 0xff is an unterminated length varint.
	if _, err := codec.Decode([]byte{byte(Snappy), 0xff, 0xff, 0xff}); !errors.Is(err, ErrCorruptPayload) {
		t.Errorf("Expected ErrCorruptPayload for invalid snappy body, got %v", err)
	}

	// A block header claiming more than MaxDecodedSize is rejected before decoding.
	var header [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(header[:], MaxDecodedSize+1)
	payload := append([]byte{byte(Snappy)}, header[:n]...)
	if _, err := codec.Decode(payload); !errors.Is(err, ErrCorruptPayload) {
		t.Errorf("Expected ErrCorruptPayload for oversized snappy body, got %v", err)
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	for _, algo := range []Algorithm{None, Snappy} {
		codec, err := NewCodec(algo)
		if err != nil {
			t.Fatalf("NewCodec(%s) failed: %v", algo, err)
		}
		payload := []byte(`[{"period":"2024-01","value":10}]`)

		encoded, err := codec.Encode(payload)
		if err != nil {
			t.Fatalf("%s: Encode failed: %v", algo, err)
		}
		if Algorithm(encoded[0]) != algo {
			t.Errorf("%s: expected header %d, got %d", algo, algo, encoded[0])
		}

		decoded, err := codec.Decode(encoded)
		if err != nil {
			t.Fatalf("%s: Decode failed: %v", algo, err)
		}
		if !bytes.Equal(decoded, payload) {
			t.Errorf("%s: round trip mismatch", algo)
		}
	}
}

func TestCodec_DecodesOtherAlgorithm(t *testing.T) {
	writer, _ := NewCodec(Snappy)
	reader, _ := NewCodec(None)

	encoded, err := writer.Encode([]byte("written compressed"))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	decoded, err := reader.Decode(encoded)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if string(decoded) != "written compressed" {
		t.Errorf("unexpected payload %q", decoded)
	}
}

func TestCodec_CorruptPayload(t *testing.T) {
	codec, _ := NewCodec(Snappy)

	if _, err := codec.Decode(nil); !errors.Is(err, ErrCorruptPayload) {
		t.Errorf("Expected ErrCorruptPayload for empty payload, got %v", err)
	}
	if _, err := codec.Decode([]byte{42, 1, 2}); !errors.Is(err, ErrCorruptPayload) {
		t.Errorf("Expected ErrCorruptPayload for unknown tag, got %v", err)
	}
}
