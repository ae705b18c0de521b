// Package compression encodes stored payloads. Every encoded payload starts
// with a one byte algorithm tag so readers can decode data written under a
// different setting.
package compression

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang/snappy"
)

// Algorithm defines compression types
type Algorithm uint8

const (
	None   Algorithm = 0
	Snappy Algorithm = 1
)

// MaxDecodedSize bounds the size a tagged payload may expand to. Stored
// series and snapshots are far smaller; anything larger is corrupt.
const MaxDecodedSize = 64 << 20

// ErrCorruptPayload is returned when a payload has no valid header or its
// body cannot be decoded
var ErrCorruptPayload = errors.New("corrupt payload")

func (a Algorithm) String() string {
	switch a {
	case None:
		return "none"
	case Snappy:
		return "snappy"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(a))
	}
}

// ParseAlgorithm maps a config name to an Algorithm. Empty means snappy.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch strings.ToLower(name) {
	case "", "snappy":
		return Snappy, nil
	case "none":
		return None, nil
	default:
		return None, fmt.Errorf("unsupported compression: %s", name)
	}
}

// Compressor interface for compression algorithms
type Compressor interface {
	// Compress compresses data
	Compress(data []byte) ([]byte, error)

	// Decompress decompresses data
	Decompress(data []byte) ([]byte, error)

	// Algorithm returns the compression algorithm type
	Algorithm() Algorithm
}

// GetCompressor returns a compressor for the given algorithm
func GetCompressor(algo Algorithm) (Compressor, error) {
	switch algo {
	case None:
		return &NoneCompressor{}, nil
	case Snappy:
		return snappyBody{}, nil
	default:
		return nil, fmt.Errorf("unsupported compression algorithm: %d", algo)
	}
}

// NoneCompressor is a no-op compressor
type NoneCompressor struct{}

func (n *NoneCompressor) Compress(data []byte) ([]byte, error) {
	return data, nil
}

func (n *NoneCompressor) Decompress(data []byte) ([]byte, error) {
	return data, nil
}

func (n *NoneCompressor) Algorithm() Algorithm {
	return None
}

// snappyBody compresses the body that follows the Snappy tag. Bodies use the
// block format since a whole series or snapshot is encoded at once.
type snappyBody struct{}

func (snappyBody) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}
	return snappy.Encode(nil, data), nil
}

func (snappyBody) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}
	n, err := snappy.DecodedLen(data)
	if err != nil {
		return nil, fmt.Errorf("snappy header: %w", err)
	}
	if n > MaxDecodedSize {
		return nil, fmt.Errorf("snappy body expands to %d bytes, the limit is %d", n, MaxDecodedSize)
	}
	return snappy.Decode(nil, data)
}

func (snappyBody) Algorithm() Algorithm {
	return Snappy
}

// Codec frames payloads with the algorithm tag of its compressor
type Codec struct {
	compressor Compressor
}

// NewCodec creates a codec that writes with algo
func NewCodec(algo Algorithm) (*Codec, error) {
	c, err := GetCompressor(algo)
	if err != nil {
		return nil, err
	}
	return &Codec{compressor: c}, nil
}

// Algorithm returns the algorithm used for writing
func (c *Codec) Algorithm() Algorithm {
	return c.compressor.Algorithm()
}

// Encode compresses data and prepends the algorithm tag
func (c *Codec) Encode(data []byte) ([]byte, error) {
	compressed, err := c.compressor.Compress(data)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(compressed)+1)
	out = append(out, byte(c.compressor.Algorithm()))
	return append(out, compressed...), nil
}

// Decode reads the algorithm tag and decompresses the rest with the matching compressor
func (c *Codec) Decode(payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, ErrCorruptPayload
	}
	reader, err := GetCompressor(Algorithm(payload[0]))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptPayload, err)
	}
	data, err := reader.Decompress(payload[1:])
	if err != nil {
		return nil, fmt.Errorf("%w: %s body: %v", ErrCorruptPayload, reader.Algorithm(), err)
	}
	return data, nil
}
