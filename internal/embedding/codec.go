// Package embedding implements the storage wire format for speaker
// embeddings: a flat sequence of little-endian IEEE-754 32-bit floats.
// The byte layout is shared with every other reader of the database, so it
// must stay exactly 4 bytes per element, little-endian.
package embedding

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Encode packs vec into its binary blob form, 4 bytes per element.
// An empty vector encodes to an empty blob.
func Encode(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// Decode is the inverse of Encode. An empty blob decodes to an empty vector;
// a length that is not a multiple of 4 indicates a corrupted row.
func Decode(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("embedding blob length %d is not a multiple of 4", len(data))
	}

	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
