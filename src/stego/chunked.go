package stego

import (
	"fmt"
	"image"
)

// DefaultChunkSize is the per-image payload split used when the caller does
// not pick one.
const DefaultChunkSize = 200000

// EncodeChunked splits payload into contiguous chunks of chunkSize bytes and
// embeds the k-th chunk into covers[k]. Chunks carry no headers; decoding
// depends entirely on the caller preserving image order. The returned slice
// holds exactly one raster per chunk; surplus covers are left unused.
func EncodeChunked(payload []byte, covers []*image.RGBA, chunkSize int) ([]*image.RGBA, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	chunks := (len(payload) + chunkSize - 1) / chunkSize
	if chunks == 0 {
		chunks = 1 // an empty payload still occupies one image
	}
	if chunks > len(covers) {
		return nil, fmt.Errorf("%w: %d chunks for %d images", ErrDataTooLarge, chunks, len(covers))
	}

	out := make([]*image.RGBA, 0, chunks)
	for k := 0; k < chunks; k++ {
		start := k * chunkSize
		end := start + chunkSize
		if end > len(payload) {
			end = len(payload)
		}
		stego, err := Encode(covers[k], payload[start:end])
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", k, err)
		}
		out = append(out, stego)
	}
	return out, nil
}

// DecodeChunked concatenates the payloads of the given stego rasters in
// order.
func DecodeChunked(stegos []*image.RGBA) ([]byte, error) {
	var out []byte
	for k, img := range stegos {
		chunk, err := Decode(img)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", k, err)
		}
		out = append(out, chunk...)
	}
	return out, nil
}
