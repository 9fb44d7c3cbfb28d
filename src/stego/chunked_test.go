package stego

import (
	"crypto/rand"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func covers(n, width, height int) []*image.RGBA {
	out := make([]*image.RGBA, n)
	for i := range out {
		out[i] = grayCover(width, height)
	}
	return out
}

func TestChunkedRoundTrip(t *testing.T) {
	payload := make([]byte, 2500)
	_, err := rand.Read(payload)
	require.NoError(t, err)

	// Random data barely compresses, so 1000-byte chunks need sizeable
	// covers: ~1012 embedded bytes, 8096 bits, < 3*64*64.
	stegos, err := EncodeChunked(payload, covers(4, 64, 64), 1000)
	require.NoError(t, err)
	assert.Len(t, stegos, 3)

	decoded, err := DecodeChunked(stegos)
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)
}

func TestChunkedExactMultiple(t *testing.T) {
	payload := make([]byte, 2000)
	_, err := rand.Read(payload)
	require.NoError(t, err)

	stegos, err := EncodeChunked(payload, covers(2, 64, 64), 1000)
	require.NoError(t, err)
	assert.Len(t, stegos, 2)

	decoded, err := DecodeChunked(stegos)
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)
}

func TestChunkedTooManyChunks(t *testing.T) {
	payload := make([]byte, 5000)
	_, err := rand.Read(payload)
	require.NoError(t, err)

	_, err = EncodeChunked(payload, covers(2, 64, 64), 1000)
	assert.ErrorIs(t, err, ErrDataTooLarge)
}

func TestChunkedEmptyPayload(t *testing.T) {
	stegos, err := EncodeChunked(nil, covers(2, 32, 32), 1000)
	require.NoError(t, err)
	require.Len(t, stegos, 1)

	decoded, err := DecodeChunked(stegos)
	require.NoError(t, err)
	assert.Empty(t, decoded)
}

func TestChunkedDefaultChunkSize(t *testing.T) {
	payload := make([]byte, 300)
	_, err := rand.Read(payload)
	require.NoError(t, err)

	// chunkSize <= 0 falls back to the 200000-byte default: one chunk.
	stegos, err := EncodeChunked(payload, covers(3, 64, 64), 0)
	require.NoError(t, err)
	assert.Len(t, stegos, 1)

	decoded, err := DecodeChunked(stegos)
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)
}

func TestChunkedOrderMatters(t *testing.T) {
	payload := make([]byte, 2000)
	_, err := rand.Read(payload)
	require.NoError(t, err)

	stegos, err := EncodeChunked(payload, covers(2, 64, 64), 1000)
	require.NoError(t, err)
	require.Len(t, stegos, 2)

	// Chunks carry no headers; a reordered set decodes to reordered bytes.
	swapped, err := DecodeChunked([]*image.RGBA{stegos[1], stegos[0]})
	require.NoError(t, err)
	assert.NotEqual(t, payload, swapped)
	assert.Len(t, swapped, len(payload))
}
