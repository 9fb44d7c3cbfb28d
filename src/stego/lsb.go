// Package stego embeds byte payloads into the least significant bits of RGBA
// rasters. Payloads are zlib-compressed and length-prefixed, written MSB-first
// into the R, G, B channels in raster-scan order; the alpha channel is never
// touched.
//
// The codec operates on raw rasters only. Embedded bits survive lossless
// encodings of the result (PNG, BMP, raw RGBA) and are destroyed by any lossy
// format; the caller owns that choice.
package stego

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/klauspost/compress/zlib"
)

const (
	// lengthPrefixSize is the u32le byte-count prefix ahead of the payload.
	lengthPrefixSize = 4

	// bitsPerPixel is the number of usable channels per pixel (R, G, B).
	bitsPerPixel = 3
)

// Stego errors
var (
	ErrImageTooSmall        = errors.New("image too small for payload")
	ErrInvalidImage         = errors.New("invalid or empty image")
	ErrDataExtractionFailed = errors.New("no extractable data in image")
	ErrCompressionFailed    = errors.New("payload compression failed")
	ErrDataTooLarge         = errors.New("payload exceeds capacity of supplied images")
)

// Capacity returns the number of bits a W x H raster can carry.
func Capacity(width, height int) int {
	return bitsPerPixel * width * height
}

// Encode hides payload in a copy of the cover raster. The embedded stream is
// u32le(len(compressed)) || zlib(payload), one bit per R/G/B channel LSB in
// raster-scan order, MSB-first within each byte.
func Encode(cover *image.RGBA, payload []byte) (*image.RGBA, error) {
	if cover == nil || cover.Bounds().Dx() <= 0 || cover.Bounds().Dy() <= 0 {
		return nil, ErrInvalidImage
	}

	compressed, err := compress(payload)
	if err != nil {
		return nil, err
	}

	embedded := make([]byte, lengthPrefixSize+len(compressed))
	binary.LittleEndian.PutUint32(embedded, uint32(len(compressed)))
	copy(embedded[lengthPrefixSize:], compressed)

	width, height := cover.Bounds().Dx(), cover.Bounds().Dy()
	if 8*len(embedded) > Capacity(width, height) {
		return nil, fmt.Errorf("%w: need %d bits, have %d", ErrImageTooSmall, 8*len(embedded), Capacity(width, height))
	}

	out := image.NewRGBA(image.Rect(0, 0, width, height))
	copyRaster(out, cover)

	for k := 0; k < 8*len(embedded); k++ {
		bit := (embedded[k/8] >> (7 - uint(k%8))) & 1
		p := k / bitsPerPixel
		c := k % bitsPerPixel
		off := (p/width)*out.Stride + (p%width)*4 + c
		out.Pix[off] = out.Pix[off]&0xFE | bit
	}
	return out, nil
}

// Decode recovers a payload embedded by Encode. It fails with
// ErrDataExtractionFailed when the raster carries no plausible stream: a
// length prefix beyond the raster's capacity, or bytes zlib refuses.
func Decode(img *image.RGBA) ([]byte, error) {
	if img == nil || img.Bounds().Dx() <= 0 || img.Bounds().Dy() <= 0 {
		return nil, ErrInvalidImage
	}
	width, height := img.Bounds().Dx(), img.Bounds().Dy()
	capacity := Capacity(width, height)
	if 8*lengthPrefixSize > capacity {
		return nil, ErrDataExtractionFailed
	}

	prefix := readBytes(img, 0, lengthPrefixSize)
	length := int(binary.LittleEndian.Uint32(prefix))
	if length < 0 || 8*(lengthPrefixSize+length) > capacity {
		return nil, fmt.Errorf("%w: implausible length prefix %d", ErrDataExtractionFailed, length)
	}

	compressed := readBytes(img, 8*lengthPrefixSize, length)
	payload, err := decompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataExtractionFailed, err)
	}
	return payload, nil
}

// copyRaster copies src's pixels into dst, which shares its dimensions but is
// anchored at the origin.
func copyRaster(dst *image.RGBA, src *image.RGBA) {
	width, height := src.Bounds().Dx(), src.Bounds().Dy()
	for y := 0; y < height; y++ {
		srcRow := (src.Rect.Min.Y+y)*src.Stride + src.Rect.Min.X*4
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+4*width], src.Pix[srcRow:srcRow+4*width])
	}
}

// readBytes collects n bytes starting at the given bit offset, consuming the
// R, G, B channel LSBs in raster-scan order.
func readBytes(img *image.RGBA, bitOffset, n int) []byte {
	width := img.Bounds().Dx()
	minX, minY := img.Rect.Min.X, img.Rect.Min.Y
	out := make([]byte, n)
	for k := 0; k < 8*n; k++ {
		bit := bitOffset + k
		p := bit / bitsPerPixel
		c := bit % bitsPerPixel
		off := (minY+p/width)*img.Stride + (minX+p%width)*4 + c
		out[k/8] |= (img.Pix[off] & 1) << (7 - uint(k%8))
	}
	return out
}

func compress(payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompressionFailed, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompressionFailed, err)
	}
	return buf.Bytes(), nil
}

func decompress(compressed []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
