package container

import (
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// maxNonceRedraws bounds the seal loop below. Each redraw fails with
// probability 1/256, so the bound is never reached in practice.
const maxNonceRedraws = 128

// sealFrame encrypts one message into a full 8192-byte block slot:
// nonce || ciphertext || tag, zero-padded to BlockSize.
//
// The frame must not end in a zero byte, otherwise trailing-zero trimming on
// the decrypt side would recover the wrong extent. When the sealed tag's
// final byte is 0x00 (~0.4% of seals) the nonce is redrawn and the message
// sealed again.
func sealFrame(key, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCryptoFailure, err)
	}

	frame := make([]byte, BlockSize)
	frameEnd := NonceSize + len(plaintext) + TagSize
	for i := 0; i < maxNonceRedraws; i++ {
		if _, err := rand.Read(frame[:NonceSize]); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCryptoFailure, err)
		}
		aead.Seal(frame[NonceSize:NonceSize], frame[:NonceSize], plaintext, nil)
		if frame[frameEnd-1] != 0 {
			return frame, nil
		}
	}
	return nil, fmt.Errorf("%w: could not seal frame with nonzero tail", ErrCryptoFailure)
}

// openFrame attempts to decrypt one block slot. The frame extent is the block
// with trailing zeros trimmed, clamped to the minimum frame size so that a
// near-empty slot still costs one AEAD attempt like every other slot.
func openFrame(aead cipher.AEAD, block []byte) ([]byte, bool) {
	end := len(block)
	for end > 0 && block[end-1] == 0 {
		end--
	}
	if end < minFrameSize {
		end = minFrameSize
	}
	plaintext, err := aead.Open(nil, block[:NonceSize], block[NonceSize:end], nil)
	if err != nil {
		return nil, false
	}
	return plaintext, true
}
