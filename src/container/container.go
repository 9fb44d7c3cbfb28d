package container

import (
	"errors"
)

// ==============================================================================
// Veilith Deniable Container
// ==============================================================================
//
// A container holds up to 64 independently decryptable payloads. Every slot
// that does not carry a payload is filled with uniform random bytes, and the
// mapping between a payload's salt slot and its block slot is drawn
// independently at random. Without a correct password the container reveals
// neither how many payloads exist nor where they live.
//
// Byte layout (fixed, 525344 bytes total):
//
// +-----------+--------------------+----------------------+
// | DeviceTag | SaltTable          | BlockTable           |
// +-----------+--------------------+----------------------+
// | 32 B      | 64 x 16 B = 1024 B | 64 x 8192 B = 512 KiB|
// +-----------+--------------------+----------------------+
//
// DeviceTag is an HMAC-SHA256 over SaltTable||BlockTable keyed by the 32-byte
// device secret, binding the container to the device that sealed it.
//
// Each block slot is either an occupied frame
//
//   nonce(24) || ciphertext(n) || tag(16) || zeros
//
// or 8192 uniformly random bytes. Occupied frames never end in a zero byte:
// creation redraws the nonce whenever the sealed tag's final byte is 0x00, so
// the frame extent can be recovered by trimming trailing zeros. That trimming
// rule is part of the on-disk format.
//
// Algorithms:
// - Cipher: XChaCha20-Poly1305 (golang.org/x/crypto/chacha20poly1305)
// - KDF:    Argon2id, interactive limits (golang.org/x/crypto/argon2)
// - Device MAC: HMAC-SHA256 (crypto/hmac)
//
// ==============================================================================

const (
	// SaltSize is the Argon2id salt length per slot (16 bytes)
	SaltSize = 16

	// SaltCount is the fixed number of salt slots
	SaltCount = 64

	// BlockSize is the fixed size of one ciphertext slot (8 KiB)
	BlockSize = 8192

	// BlockCount is the fixed number of block slots
	BlockCount = 64

	// NonceSize is the XChaCha20-Poly1305 nonce size (24 bytes)
	NonceSize = 24

	// TagSize is the Poly1305 authentication tag size (16 bytes)
	TagSize = 16

	// KeySize is the derived encryption key length (256 bits)
	KeySize = 32

	// DeviceTagSize is the HMAC-SHA256 output length (32 bytes)
	DeviceTagSize = 32

	// DeviceKeySize is the required device secret length (32 bytes)
	DeviceKeySize = 32

	// saltTableSize is the byte length of the salt table region
	saltTableSize = SaltCount * SaltSize

	// blockTableSize is the byte length of the block table region
	blockTableSize = BlockCount * BlockSize

	// ContainerSize is the exact byte length of every container
	ContainerSize = DeviceTagSize + saltTableSize + blockTableSize

	// minFrameSize is the smallest possible occupied frame (empty message)
	minFrameSize = NonceSize + TagSize

	// maxMessageSize is the largest plaintext a single block can carry
	maxMessageSize = BlockSize - NonceSize - TagSize
)

// Container errors
var (
	ErrCorrupted           = errors.New("container length or structure invalid")
	ErrInvalidDevice       = errors.New("container is bound to a different device")
	ErrOversizedMessage    = errors.New("message exceeds maximum block capacity")
	ErrTooManyEntries      = errors.New("container holds at most 64 payloads")
	ErrIndexOutOfRange     = errors.New("salt or block index out of range")
	ErrProviderUnavailable = errors.New("device key provider returned no key")
	ErrCryptoFailure       = errors.New("cryptographic primitive failed")
)

// Entry is one payload handed to Create: a password and the UTF-8 message it
// protects. Decoy entries and real entries are indistinguishable to the
// container; the caller decides which is which.
type Entry struct {
	Password string
	Message  string
}

// Status is the outcome of a Decrypt sweep.
type Status int

const (
	// StatusValid means at least one (salt, block) pair opened; the last
	// one found is reported.
	StatusValid Status = iota
	// StatusInvalidDevice means the device tag did not verify.
	StatusInvalidDevice
	// StatusInvalidPassword means the full sweep opened nothing.
	StatusInvalidPassword
	// StatusCorrupted means the container bytes are structurally invalid.
	StatusCorrupted
)

func (s Status) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusInvalidDevice:
		return "invalid_device"
	case StatusInvalidPassword:
		return "invalid_password"
	case StatusCorrupted:
		return "corrupted"
	default:
		return "unknown"
	}
}

// DecryptResult reports the outcome of a Decrypt sweep. SaltIndex and
// BlockIndex are only meaningful when Status is StatusValid; they are the
// coordinates a later Update must target.
type DecryptResult struct {
	Status     Status
	SaltIndex  int
	BlockIndex int
	Message    string
}

// MaxMessageSize returns the largest message, in bytes, that fits one block
// slot: blockSize - nonce - tag = 8152.
func MaxMessageSize() int {
	return maxMessageSize
}

// view is a parsed, zero-copy look into a container's three regions.
type view struct {
	deviceTag  []byte
	saltTable  []byte
	blockTable []byte
}

// parse slices a container into its regions. The only structural check a
// container admits is its exact length.
func parse(data []byte) (*view, error) {
	if len(data) != ContainerSize {
		return nil, ErrCorrupted
	}
	return &view{
		deviceTag:  data[:DeviceTagSize],
		saltTable:  data[DeviceTagSize : DeviceTagSize+saltTableSize],
		blockTable: data[DeviceTagSize+saltTableSize:],
	}, nil
}

// salt returns the i-th 16-byte salt slot.
func (v *view) salt(i int) []byte {
	return v.saltTable[i*SaltSize : (i+1)*SaltSize]
}

// block returns the j-th 8192-byte block slot.
func (v *view) block(j int) []byte {
	return v.blockTable[j*BlockSize : (j+1)*BlockSize]
}

// authenticated returns the region covered by the device tag.
func (v *view) authenticated() []byte {
	// saltTable and blockTable are contiguous in the backing array
	return v.saltTable[:saltTableSize+blockTableSize]
}
