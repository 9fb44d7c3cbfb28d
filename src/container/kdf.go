package container

import (
	"crypto/hmac"
	"crypto/sha256"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters, libsodium "interactive" limits. Every derivation in a
// container uses these exact values so per-attempt work is identical whether
// the slot under attack is occupied or random.
const (
	argonTime    = 2
	argonMemory  = 64 * 1024 // KiB, 64 MiB
	argonThreads = 1
)

// deriveKey stretches a password against one salt slot. The caller owns the
// returned key and must wipe it when done.
func deriveKey(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, argonTime, argonMemory, argonThreads, KeySize)
}

// computeDeviceTag MACs the salt and block tables under the device secret.
func computeDeviceTag(deviceKey, authenticated []byte) []byte {
	mac := hmac.New(sha256.New, deviceKey)
	mac.Write(authenticated)
	return mac.Sum(nil)
}

// verifyDeviceTag compares in constant time.
func verifyDeviceTag(deviceKey, authenticated, tag []byte) bool {
	expected := computeDeviceTag(deviceKey, authenticated)
	defer Wipe(expected)
	return hmac.Equal(expected, tag)
}
