package container

import (
	"crypto/cipher"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// VerifyDevice reports whether the container's device tag was produced under
// the current device secret. The reason string carries no secret-dependent
// information.
func (m *Manager) VerifyDevice(data []byte) (bool, string) {
	v, err := parse(data)
	if err != nil {
		return false, "container has invalid length"
	}
	deviceKey, err := m.deviceKey()
	if err != nil {
		return false, "device key unavailable"
	}
	defer Wipe(deviceKey)
	if !verifyDeviceTag(deviceKey, v.authenticated(), v.deviceTag) {
		return false, "device tag mismatch"
	}
	return true, ""
}

// Decrypt sweeps the full 64x64 salt/block grid with the candidate password.
//
// The sweep is load-bearing for deniability: all 64 keys are derived and all
// 4096 open attempts are made whether or not an earlier attempt succeeded, so
// the work an observer can measure does not depend on where, or whether, a
// matching pair exists. An honest container admits at most one success per
// password; the last success found is the one reported.
func (m *Manager) Decrypt(data []byte, password string, ignoreDeviceIntegrity bool) (*DecryptResult, error) {
	v, err := parse(data)
	if err != nil {
		return &DecryptResult{Status: StatusCorrupted}, nil
	}

	deviceKey, err := m.deviceKey()
	if err != nil {
		if !ignoreDeviceIntegrity {
			return nil, err
		}
		deviceKey = nil
	}
	if deviceKey != nil {
		ok := verifyDeviceTag(deviceKey, v.authenticated(), v.deviceTag)
		Wipe(deviceKey)
		if !ok && !ignoreDeviceIntegrity {
			return &DecryptResult{Status: StatusInvalidDevice}, nil
		}
	}

	// Derive every key up front, then attempt every block under every key.
	passwordBytes := []byte(password)
	aeads := make([]cipher.AEAD, SaltCount)
	keys := make([][]byte, SaltCount)
	for i := 0; i < SaltCount; i++ {
		keys[i] = deriveKey(passwordBytes, v.salt(i))
		aeads[i], err = chacha20poly1305.NewX(keys[i])
		if err != nil {
			wipeAll(keys)
			Wipe(passwordBytes)
			return nil, fmt.Errorf("%w: %v", ErrCryptoFailure, err)
		}
	}
	Wipe(passwordBytes)

	var (
		found      bool
		saltIndex  int
		blockIndex int
		message    []byte
	)
	for i := 0; i < SaltCount; i++ {
		for j := 0; j < BlockCount; j++ {
			plaintext, ok := openFrame(aeads[i], v.block(j))
			if ok {
				if message != nil {
					Wipe(message)
				}
				found, saltIndex, blockIndex = true, i, j
				message = plaintext
			}
		}
	}
	wipeAll(keys)

	if !found {
		return &DecryptResult{Status: StatusInvalidPassword}, nil
	}
	result := &DecryptResult{
		Status:     StatusValid,
		SaltIndex:  saltIndex,
		BlockIndex: blockIndex,
		Message:    string(message),
	}
	Wipe(message)
	return result, nil
}

func wipeAll(keys [][]byte) {
	for _, k := range keys {
		Wipe(k)
	}
}
