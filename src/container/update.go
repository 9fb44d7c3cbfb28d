package container

import (
	"fmt"
)

// Update re-seals a single payload in place. The target coordinates are the
// ones a prior Decrypt reported; a fresh salt and nonce are drawn, the new
// message is sealed, and only those two slots change. No shuffle happens and
// the container length is unchanged.
func (m *Manager) Update(data []byte, password string, saltIndex, blockIndex int, newMessage string, allowDeviceChange bool) ([]byte, error) {
	v, err := parse(data)
	if err != nil {
		return nil, err
	}
	if saltIndex < 0 || saltIndex >= SaltCount || blockIndex < 0 || blockIndex >= BlockCount {
		return nil, ErrIndexOutOfRange
	}
	if len(newMessage) > maxMessageSize {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrOversizedMessage, len(newMessage), maxMessageSize)
	}

	deviceKey, err := m.deviceKey()
	if err != nil {
		return nil, err
	}
	defer Wipe(deviceKey)
	if !allowDeviceChange && !verifyDeviceTag(deviceKey, v.authenticated(), v.deviceTag) {
		return nil, ErrInvalidDevice
	}

	salt, err := randomBytes(SaltSize)
	if err != nil {
		return nil, err
	}
	passwordBytes := []byte(password)
	key := deriveKey(passwordBytes, salt)
	Wipe(passwordBytes)

	plaintext := []byte(newMessage)
	frame, err := sealFrame(key, plaintext)
	Wipe(key)
	Wipe(plaintext)
	if err != nil {
		return nil, err
	}

	out := make([]byte, ContainerSize)
	copy(out, data)
	copy(out[DeviceTagSize+saltIndex*SaltSize:], salt)
	copy(out[DeviceTagSize+saltTableSize+blockIndex*BlockSize:], frame)
	Wipe(frame)

	tag := computeDeviceTag(deviceKey, out[DeviceTagSize:])
	copy(out, tag)
	return out, nil
}

// Reseal stamps a container with the current device secret, replacing
// whatever tag it carried. It is the import path for containers created on
// another device and needs no password: salt and block tables pass through
// untouched.
func (m *Manager) Reseal(data []byte) ([]byte, error) {
	if len(data) != ContainerSize {
		return nil, ErrCorrupted
	}
	deviceKey, err := m.deviceKey()
	if err != nil {
		return nil, err
	}
	defer Wipe(deviceKey)

	out := make([]byte, ContainerSize)
	copy(out[DeviceTagSize:], data[DeviceTagSize:])
	tag := computeDeviceTag(deviceKey, out[DeviceTagSize:])
	copy(out, tag)
	return out, nil
}
