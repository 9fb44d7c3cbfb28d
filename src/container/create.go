package container

import (
	"fmt"

	"github.com/sceptive/veilith/src/device"
)

// Manager builds and opens deniable containers. It holds no mutable state
// beyond the device key provider, so a single Manager may be shared freely
// across goroutines.
type Manager struct {
	keys device.KeyProvider
}

// NewManager returns a Manager backed by the given device key provider.
func NewManager(keys device.KeyProvider) *Manager {
	return &Manager{keys: keys}
}

// deviceKey fetches the 32-byte device secret or maps the provider's failure
// into the container error taxonomy.
func (m *Manager) deviceKey() ([]byte, error) {
	key, err := m.keys.IntegrityKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	if len(key) != DeviceKeySize {
		return nil, fmt.Errorf("%w: provider returned %d-byte key", ErrProviderUnavailable, len(key))
	}
	return key, nil
}

// Create seals the given entries into a fresh container. Slots not consumed
// by an entry are filled with uniform random bytes, and each entry's salt and
// block positions are drawn independently, so the emitted bytes carry no
// trace of how many entries were supplied.
//
// No partial container is ever returned: any failure aborts the whole build.
func (m *Manager) Create(entries []Entry) ([]byte, error) {
	if len(entries) > SaltCount {
		return nil, ErrTooManyEntries
	}
	for _, e := range entries {
		if len(e.Message) > maxMessageSize {
			return nil, fmt.Errorf("%w: %d > %d bytes", ErrOversizedMessage, len(e.Message), maxMessageSize)
		}
	}

	deviceKey, err := m.deviceKey()
	if err != nil {
		return nil, err
	}
	defer Wipe(deviceKey)

	// Every slot starts random; occupied frames are written over the noise
	// below, and each entry takes one of the random salts as its own.
	saltTable, err := randomBytes(saltTableSize)
	if err != nil {
		return nil, err
	}
	blockTable, err := randomBytes(blockTableSize)
	if err != nil {
		return nil, err
	}

	// Seal each entry against the salt in its pre-shuffle position. The
	// shuffle afterwards moves salts uniformly; Decrypt sweeps all of them,
	// so no record of the permutation is kept.
	used := make([]bool, BlockCount)
	for i, e := range entries {
		salt := saltTable[i*SaltSize : (i+1)*SaltSize]

		password := []byte(e.Password)
		key := deriveKey(password, salt)
		Wipe(password)

		plaintext := []byte(e.Message)
		frame, err := sealFrame(key, plaintext)
		Wipe(key)
		Wipe(plaintext)
		if err != nil {
			return nil, err
		}

		slot, err := randomUnusedSlot(used)
		if err != nil {
			return nil, err
		}
		copy(blockTable[slot*BlockSize:(slot+1)*BlockSize], frame)
		Wipe(frame)
	}

	if err := shuffleSalts(saltTable); err != nil {
		return nil, err
	}

	out := make([]byte, ContainerSize)
	copy(out[DeviceTagSize:], saltTable)
	copy(out[DeviceTagSize+saltTableSize:], blockTable)
	tag := computeDeviceTag(deviceKey, out[DeviceTagSize:])
	copy(out, tag)
	return out, nil
}

// randomUnusedSlot draws a uniform block index among the slots no earlier
// entry has claimed, by rejection of already-used draws.
func randomUnusedSlot(used []bool) (int, error) {
	for {
		slot, err := randomIndex(len(used))
		if err != nil {
			return 0, err
		}
		if !used[slot] {
			used[slot] = true
			return slot, nil
		}
	}
}
