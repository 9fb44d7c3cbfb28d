package services

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sceptive/veilith/src/config"
	"github.com/sceptive/veilith/src/container"
	"github.com/sceptive/veilith/src/device"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		VaultDir:             t.TempDir(),
		DeviceKeyFile:        filepath.Join(t.TempDir(), "device.key"),
		LogLevel:             "error",
		Environment:          "test",
		StegoChunkSize:       200000,
		UnlockAttemptsPerMin: 60,
	}
}

func testService(t *testing.T) *VaultService {
	t.Helper()
	key := bytes.Repeat([]byte{0x11}, device.KeySize)
	provider, err := device.NewStaticProvider(key)
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return NewVaultService(testConfig(t), provider, logger)
}

// sealCovers returns covers large enough for one 200000-byte container chunk:
// the container is mostly random, so compression buys almost nothing.
func sealCovers(n int) []*image.RGBA {
	out := make([]*image.RGBA, n)
	for i := range out {
		img := image.NewRGBA(image.Rect(0, 0, 800, 800))
		for p := 0; p < len(img.Pix); p += 4 {
			img.Pix[p+0] = 0x40
			img.Pix[p+1] = 0x80
			img.Pix[p+2] = 0xC0
			img.Pix[p+3] = 0xFF
		}
		out[i] = img
	}
	return out
}

func TestSealAndOpenRoundTrip(t *testing.T) {
	s := testService(t)

	entries := []container.Entry{
		{Password: "decoy", Message: "nothing here"},
		{Password: "real", Message: "the actual secret"},
	}
	stegos, err := s.Seal(entries, sealCovers(3))
	require.NoError(t, err)
	require.NotEmpty(t, stegos)

	result, data, err := s.Open(context.Background(), stegos, "real", false)
	require.NoError(t, err)
	require.Equal(t, container.StatusValid, result.Status)
	assert.Equal(t, "the actual secret", result.Message)
	assert.Len(t, data, container.ContainerSize)

	wrong, _, err := s.Open(context.Background(), stegos, "intruder", false)
	require.NoError(t, err)
	assert.Equal(t, container.StatusInvalidPassword, wrong.Status)
}

func TestSealRequiresCovers(t *testing.T) {
	s := testService(t)
	_, err := s.Seal([]container.Entry{{Password: "p", Message: "m"}}, nil)
	assert.ErrorIs(t, err, ErrNoCovers)
}

func TestRewriteThenOpen(t *testing.T) {
	s := testService(t)

	stegos, err := s.Seal([]container.Entry{{Password: "pw", Message: "v1"}}, sealCovers(3))
	require.NoError(t, err)

	result, data, err := s.Open(context.Background(), stegos, "pw", false)
	require.NoError(t, err)
	require.Equal(t, container.StatusValid, result.Status)

	updated, err := s.Rewrite(data, "pw", result.SaltIndex, result.BlockIndex, "v2", false)
	require.NoError(t, err)

	key := bytes.Repeat([]byte{0x11}, device.KeySize)
	provider, err := device.NewStaticProvider(key)
	require.NoError(t, err)
	check, err := container.NewManager(provider).Decrypt(updated, "pw", false)
	require.NoError(t, err)
	require.Equal(t, container.StatusValid, check.Status)
	assert.Equal(t, "v2", check.Message)
}

func TestImportForeignContainer(t *testing.T) {
	s := testService(t)

	stegos, err := s.Seal([]container.Entry{{Password: "pw", Message: "travels"}}, sealCovers(3))
	require.NoError(t, err)

	_, data, err := s.Open(context.Background(), stegos, "pw", false)
	require.NoError(t, err)

	// Simulate a container sealed elsewhere.
	foreign := append([]byte(nil), data...)
	for i := 0; i < container.DeviceTagSize; i++ {
		foreign[i] = 0xFF
	}
	valid, _ := s.VerifyDevice(foreign)
	require.False(t, valid)

	adopted, err := s.Import(foreign)
	require.NoError(t, err)
	valid, _ = s.VerifyDevice(adopted)
	assert.True(t, valid)
}

func TestSaveStegoSetPreservesOrder(t *testing.T) {
	s := testService(t)

	stegos, err := s.Seal([]container.Entry{{Password: "pw", Message: "ordered"}}, sealCovers(4))
	require.NoError(t, err)

	dir := t.TempDir()
	paths, err := s.SaveStegoSet(dir, stegos)
	require.NoError(t, err)
	require.Len(t, paths, len(stegos))

	loaded, err := LoadCovers(paths)
	require.NoError(t, err)

	result, _, err := s.Open(context.Background(), loaded, "pw", false)
	require.NoError(t, err)
	require.Equal(t, container.StatusValid, result.Status)
	assert.Equal(t, "ordered", result.Message)
}

func TestLoadCoverNormalizesNonRGBA(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gray.png")

	gray := image.NewGray(image.Rect(0, 0, 32, 32))
	for i := range gray.Pix {
		gray.Pix[i] = 0x7F
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, gray))
	require.NoError(t, f.Close())

	rgba, err := LoadCover(path)
	require.NoError(t, err)
	assert.Equal(t, 32, rgba.Bounds().Dx())
	assert.Equal(t, color.RGBAModel, rgba.ColorModel())
}
