package services

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/sceptive/veilith/src/config"
	"github.com/sceptive/veilith/src/container"
	"github.com/sceptive/veilith/src/device"
	"github.com/sceptive/veilith/src/stego"
)

// Service errors
var (
	ErrNoCovers = errors.New("at least one cover image is required")
)

// VaultService composes the container core, the stego codec and the device
// key provider into the application's save and load paths. The service owns
// all logging; the cores below it stay silent and the log fields never carry
// passwords, messages, keys or slot coordinates.
type VaultService struct {
	cfg        *config.Config
	containers *container.Manager
	logger     *logrus.Logger

	// unlockLimiter throttles password attempts at the service surface.
	// The container's constant-work sweep is unaffected.
	unlockLimiter *rate.Limiter
}

// NewVaultService wires a vault service from its collaborators.
func NewVaultService(cfg *config.Config, keys device.KeyProvider, logger *logrus.Logger) *VaultService {
	perMin := rate.Limit(float64(cfg.UnlockAttemptsPerMin) / 60.0)
	return &VaultService{
		cfg:           cfg,
		containers:    container.NewManager(keys),
		logger:        logger,
		unlockLimiter: rate.NewLimiter(perMin, cfg.UnlockAttemptsPerMin),
	}
}

// Seal builds a container from the given entries and spreads it across the
// cover images. The returned rasters are ready for a lossless encoder; one
// raster per chunk, in decode order.
func (s *VaultService) Seal(entries []container.Entry, covers []*image.RGBA) ([]*image.RGBA, error) {
	if len(covers) == 0 {
		return nil, ErrNoCovers
	}
	op := uuid.NewString()
	log := s.logger.WithFields(logrus.Fields{"op": op, "action": "seal", "covers": len(covers)})

	data, err := s.containers.Create(entries)
	if err != nil {
		log.WithError(err).Error("container build failed")
		return nil, err
	}

	stegos, err := stego.EncodeChunked(data, covers, s.cfg.StegoChunkSize)
	container.Wipe(data)
	if err != nil {
		log.WithError(err).Error("embedding failed")
		return nil, err
	}

	log.WithField("images", len(stegos)).Info("vault sealed")
	return stegos, nil
}

// Open extracts the container from the stego rasters and runs the full
// decrypt sweep with the given password. The raw container bytes are returned
// alongside the result so the caller can Update or Import without another
// extraction pass. Attempts are rate limited; the wait respects ctx.
func (s *VaultService) Open(ctx context.Context, stegos []*image.RGBA, password string, ignoreDeviceIntegrity bool) (*container.DecryptResult, []byte, error) {
	if err := s.unlockLimiter.Wait(ctx); err != nil {
		return nil, nil, fmt.Errorf("unlock throttled: %w", err)
	}

	op := uuid.NewString()
	log := s.logger.WithFields(logrus.Fields{"op": op, "action": "open", "images": len(stegos)})

	data, err := stego.DecodeChunked(stegos)
	if err != nil {
		log.WithError(err).Error("extraction failed")
		return nil, nil, err
	}

	result, err := s.containers.Decrypt(data, password, ignoreDeviceIntegrity)
	if err != nil {
		log.WithError(err).Error("decrypt failed")
		return nil, nil, err
	}

	log.WithField("status", result.Status.String()).Info("vault open attempt finished")
	return result, data, nil
}

// Rewrite replaces one payload in a previously extracted container. The
// coordinates must come from the Decrypt result of the same container bytes.
func (s *VaultService) Rewrite(data []byte, password string, saltIndex, blockIndex int, newMessage string, allowDeviceChange bool) ([]byte, error) {
	log := s.logger.WithFields(logrus.Fields{"op": uuid.NewString(), "action": "rewrite"})

	updated, err := s.containers.Update(data, password, saltIndex, blockIndex, newMessage, allowDeviceChange)
	if err != nil {
		log.WithError(err).Error("update failed")
		return nil, err
	}
	log.Info("payload rewritten")
	return updated, nil
}

// Import adopts a container created on another device by re-sealing it under
// the local device secret.
func (s *VaultService) Import(data []byte) ([]byte, error) {
	log := s.logger.WithFields(logrus.Fields{"op": uuid.NewString(), "action": "import"})

	resealed, err := s.containers.Reseal(data)
	if err != nil {
		log.WithError(err).Error("reseal failed")
		return nil, err
	}
	log.Info("container imported")
	return resealed, nil
}

// VerifyDevice reports whether the container bytes belong to this device.
func (s *VaultService) VerifyDevice(data []byte) (bool, string) {
	return s.containers.VerifyDevice(data)
}
