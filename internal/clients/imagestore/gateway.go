package imagestore

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"storefront/config"
	"storefront/internal/domain"
)

// backend is a place images end up once they passed the Processor.
type backend interface {
	put(ctx context.Context, folder string, image *domain.ImageUpload) (*domain.StoredImage, error)
	remove(ctx context.Context, publicID string) error
	name() string
}

type imageGateway struct {
	processor *Processor
	backend   backend
	log       *logrus.Logger
}

var _ domain.ImageStore = (*imageGateway)(nil)

// New builds the image store selected by cfg.Store.
func New(cfg config.ImageConfig, logger *logrus.Logger) (domain.ImageStore, error) {
	var (
		b   backend
		err error
	)
	switch strings.ToLower(cfg.Store) {
	case "cloudinary":
		b, err = newCloudinaryBackend(cfg, logger)
	case "local", "":
		b, err = newLocalBackend(cfg, logger)
	default:
		err = fmt.Errorf("unknown image store %q", cfg.Store)
	}
	if err != nil {
		return nil, err
	}

	logger.Infof("Image Store: Using %s backend", b.name())
	return newGateway(NewProcessor(cfg, logger), b, logger), nil
}

func newGateway(processor *Processor, b backend, logger *logrus.Logger) *imageGateway {
	return &imageGateway{processor: processor, backend: b, log: logger}
}

func (g *imageGateway) Upload(ctx context.Context, folder string, image *domain.ImageUpload) (*domain.StoredImage, error) {
	prepared, err := g.processor.Prepare(image)
	if err != nil {
		return nil, err
	}

	stored, err := g.backend.put(ctx, folder, prepared)
	if err != nil {
		g.log.Errorf("Image Store: Upload of %q to %s failed: %v", prepared.Filename, folder, err)
		return nil, domain.UpstreamError("failed to upload image")
	}

	g.log.Infof("Image Store: Stored %s (%d bytes) as %s", prepared.Filename, len(prepared.Data), stored.PublicID)
	return stored, nil
}

func (g *imageGateway) Delete(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	if err := g.backend.remove(ctx, publicID); err != nil {
		g.log.Warnf("Image Store: Failed to delete %s: %v", publicID, err)
		return domain.UpstreamError("failed to delete image %s", publicID)
	}
	g.log.Infof("Image Store: Deleted %s", publicID)
	return nil
}
