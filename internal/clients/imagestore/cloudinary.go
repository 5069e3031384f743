package imagestore

import (
	"bytes"
	"context"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/sirupsen/logrus"

	"storefront/config"
	"storefront/internal/domain"
)

type cloudinaryBackend struct {
	cld *cloudinary.Cloudinary
	log *logrus.Logger
}

func newCloudinaryBackend(cfg config.ImageConfig, logger *logrus.Logger) (*cloudinaryBackend, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to configure cloudinary: %w", err)
	}
	return &cloudinaryBackend{cld: cld, log: logger}, nil
}

func (b *cloudinaryBackend) name() string { return "cloudinary" }

func (b *cloudinaryBackend) put(ctx context.Context, folder string, image *domain.ImageUpload) (*domain.StoredImage, error) {
	resp, err := b.cld.Upload.Upload(ctx, bytes.NewReader(image.Data), uploader.UploadParams{
		Folder:       folder,
		ResourceType: "image",
	})
	if err != nil {
		return nil, err
	}
	if resp.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary: %s", resp.Error.Message)
	}
	if resp.SecureURL == "" || resp.PublicID == "" {
		return nil, fmt.Errorf("cloudinary: empty upload result")
	}
	return &domain.StoredImage{URL: resp.SecureURL, PublicID: resp.PublicID}, nil
}

func (b *cloudinaryBackend) remove(ctx context.Context, publicID string) error {
	resp, err := b.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return err
	}
	if resp.Error.Message != "" {
		return fmt.Errorf("cloudinary: %s", resp.Error.Message)
	}
	if resp.Result != "ok" && resp.Result != "not found" {
		return fmt.Errorf("cloudinary: destroy returned %q", resp.Result)
	}
	return nil
}
