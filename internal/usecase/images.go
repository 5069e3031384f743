package usecase

import (
	"context"

	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
)

// imageAttacher uploads catalog images into one folder and removes the
// images they replace.
type imageAttacher struct {
	store  domain.ImageStore
	folder string
	log    *logrus.Logger
}

func newImageAttacher(store domain.ImageStore, folder string, logger *logrus.Logger) *imageAttacher {
	return &imageAttacher{store: store, folder: folder, log: logger}
}

// upload returns nil when no file was sent.
func (a *imageAttacher) upload(ctx context.Context, image *domain.ImageUpload) (*domain.StoredImage, error) {
	if image == nil {
		return nil, nil
	}
	stored, err := a.store.Upload(ctx, a.folder, image)
	if err != nil {
		a.log.Warnf("Use Case: Image upload to %s failed: %v", a.folder, err)
		return nil, err
	}
	return stored, nil
}

// replace removes an old image after the new state was persisted. Failures
// are reported in the result, never returned.
func (a *imageAttacher) replace(ctx context.Context, oldPublicID string) domain.ImageCleanup {
	if oldPublicID == "" {
		return domain.ImageCleanup{}
	}
	cleanup := domain.ImageCleanup{Attempted: true, PublicID: oldPublicID}
	if err := a.store.Delete(ctx, oldPublicID); err != nil {
		cleanup.Error = err.Error()
		a.log.WithFields(logrus.Fields{
			"public_id": oldPublicID,
			"folder":    a.folder,
		}).Warnf("Use Case: Old image could not be deleted: %v", err)
	}
	return cleanup
}

// discard removes an image uploaded for a write that then failed.
func (a *imageAttacher) discard(ctx context.Context, stored *domain.StoredImage) {
	if stored == nil {
		return
	}
	if err := a.store.Delete(ctx, stored.PublicID); err != nil {
		a.log.Warnf("Use Case: Orphaned image %s could not be removed: %v", stored.PublicID, err)
	}
}
