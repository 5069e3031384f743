package imagestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"storefront/config"
	"storefront/internal/domain"
)

// localBackend writes images below UploadDir and serves them from
// PublicBaseURL + "/uploads/".
type localBackend struct {
	dir     string
	baseURL string
	log     *logrus.Logger
}

func newLocalBackend(cfg config.ImageConfig, logger *logrus.Logger) (*localBackend, error) {
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir %s: %w", cfg.UploadDir, err)
	}
	return &localBackend{
		dir:     cfg.UploadDir,
		baseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		log:     logger,
	}, nil
}

func (b *localBackend) name() string { return "local" }

func (b *localBackend) put(ctx context.Context, folder string, image *domain.ImageUpload) (*domain.StoredImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	publicID := path.Join(folder, uuid.NewString()+filepath.Ext(image.Filename))
	target, err := b.resolve(publicID)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(target, image.Data, 0o644); err != nil {
		return nil, err
	}

	return &domain.StoredImage{
		URL:      b.baseURL + "/uploads/" + publicID,
		PublicID: publicID,
	}, nil
}

func (b *localBackend) remove(ctx context.Context, publicID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := b.resolve(publicID)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// resolve maps a public id to a path, refusing ids that escape the upload dir.
func (b *localBackend) resolve(publicID string) (string, error) {
	clean := path.Clean("/" + publicID)
	if clean == "/" || strings.Contains(publicID, "..") {
		return "", fmt.Errorf("invalid image id %q", publicID)
	}
	return filepath.Join(b.dir, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}
