package domain

import "context"

const (
	ImageFolderCategories = "categories"
	ImageFolderProducts   = "products"
)

// ImageUpload is a raw file received from a client.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

type StoredImage struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}

// ImageCleanup reports the best-effort removal of a replaced image.
type ImageCleanup struct {
	Attempted bool   `json:"attempted"`
	PublicID  string `json:"public_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (c ImageCleanup) Failed() bool { return c.Attempted && c.Error != "" }

type ImageStore interface {
	Upload(ctx context.Context, folder string, image *ImageUpload) (*StoredImage, error)
	Delete(ctx context.Context, publicID string) error
}
