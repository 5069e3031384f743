package imagestore

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/webp"

	"storefront/config"
	"storefront/internal/domain"
)

var allowedMIMEs = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Processor validates uploads and shrinks images larger than the configured
// bounding box.
type Processor struct {
	maxBytes     int64
	maxDimension int
	log          *logrus.Logger
}

func NewProcessor(cfg config.ImageConfig, logger *logrus.Logger) *Processor {
	return &Processor{
		maxBytes:     cfg.MaxBytes,
		maxDimension: cfg.MaxDimension,
		log:          logger,
	}
}

// Validate checks size and sniffed content type, returning the detected MIME type.
func (p *Processor) Validate(upload *domain.ImageUpload) (string, error) {
	if upload == nil || len(upload.Data) == 0 {
		return "", domain.ValidationError("image file is empty")
	}
	if int64(len(upload.Data)) > p.maxBytes {
		return "", domain.ValidationError("image exceeds the %d MB limit", p.maxBytes/(1024*1024))
	}

	detected := mimetype.Detect(upload.Data).String()
	if _, ok := allowedMIMEs[detected]; !ok {
		p.log.Warnf("Image Store: Rejected upload %q with content type %s", upload.Filename, detected)
		return "", domain.ValidationError("unsupported image type %s: only JPEG, PNG and WEBP are allowed", detected)
	}
	return detected, nil
}

// Prepare validates the upload and returns it ready for storage, resized to
// fit within maxDimension × maxDimension when needed.
func (p *Processor) Prepare(upload *domain.ImageUpload) (*domain.ImageUpload, error) {
	contentType, err := p.Validate(upload)
	if err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(upload.Data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, domain.ValidationError("failed to decode image: %v", err)
	}

	bounds := img.Bounds()
	if p.maxDimension <= 0 || (bounds.Dx() <= p.maxDimension && bounds.Dy() <= p.maxDimension) {
		return &domain.ImageUpload{
			Filename:    withExtension(upload.Filename, allowedMIMEs[contentType]),
			ContentType: contentType,
			Data:        upload.Data,
		}, nil
	}

	resized := imaging.Fit(img, p.maxDimension, p.maxDimension, imaging.Lanczos)

	// webp has no encoder here, so resized webp images are stored as png
	format, outType := imaging.PNG, "image/png"
	if contentType == "image/jpeg" {
		format, outType = imaging.JPEG, "image/jpeg"
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("failed to encode resized image: %w", err)
	}

	p.log.WithFields(logrus.Fields{
		"file":     upload.Filename,
		"original": fmt.Sprintf("%dx%d", bounds.Dx(), bounds.Dy()),
		"resized":  fmt.Sprintf("%dx%d", resized.Bounds().Dx(), resized.Bounds().Dy()),
	}).Debug("Image Store: Image downscaled before upload")

	return &domain.ImageUpload{
		Filename:    withExtension(upload.Filename, allowedMIMEs[outType]),
		ContentType: outType,
		Data:        buf.Bytes(),
	}, nil
}

func withExtension(filename, ext string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "image"
	}
	return base + ext
}
