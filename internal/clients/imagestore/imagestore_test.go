package imagestore

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/config"
	"storefront/internal/domain"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.NRGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testConfig(dir string) config.ImageConfig {
	return config.ImageConfig{
		Store:         "local",
		UploadDir:     dir,
		PublicBaseURL: "http://localhost:8080/",
		MaxBytes:      5 * 1024 * 1024,
		MaxDimension:  100,
	}
}

func TestProcessor_RejectsNonImage(t *testing.T) {
	p := NewProcessor(testConfig(t.TempDir()), testLogger())

	_, err := p.Prepare(&domain.ImageUpload{Filename: "notes.png", Data: []byte("just some text")})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "unsupported image type")
}

func TestProcessor_RejectsOversizedFile(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.MaxBytes = 10
	p := NewProcessor(cfg, testLogger())

	_, err := p.Prepare(&domain.ImageUpload{Filename: "a.png", Data: pngBytes(t, 20, 20)})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestProcessor_RejectsEmptyUpload(t *testing.T) {
	p := NewProcessor(testConfig(t.TempDir()), testLogger())

	_, err := p.Prepare(&domain.ImageUpload{Filename: "a.png"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestProcessor_KeepsSmallImage(t *testing.T) {
	p := NewProcessor(testConfig(t.TempDir()), testLogger())
	data := pngBytes(t, 40, 30)

	out, err := p.Prepare(&domain.ImageUpload{Filename: "photo.PNG", Data: data})
	require.NoError(t, err)
	assert.Equal(t, "image/png", out.ContentType)
	assert.Equal(t, "photo.png", out.Filename)
	assert.Equal(t, data, out.Data)
}

func TestProcessor_DownscalesLargeImage(t *testing.T) {
	p := NewProcessor(testConfig(t.TempDir()), testLogger())

	out, err := p.Prepare(&domain.ImageUpload{Filename: "wide.png", Data: pngBytes(t, 400, 200)})
	require.NoError(t, err)

	img, err := imaging.Decode(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())
}

func TestLocalBackend_PutAndRemove(t *testing.T) {
	dir := t.TempDir()
	b, err := newLocalBackend(testConfig(dir), testLogger())
	require.NoError(t, err)

	stored, err := b.put(context.Background(), domain.ImageFolderProducts, &domain.ImageUpload{
		Filename: "mug.png",
		Data:     []byte("png"),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored.PublicID, "products/"))
	assert.True(t, strings.HasSuffix(stored.PublicID, ".png"))
	assert.Equal(t, "http://localhost:8080/uploads/"+stored.PublicID, stored.URL)

	onDisk := filepath.Join(dir, filepath.FromSlash(stored.PublicID))
	_, err = os.Stat(onDisk)
	require.NoError(t, err)

	require.NoError(t, b.remove(context.Background(), stored.PublicID))
	_, err = os.Stat(onDisk)
	assert.True(t, os.IsNotExist(err))

	// removing twice is not an error
	assert.NoError(t, b.remove(context.Background(), stored.PublicID))
}

func TestLocalBackend_RejectsTraversal(t *testing.T) {
	b, err := newLocalBackend(testConfig(t.TempDir()), testLogger())
	require.NoError(t, err)

	assert.Error(t, b.remove(context.Background(), "../../etc/passwd"))
}

type failingBackend struct{}

func (failingBackend) put(context.Context, string, *domain.ImageUpload) (*domain.StoredImage, error) {
	return nil, errors.New("connection reset")
}

func (failingBackend) remove(context.Context, string) error { return errors.New("connection reset") }

func (failingBackend) name() string { return "failing" }

func TestGateway_WrapsBackendErrors(t *testing.T) {
	cfg := testConfig(t.TempDir())
	g := newGateway(NewProcessor(cfg, testLogger()), failingBackend{}, testLogger())

	_, err := g.Upload(context.Background(), domain.ImageFolderCategories, &domain.ImageUpload{
		Filename: "c.png",
		Data:     pngBytes(t, 10, 10),
	})
	assert.ErrorIs(t, err, domain.ErrUpstream)

	assert.ErrorIs(t, g.Delete(context.Background(), "categories/x.png"), domain.ErrUpstream)
	assert.NoError(t, g.Delete(context.Background(), ""))
}

func TestNew_LocalStoreRoundTrip(t *testing.T) {
	store, err := New(testConfig(t.TempDir()), testLogger())
	require.NoError(t, err)

	stored, err := store.Upload(context.Background(), domain.ImageFolderCategories, &domain.ImageUpload{
		Filename: "cat.png",
		Data:     pngBytes(t, 10, 10),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored.PublicID, "categories/"))
	assert.NoError(t, store.Delete(context.Background(), stored.PublicID))
}
