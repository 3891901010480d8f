package services

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gocloud.dev/blob"
	"gocloud.dev/blob/memblob"
)

const testBaseURL = "http://localhost:8000/api/v1/images"

func newTestStorage(t *testing.T) (StorageService, *blob.Bucket, *clock.Mock) {
	t.Helper()
	bucket := memblob.OpenBucket(nil)
	t.Cleanup(func() { _ = bucket.Close() })

	mock := clock.NewMock()
	mock.Set(time.Date(2024, 5, 10, 8, 30, 0, 0, time.UTC))
	return NewStorageService(bucket, testBaseURL+"/", mock, zap.NewNop()), bucket, mock
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestStorage_UploadNamesAndFlagsObject(t *testing.T) {
	ctx := context.Background()
	storage, bucket, _ := newTestStorage(t)

	obj, err := storage.Upload(ctx, "products", ".png", "image/png", pngBytes(t, 10, 10))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(obj.Key, "products/"))
	assert.True(t, strings.HasSuffix(obj.Key, "_20240510083000.png"))
	assert.Equal(t, testBaseURL+"/"+obj.Key, obj.URL)

	attrs, err := bucket.Attributes(ctx, obj.Key)
	require.NoError(t, err)
	assert.Equal(t, "true", attrs.Metadata["temporary"])
	assert.Equal(t, "2024-05-10T08:30:00Z", attrs.Metadata["upload_time"])
	assert.Equal(t, "image/png", attrs.ContentType)

	data, contentType, err := storage.Read(ctx, obj.Key)
	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)
	assert.Equal(t, int(obj.Size), len(data))
}

func TestStorage_UploadSanitisesFolder(t *testing.T) {
	storage, _, _ := newTestStorage(t)

	obj, err := storage.Upload(context.Background(), "../../etc", ".jpg", "image/jpeg", []byte("x"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(obj.Key, "etc/"))
}

func TestStorage_ReadMissing(t *testing.T) {
	storage, _, _ := newTestStorage(t)
	_, _, err := storage.Read(context.Background(), "nope.png")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestStorage_Preview(t *testing.T) {
	ctx := context.Background()
	storage, _, _ := newTestStorage(t)

	obj, err := storage.Upload(ctx, "images", ".png", "image/png", pngBytes(t, 1024, 256))
	require.NoError(t, err)

	preview, err := storage.Preview(ctx, obj.Key, 512)
	require.NoError(t, err)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(preview))
	require.NoError(t, err)
	assert.Equal(t, 512, cfg.Width)
	assert.Equal(t, 128, cfg.Height)

	svg, err := storage.Upload(ctx, "images", ".svg", "image/svg+xml", []byte("<svg/>"))
	require.NoError(t, err)
	_, err = storage.Preview(ctx, svg.Key, 512)
	assert.ErrorIs(t, err, ErrPreviewUnsupported)
}

func TestStorage_MarkPermanentAndCleanup(t *testing.T) {
	ctx := context.Background()
	storage, bucket, mock := newTestStorage(t)

	kept, err := storage.Upload(ctx, "brands", ".png", "image/png", pngBytes(t, 4, 4))
	require.NoError(t, err)
	stale, err := storage.Upload(ctx, "brands", ".png", "image/png", pngBytes(t, 4, 4))
	require.NoError(t, err)

	require.NoError(t, storage.MarkPermanent(ctx, kept.URL))
	attrs, err := bucket.Attributes(ctx, kept.Key)
	require.NoError(t, err)
	_, temporary := attrs.Metadata["temporary"]
	assert.False(t, temporary)
	assert.Equal(t, "image/png", attrs.ContentType)

	// foreign and missing urls are ignored
	assert.NoError(t, storage.MarkPermanent(ctx, "https://example.com/x.png"))
	assert.NoError(t, storage.MarkPermanent(ctx, testBaseURL+"/missing.png"))

	mock.Add(time.Hour)
	fresh, err := storage.Upload(ctx, "brands", ".png", "image/png", pngBytes(t, 4, 4))
	require.NoError(t, err)

	mock.Add(24 * time.Hour)
	deleted, err := storage.CleanupTemporary(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	exists, err := bucket.Exists(ctx, stale.Key)
	require.NoError(t, err)
	assert.False(t, exists)

	for _, key := range []string{kept.Key, fresh.Key} {
		exists, err := bucket.Exists(ctx, key)
		require.NoError(t, err)
		assert.True(t, exists, key)
	}
}

func TestStorage_DeleteByURL(t *testing.T) {
	ctx := context.Background()
	storage, bucket, _ := newTestStorage(t)

	obj, err := storage.Upload(ctx, "", ".png", "image/png", pngBytes(t, 2, 2))
	require.NoError(t, err)
	assert.NotContains(t, obj.Key, "/")

	require.NoError(t, storage.DeleteByURL(ctx, obj.URL))
	exists, err := bucket.Exists(ctx, obj.Key)
	require.NoError(t, err)
	assert.False(t, exists)

	assert.NoError(t, storage.DeleteByURL(ctx, obj.URL))
}

func TestStorage_KeyFromURL(t *testing.T) {
	storage, _, _ := newTestStorage(t)

	key, ok := storage.KeyFromURL(testBaseURL + "/products/a.png?preview=true")
	assert.True(t, ok)
	assert.Equal(t, "products/a.png", key)

	_, ok = storage.KeyFromURL("https://cdn.example.com/a.png")
	assert.False(t, ok)
	_, ok = storage.KeyFromURL(testBaseURL + "/")
	assert.False(t, ok)
}
