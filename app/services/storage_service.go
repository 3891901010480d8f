package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"path"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Object metadata keys. gocloud lowercases metadata keys on every driver.
const (
	metaTemporary  = "temporary"
	metaUploadTime = "upload_time"
)

var (
	ErrObjectNotFound     = errors.New("object not found")
	ErrPreviewUnsupported = errors.New("preview is not supported for this image type")
)

// StoredObject describes an uploaded object
type StoredObject struct {
	Key         string
	URL         string
	ContentType string
	Size        int64
}

// StorageService keeps uploaded images in a blob bucket. New uploads are
// temporary until an entity references them.
type StorageService interface {
	Upload(ctx context.Context, folder, ext, contentType string, data []byte) (*StoredObject, error)
	Read(ctx context.Context, key string) ([]byte, string, error)
	Preview(ctx context.Context, key string, maxDim int) ([]byte, error)
	MarkPermanent(ctx context.Context, url string) error
	DeleteByURL(ctx context.Context, url string) error
	CleanupTemporary(ctx context.Context, maxAge time.Duration) (int, error)
	KeyFromURL(url string) (string, bool)
}

type blobStorageService struct {
	bucket  *blob.Bucket
	baseURL string
	clock   clock.Clock
	logger  *zap.Logger
}

// NewStorageService wraps an open bucket. publicBaseURL is the prefix under which
// object keys are served.
func NewStorageService(bucket *blob.Bucket, publicBaseURL string, clk clock.Clock, logger *zap.Logger) StorageService {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &blobStorageService{
		bucket:  bucket,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
		clock:   clk,
		logger:  logger,
	}
}

// Upload stores data as {folder}/{uuid}_{YYYYmmddHHMMSS}{ext} flagged as temporary
func (s *blobStorageService) Upload(ctx context.Context, folder, ext, contentType string, data []byte) (*StoredObject, error) {
	now := s.clock.Now().UTC()
	folder = strings.Trim(path.Clean("/"+folder), "/")
	key := fmt.Sprintf("%s_%s%s", uuid.New().String(), now.Format("20060102150405"), ext)
	if folder != "" {
		key = folder + "/" + key
	}

	meta := map[string]string{
		metaTemporary:  "true",
		metaUploadTime: now.Format(time.RFC3339),
	}
	if err := s.write(ctx, key, contentType, meta, data); err != nil {
		return nil, err
	}

	return &StoredObject{
		Key:         key,
		URL:         s.baseURL + "/" + key,
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}

func (s *blobStorageService) write(ctx context.Context, key, contentType string, meta map[string]string, data []byte) error {
	w, err := s.bucket.NewWriter(ctx, key, &blob.WriterOptions{
		ContentType: contentType,
		Metadata:    meta,
	})
	if err != nil {
		return fmt.Errorf("failed to open writer for %s: %w", key, err)
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}

func (s *blobStorageService) Read(ctx context.Context, key string) ([]byte, string, error) {
	r, err := s.bucket.NewReader(ctx, key, nil)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, "", ErrObjectNotFound
		}
		return nil, "", fmt.Errorf("failed to open %s: %w", key, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, r.ContentType(), nil
}

// Preview renders a JPEG no larger than maxDim on either side
func (s *blobStorageService) Preview(ctx context.Context, key string, maxDim int) ([]byte, error) {
	data, _, err := s.Read(ctx, key)
	if err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrPreviewUnsupported
	}

	buf := &bytes.Buffer{}
	if err := jpeg.Encode(buf, resizeImage(img, maxDim), &jpeg.Options{Quality: 75}); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}
	return buf.Bytes(), nil
}

// KeyFromURL maps a public URL back to its object key. URLs outside the public base are rejected.
func (s *blobStorageService) KeyFromURL(url string) (string, bool) {
	if s.baseURL == "" || !strings.HasPrefix(url, s.baseURL+"/") {
		return "", false
	}
	key := strings.TrimPrefix(url, s.baseURL+"/")
	if i := strings.IndexAny(key, "?#"); i >= 0 {
		key = key[:i]
	}
	return key, key != ""
}

// MarkPermanent clears the temporary flag. Foreign URLs and missing objects are ignored.
func (s *blobStorageService) MarkPermanent(ctx context.Context, url string) error {
	key, ok := s.KeyFromURL(url)
	if !ok {
		return nil
	}

	attrs, err := s.bucket.Attributes(ctx, key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			s.logger.Warn("Referenced image does not exist", zap.String("key", key))
			return nil
		}
		return fmt.Errorf("failed to read attributes of %s: %w", key, err)
	}
	if attrs.Metadata[metaTemporary] != "true" {
		return nil
	}

	data, err := s.bucket.ReadAll(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}

	meta := make(map[string]string, len(attrs.Metadata))
	for k, v := range attrs.Metadata {
		meta[k] = v
	}
	delete(meta, metaTemporary)

	return s.write(ctx, key, attrs.ContentType, meta, data)
}

// DeleteByURL removes the object behind a public URL. Missing objects are not an error.
func (s *blobStorageService) DeleteByURL(ctx context.Context, url string) error {
	key, ok := s.KeyFromURL(url)
	if !ok {
		return nil
	}
	if err := s.bucket.Delete(ctx, key); err != nil && gcerrors.Code(err) != gcerrors.NotFound {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// CleanupTemporary deletes temporary objects uploaded more than maxAge ago
func (s *blobStorageService) CleanupTemporary(ctx context.Context, maxAge time.Duration) (int, error) {
	now := s.clock.Now().UTC()
	deleted := 0

	iter := s.bucket.List(nil)
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return deleted, fmt.Errorf("failed to list objects: %w", err)
		}
		if obj.IsDir {
			continue
		}

		attrs, err := s.bucket.Attributes(ctx, obj.Key)
		if err != nil {
			s.logger.Warn("Failed to read image attributes", zap.String("key", obj.Key), zap.Error(err))
			continue
		}
		if attrs.Metadata[metaTemporary] != "true" {
			continue
		}

		uploaded := attrs.ModTime
		if raw, ok := attrs.Metadata[metaUploadTime]; ok {
			if t, err := time.Parse(time.RFC3339, raw); err == nil {
				uploaded = t
			}
		}
		if now.Sub(uploaded) <= maxAge {
			continue
		}

		if err := s.bucket.Delete(ctx, obj.Key); err != nil {
			s.logger.Warn("Failed to delete temporary image", zap.String("key", obj.Key), zap.Error(err))
			continue
		}
		deleted++
	}

	return deleted, nil
}

func resizeImage(src image.Image, maxDim int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return src
	}

	var nw, nh int
	if w >= h {
		nw = maxDim
		nh = max(1, int(float64(h)*float64(maxDim)/float64(w)))
	} else {
		nh = maxDim
		nw = max(1, int(float64(w)*float64(maxDim)/float64(h)))
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	imagedraw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, imagedraw.Src)
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}
