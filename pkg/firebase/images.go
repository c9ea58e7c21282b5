package firebase

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/anonto42/socialgraph/backend/pkg/errors"
)

// MaxImageBytes caps a decoded upload
const MaxImageBytes = 4 << 20

const imagePrefix = "images/"

// bucket is the slice of a storage bucket the image store needs
type bucket interface {
	put(ctx context.Context, name, contentType string, data []byte) error
	remove(ctx context.Context, name string) error
}

type gcsBucket struct {
	handle *storage.BucketHandle
}

func (b *gcsBucket) put(ctx context.Context, name, contentType string, data []byte) error {
	w := b.handle.Object(name).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=31536000"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func (b *gcsBucket) remove(ctx context.Context, name string) error {
	err := b.handle.Object(name).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return err
}

// ImageStore uploads data URL images to a storage bucket under random
// object names. The object name is the deletion key.
type ImageStore struct {
	bucket     bucket
	bucketName string
	log        *zap.Logger
}

func NewImageStore(b bucket, bucketName string, log *zap.Logger) *ImageStore {
	return &ImageStore{bucket: b, bucketName: bucketName, log: log}
}

// Upload decodes a data URL, checks the content really is an image and
// stores it. It returns the public URL and the object name.
func (s *ImageStore) Upload(ctx context.Context, dataURL string) (string, string, error) {
	data, err := decodeDataURL(dataURL)
	if err != nil {
		return "", "", apperrors.NewBaseError(apperrors.ErrorTypeValidation, "Invalid image data", err)
	}
	if len(data) > MaxImageBytes {
		return "", "", apperrors.NewValidation("Image is too large")
	}

	// trust the bytes, not the declared media type
	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", "", apperrors.NewValidation("Unsupported image type")
	}

	name := imagePrefix + uuid.NewString() + mtype.Extension()
	if err := s.bucket.put(ctx, name, mtype.String(), data); err != nil {
		return "", "", apperrors.NewInternal("upload image", err)
	}

	s.log.Debug("image uploaded", zap.String("object", name), zap.String("type", mtype.String()), zap.Int("bytes", len(data)))
	return s.publicURL(name), name, nil
}

// Delete removes an uploaded image. Missing objects are not an error.
func (s *ImageStore) Delete(ctx context.Context, key string) error {
	if !strings.HasPrefix(key, imagePrefix) {
		return fmt.Errorf("refusing to delete object %q outside %s", key, imagePrefix)
	}
	if err := s.bucket.remove(ctx, key); err != nil {
		return fmt.Errorf("delete image %s: %w", key, err)
	}
	return nil
}

func (s *ImageStore) publicURL(name string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucketName, name)
}

// decodeDataURL accepts "data:<type>;base64,<payload>" and bare base64
func decodeDataURL(dataURL string) ([]byte, error) {
	payload := dataURL
	if strings.HasPrefix(dataURL, "data:") {
		header, body, ok := strings.Cut(dataURL, ",")
		if !ok {
			return nil, errors.New("data URL has no payload")
		}
		if !strings.HasSuffix(header, ";base64") {
			return nil, errors.New("data URL is not base64 encoded")
		}
		payload = body
	}
	if payload == "" {
		return nil, errors.New("empty image")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	return data, nil
}
