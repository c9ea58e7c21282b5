package firebase

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	apperrors "github.com/anonto42/socialgraph/backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// smallest valid PNG: signature plus IHDR, IDAT and IEND chunks
var pngBytes, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg==")

type memBucket struct {
	objects map[string][]byte
	types   map[string]string
	putErr  error
}

func newMemBucket() *memBucket {
	return &memBucket{objects: map[string][]byte{}, types: map[string]string{}}
}

func (b *memBucket) put(ctx context.Context, name, contentType string, data []byte) error {
	if b.putErr != nil {
		return b.putErr
	}
	b.objects[name] = data
	b.types[name] = contentType
	return nil
}

func (b *memBucket) remove(ctx context.Context, name string) error {
	delete(b.objects, name)
	return nil
}

func pngDataURL() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
}

func TestImageStore_UploadAndDelete(t *testing.T) {
	b := newMemBucket()
	store := NewImageStore(b, "demo.appspot.com", zap.NewNop())
	ctx := context.Background()

	url, key, err := store.Upload(ctx, pngDataURL())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "images/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.Equal(t, "https://storage.googleapis.com/demo.appspot.com/"+key, url)
	assert.Equal(t, "image/png", b.types[key])
	assert.Equal(t, pngBytes, b.objects[key])

	require.NoError(t, store.Delete(ctx, key))
	assert.Empty(t, b.objects)
}

func TestImageStore_RejectsNonImages(t *testing.T) {
	store := NewImageStore(newMemBucket(), "bucket", zap.NewNop())

	// declared as png, actually text
	fake := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("just some text"))
	_, _, err := store.Upload(context.Background(), fake)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.TypeOf(err))
	assert.Equal(t, "Unsupported image type", apperrors.PublicMessage(err))
}

func TestImageStore_RejectsOversized(t *testing.T) {
	store := NewImageStore(newMemBucket(), "bucket", zap.NewNop())
	big := append(append([]byte{}, pngBytes...), make([]byte, MaxImageBytes)...)

	_, _, err := store.Upload(context.Background(), base64.StdEncoding.EncodeToString(big))
	assert.Equal(t, "Image is too large", apperrors.PublicMessage(err))
}

func TestImageStore_BucketFailureIsInternal(t *testing.T) {
	b := newMemBucket()
	b.putErr = errors.New("quota exceeded")
	store := NewImageStore(b, "bucket", zap.NewNop())

	_, _, err := store.Upload(context.Background(), pngDataURL())
	assert.Equal(t, apperrors.ErrorTypeInternal, apperrors.TypeOf(err))
}

func TestImageStore_DeleteOutsidePrefix(t *testing.T) {
	store := NewImageStore(newMemBucket(), "bucket", zap.NewNop())
	assert.Error(t, store.Delete(context.Background(), "secrets/config.json"))
}

func TestDecodeDataURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "data url", input: "data:image/gif;base64,aGVsbG8=", want: "hello"},
		{name: "bare base64", input: "aGVsbG8=", want: "hello"},
		{name: "not base64 data url", input: "data:text/plain,hello", wantErr: true},
		{name: "missing payload", input: "data:image/png;base64", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "garbage", input: "data:image/png;base64,!!!", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeDataURL(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}
