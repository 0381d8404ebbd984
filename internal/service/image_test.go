package service_test

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/service"
)

type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
	putErr  error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = data
	f.types[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestDecodeImage(t *testing.T) {
	data, contentType, err := service.DecodeImage(pngDataURL(), 0)
	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)
	assert.Equal(t, pngHeader, data)

	bad := []string{
		"",
		"not a data url",
		"data:text/plain;base64,aGVsbG8=",
		"data:image/png;base64,!!!",
		"data:image/png;base64,",
		"data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("plain text body")),
	}
	for _, in := range bad {
		_, _, err := service.DecodeImage(in, 0)
		var ve *service.ValidationError
		assert.ErrorAs(t, err, &ve, "input %q", in)
	}

	_, _, err = service.DecodeImage(pngDataURL(), 4)
	var ve *service.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "image", ve.Field)
}

func TestS3ImageStore(t *testing.T) {
	client := newFakeS3()
	store := service.NewS3ImageStore(client, "media-bucket", "", "recipes/images", logger.Discard())
	ctx := context.Background()

	key, err := store.Save(ctx, pngHeader, "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "recipes/images/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.Equal(t, pngHeader, client.objects[key])
	assert.Equal(t, "image/png", client.types[key])
	assert.Equal(t, "https://media-bucket.s3.amazonaws.com/"+key, store.URL(key))

	require.NoError(t, store.Delete(ctx, key))
	assert.Empty(t, client.objects)

	client.putErr = errors.New("access denied")
	_, err = store.Save(ctx, pngHeader, "image/png")
	var se *service.StorageError
	assert.ErrorAs(t, err, &se)
}

func TestLocalImageStore(t *testing.T) {
	dir := t.TempDir()
	store, err := service.NewLocalImageStore(dir, "http://localhost/media/", "recipes/images")
	require.NoError(t, err)
	ctx := context.Background()

	key, err := store.Save(ctx, pngHeader, "image/png")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(key)))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)
	assert.Equal(t, "http://localhost/media/"+key, store.URL(key))

	require.NoError(t, store.Delete(ctx, key))
	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(key)))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Delete(ctx, key), "deleting a missing file is not an error")
}
