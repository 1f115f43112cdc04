package images

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuaoni/user-management-dashboard/internal/application"
)

func TestInlineStore(t *testing.T) {
	s := NewInlineStore(16)

	ref, err := s.Store(context.Background(), application.ImageUpload{
		ContentType: "image/png",
		Body:        strings.NewReader("abc"),
	})
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,YWJj", ref)

	_, err = s.Store(context.Background(), application.ImageUpload{
		ContentType: "image/png",
		Body:        bytes.NewReader(make([]byte, 17)),
	})
	assert.ErrorIs(t, err, ErrTooLarge)
}

func fakeGCS(maxBytes int64) (*GCSStore, *[]string) {
	var paths []string
	s := &GCSStore{
		maxBytes: maxBytes,
		newName:  func() string { return "fixed" },
		upload: func(_ context.Context, objectPath, _ string, r io.Reader) (string, error) {
			if _, err := io.Copy(io.Discard, r); err != nil {
				return "", err
			}
			paths = append(paths, objectPath)
			return "https://storage.googleapis.com/bucket/" + objectPath, nil
		},
	}
	return s, &paths
}

func TestGCSStoreNamesObjects(t *testing.T) {
	s, paths := fakeGCS(1024)

	url, err := s.Store(context.Background(), application.ImageUpload{
		Filename:    "Me.JPG",
		ContentType: "image/jpeg",
		Body:        strings.NewReader("jpeg"),
	})
	require.NoError(t, err)
	assert.Equal(t, "https://storage.googleapis.com/bucket/profile-photos/fixed.jpg", url)
	assert.Equal(t, []string{"profile-photos/fixed.jpg"}, *paths)
}

func TestGCSStoreRejectsOversizedBodies(t *testing.T) {
	s, paths := fakeGCS(4)

	_, err := s.Store(context.Background(), application.ImageUpload{
		Filename:    "big.png",
		ContentType: "image/png",
		Body:        strings.NewReader("way too many bytes"),
	})
	assert.True(t, errors.Is(err, ErrTooLarge))
	assert.Empty(t, *paths)

	_, err = s.Store(context.Background(), application.ImageUpload{
		Filename:    "ok.png",
		ContentType: "image/png",
		Body:        strings.NewReader("four"),
	})
	assert.NoError(t, err)
}
