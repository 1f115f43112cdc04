package images

import (
	"context"
	"io"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"

	"github.com/joshuaoni/user-management-dashboard/internal/application"
	"github.com/joshuaoni/user-management-dashboard/pkg/helpers"
)

const objectPrefix = "profile-photos"

type uploadFunc func(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)

// GCSStore uploads images to a bucket and keeps the public URL on the account.
type GCSStore struct {
	upload   uploadFunc
	maxBytes int64
	newName  func() string
}

func NewGCSStore(client *storage.Client, bucket string, maxBytes int64) *GCSStore {
	return &GCSStore{
		upload: func(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error) {
			return helpers.UploadObject(ctx, client, bucket, objectPath, contentType, r)
		},
		maxBytes: maxBytes,
		newName:  uuid.NewString,
	}
}

// objectPath names the object profile-photos/<uuid><ext>.
func (s *GCSStore) objectPath(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return path.Join(objectPrefix, s.newName()+ext)
}

func (s *GCSStore) Store(ctx context.Context, img application.ImageUpload) (string, error) {
	lr := &limitedReader{r: img.Body, n: s.maxBytes}
	url, err := s.upload(ctx, s.objectPath(img.Filename), img.ContentType, lr)
	if err != nil {
		return "", err
	}
	if lr.exceeded {
		return "", ErrTooLarge
	}
	return url, nil
}

// limitedReader fails once more than n bytes were read.
type limitedReader struct {
	r        io.Reader
	n        int64
	exceeded bool
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.n < 0 {
		l.exceeded = true
		return 0, ErrTooLarge
	}
	if int64(len(p)) > l.n+1 {
		p = p[:l.n+1]
	}
	n, err := l.r.Read(p)
	l.n -= int64(n)
	if l.n < 0 {
		l.exceeded = true
		return n, ErrTooLarge
	}
	return n, err
}

var _ application.ImageStore = (*GCSStore)(nil)
