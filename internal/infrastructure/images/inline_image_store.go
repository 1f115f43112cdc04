package images

import (
	"context"
	"encoding/base64"
	"errors"
	"io"

	"github.com/joshuaoni/user-management-dashboard/internal/application"
)

var ErrTooLarge = errors.New("image exceeds upload limit")

// InlineStore embeds images in the account record as data URIs.
type InlineStore struct {
	MaxBytes int64
}

func NewInlineStore(maxBytes int64) *InlineStore {
	return &InlineStore{MaxBytes: maxBytes}
}

func (s *InlineStore) Store(_ context.Context, img application.ImageUpload) (string, error) {
	data, err := io.ReadAll(io.LimitReader(img.Body, s.MaxBytes+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > s.MaxBytes {
		return "", ErrTooLarge
	}
	return DataURI(img.ContentType, data), nil
}

// DataURI formats data as data:<mime>;base64,<payload>.
func DataURI(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

var _ application.ImageStore = (*InlineStore)(nil)
