package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

type UploadResult struct {
	PublicID string
	URL      string
}

// ImageStore is the object storage surface for product photos.
type ImageStore interface {
	Upload(ctx context.Context, file io.Reader) (*UploadResult, error)
	Delete(ctx context.Context, publicID string) error
}

type CloudinaryStore struct {
	client *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryStore(url, folder string) (*CloudinaryStore, error) {
	client, err := cloudinary.NewFromURL(url)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	return &CloudinaryStore{client: client, folder: folder}, nil
}

func (s *CloudinaryStore) Upload(ctx context.Context, file io.Reader) (*UploadResult, error) {
	resp, err := s.client.Upload.Upload(ctx, file, uploader.UploadParams{
		PublicID: fmt.Sprintf("product_%d", time.Now().UnixNano()),
		Folder:   s.folder,
	})
	if err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}
	if resp.SecureURL == "" {
		return nil, fmt.Errorf("upload image: empty secure url")
	}
	return &UploadResult{PublicID: resp.PublicID, URL: resp.SecureURL}, nil
}

func (s *CloudinaryStore) Delete(ctx context.Context, publicID string) error {
	result, err := s.client.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	if result.Result != "ok" && result.Result != "not found" {
		return fmt.Errorf("delete image: %s", result.Result)
	}
	return nil
}
