package storage

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// CloudStorageClient is the blob-store collaborator. The core only signs
// upload URLs; clients PUT the bytes to the bucket themselves.
type CloudStorageClient struct {
	client     *storage.Client
	bucketName string
	urlExpiry  time.Duration
}

func NewCloudStorageClient(ctx context.Context, bucketName string, urlExpiry time.Duration, credentialsPath string) (*CloudStorageClient, error) {
	var opts []option.ClientOption
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %v", err)
	}

	return &CloudStorageClient{
		client:     client,
		bucketName: bucketName,
		urlExpiry:  urlExpiry,
	}, nil
}

// GenerateSignedUploadURL mints a short-lived PUT URL for a listing photo.
func (c *CloudStorageClient) GenerateSignedUploadURL(ctx context.Context, fileType, folder string) (string, error) {
	filename := fmt.Sprintf("%s/%s-%s", folder, uuid.New().String(), time.Now().Format("20060102150405"))

	switch fileType {
	case "image/jpeg", "image/jpg":
		filename += ".jpg"
	case "image/png":
		filename += ".png"
	case "image/gif":
		filename += ".gif"
	case "image/webp":
		filename += ".webp"
	default:
		filename += ".bin"
	}

	opts := &storage.SignedURLOptions{
		Method:      http.MethodPut,
		ContentType: fileType,
		Expires:     time.Now().Add(c.urlExpiry),
	}

	url, err := c.client.Bucket(c.bucketName).SignedURL(filename, opts)
	if err != nil {
		return "", fmt.Errorf("failed to generate signed URL: %v", err)
	}

	return url, nil
}

func (c *CloudStorageClient) Close() error {
	return c.client.Close()
}
