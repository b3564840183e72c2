package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"supplier-service/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioClient wraps the MinIO client with supplier service specific functionality
type MinioClient struct {
	client *minio.Client
	config config.MinioConfig
}

// Storage defines bucket names for supplier service data
var Storage = struct {
	SupplierDocuments string
}{
	SupplierDocuments: "supplier-documents",
}

// BucketNames contains all bucket names for supplier service. Documents hold
// tax and financial records, so every bucket stays private; access goes
// through presigned URLs only.
var BucketNames = []string{
	Storage.SupplierDocuments,
}

// NewMinioClient initializes a new MinIO client with the provided configuration
func NewMinioClient(cfg config.MinioConfig) (*MinioClient, error) {
	endpoint := strings.TrimPrefix(cfg.MinioURL, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")

	isSecure, err := strconv.ParseBool(cfg.MinioSecure)
	if err != nil {
		slog.Warn("Invalid value for MinIO secure flag, defaulting to false", "error", err)
		isSecure = false
	}

	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: isSecure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := minioClient.ListBuckets(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to MinIO server: %w", err)
	}

	slog.Info("Successfully connected to MinIO", "url", cfg.MinioURL)

	mc := &MinioClient{
		client: minioClient,
		config: cfg,
	}

	if err := mc.ensureRequiredBuckets(); err != nil {
		return nil, fmt.Errorf("failed to ensure required buckets: %w", err)
	}

	slog.Info("MinIO client initialized successfully", "buckets", len(BucketNames))
	return mc, nil
}

// ensureRequiredBuckets creates all required buckets if they don't exist
func (mc *MinioClient) ensureRequiredBuckets() error {
	ctx := context.Background()

	for _, bucketName := range BucketNames {
		if err := mc.ensureBucket(ctx, bucketName); err != nil {
			return fmt.Errorf("failed to ensure bucket %s: %w", bucketName, err)
		}
	}

	return nil
}

// ensureBucket creates a bucket if it doesn't exist
func (mc *MinioClient) ensureBucket(ctx context.Context, bucketName string) error {
	exists, err := mc.client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("error checking bucket existence: %w", err)
	}

	if !exists {
		err := mc.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{
			Region: mc.config.MinioLocation,
		})
		if err != nil {
			return fmt.Errorf("error creating bucket %s: %w", bucketName, err)
		}
		slog.Info("Created bucket", "bucket", bucketName)
	} else {
		slog.Debug("Bucket already exists", "bucket", bucketName)
	}

	return nil
}

// UploadBytes uploads byte data to the specified bucket
func (mc *MinioClient) UploadBytes(ctx context.Context, bucketName, objectName string, data []byte, contentType string) error {
	reader := bytes.NewReader(data)
	_, err := mc.client.PutObject(ctx, bucketName, objectName, reader, int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("failed to upload bytes to %s in bucket %s: %w", objectName, bucketName, err)
	}

	slog.Info("Successfully uploaded object",
		"bytes", len(data),
		"object", objectName,
		"bucket", bucketName)
	return nil
}

// GetFile retrieves a file from the specified bucket
func (mc *MinioClient) GetFile(ctx context.Context, bucketName, objectName string) (*minio.Object, error) {
	object, err := mc.client.GetObject(ctx, bucketName, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get file %s from bucket %s: %w", objectName, bucketName, err)
	}

	return object, nil
}

// GetFileBytes reads a stored object fully into memory. Verification jobs
// need the raw bytes for OCR.
func (mc *MinioClient) GetFileBytes(ctx context.Context, bucketName, objectName string) ([]byte, error) {
	object, err := mc.GetFile(ctx, bucketName, objectName)
	if err != nil {
		return nil, err
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s from bucket %s: %w", objectName, bucketName, err)
	}

	return data, nil
}

// DeleteFile deletes a file from the specified bucket
func (mc *MinioClient) DeleteFile(ctx context.Context, bucketName, objectName string) error {
	err := mc.client.RemoveObject(ctx, bucketName, objectName, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete file %s from bucket %s: %w", objectName, bucketName, err)
	}

	slog.Info("Successfully deleted object", "object", objectName, "bucket", bucketName)
	return nil
}

// GetPresignedURL generates a presigned URL for temporary access to an object.
// Objects are stored under opaque uuid keys, so a non-empty downloadName makes
// the browser save the file under the name it was uploaded with.
func (mc *MinioClient) GetPresignedURL(ctx context.Context, bucketName, objectName, downloadName string, expiry time.Duration) (string, error) {
	reqParams := url.Values{}
	if downloadName != "" {
		reqParams.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", downloadName))
	}

	presignedURL, err := mc.client.PresignedGetObject(ctx, bucketName, objectName, expiry, reqParams)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL for %s in bucket %s: %w", objectName, bucketName, err)
	}

	return presignedURL.String(), nil
}

// FileExists checks if a file exists in the specified bucket
func (mc *MinioClient) FileExists(ctx context.Context, bucketName, objectName string) (bool, error) {
	_, err := mc.client.StatObject(ctx, bucketName, objectName, minio.StatObjectOptions{})
	if err != nil {
		errResponse := minio.ToErrorResponse(err)
		if errResponse.Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("error checking file existence for %s in bucket %s: %w", objectName, bucketName, err)
	}

	return true, nil
}

// HealthCheck verifies the server is reachable, used by the health endpoint.
func (mc *MinioClient) HealthCheck(ctx context.Context) error {
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := mc.client.ListBuckets(checkCtx); err != nil {
		return fmt.Errorf("minio health check failed: %w", err)
	}
	return nil
}

// Close performs any necessary cleanup (MinIO client doesn't require explicit closing)
func (mc *MinioClient) Close() error {
	slog.Info("MinIO client connection closed")
	return nil
}
