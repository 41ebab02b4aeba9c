package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/TheNetworkGuy/netbox-zabbix-sync/core/storage"
)

// Uploader writes run reports as JSON documents to object storage, under
// reports/<run-id>.json.
type Uploader struct {
	client storage.Client
	bucket string
}

// NewUploader wraps a storage client and target bucket.
func NewUploader(client storage.Client, bucket string) *Uploader {
	return &Uploader{client: client, bucket: bucket}
}

// EnsureBucket creates the report bucket if it does not exist yet.
func (u *Uploader) EnsureBucket(ctx context.Context) error {
	exists, err := u.client.BucketExists(ctx, u.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", u.bucket, err)
	}
	if exists {
		return nil
	}
	if err := u.client.MakeBucket(ctx, u.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", u.bucket, err)
	}
	return nil
}

// Upload stores the report and returns the object name.
func (u *Uploader) Upload(ctx context.Context, report Report) (string, error) {
	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report %s: %w", report.Run.ID, err)
	}
	objectName := reportObjectName(report.Run.ID)
	_, err = u.client.PutObject(ctx, u.bucket, objectName,
		bytes.NewReader(payload), int64(len(payload)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return "", fmt.Errorf("failed to upload report %s: %w", objectName, err)
	}
	return objectName, nil
}

// Fetch reads back a previously uploaded report document.
func (u *Uploader) Fetch(ctx context.Context, runID string) ([]byte, error) {
	objectName := reportObjectName(runID)
	obj, err := u.client.GetObject(ctx, u.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch report %s: %w", objectName, err)
	}
	defer obj.Close()

	payload, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read report %s: %w", objectName, err)
	}
	return payload, nil
}

// Prune removes report documents last modified before the cutoff. It returns
// the number of removed objects.
func (u *Uploader) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	removed := 0
	objects := u.client.ListObjects(ctx, u.bucket, minio.ListObjectsOptions{
		Prefix:    "reports/",
		Recursive: true,
	})
	for info := range objects {
		if info.Err != nil {
			return removed, fmt.Errorf("failed to list reports: %w", info.Err)
		}
		if !info.LastModified.Before(cutoff) {
			continue
		}
		if err := u.client.RemoveObject(ctx, u.bucket, info.Key, minio.RemoveObjectOptions{}); err != nil {
			return removed, fmt.Errorf("failed to remove report %s: %w", info.Key, err)
		}
		removed++
	}
	return removed, nil
}

func reportObjectName(runID string) string {
	return fmt.Sprintf("reports/%s.json", runID)
}
