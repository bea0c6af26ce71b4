// Package objectstore keeps account exports in Google Cloud Storage.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/storage"

	"github.com/oksasatya/codex/pkg/helpers"
)

// GCSExports writes exports under exports/<userID>/ in one bucket.
type GCSExports struct {
	client *storage.Client
	bucket string
}

func NewGCSExports(client *storage.Client, bucket string) *GCSExports {
	return &GCSExports{client: client, bucket: bucket}
}

func userPrefix(userID string) string { return "exports/" + userID + "/" }

// ExportPath is the object name used for an export taken at t.
func ExportPath(userID string, t time.Time) string {
	return fmt.Sprintf("%s%s.json", userPrefix(userID), t.UTC().Format("20060102T150405Z"))
}

func (g *GCSExports) Upload(ctx context.Context, userID string, at time.Time, body []byte) (string, error) {
	return helpers.UploadObject(ctx, g.client, g.bucket, ExportPath(userID, at), "application/json", bytes.NewReader(body))
}

// DeleteUser removes every export of userID; used when the account is purged.
func (g *GCSExports) DeleteUser(ctx context.Context, userID string) error {
	_, err := helpers.DeletePrefix(ctx, g.client, g.bucket, userPrefix(userID))
	return err
}
