package reliability

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// BackupClient uploads/lists/deletes backup archives in an S3-compatible
// bucket (Cloudflare R2). Off-site backup is optional; a nil BackupClient
// degrades every call to a no-op, the same optional-credentials contract
// the teacher's R2Client follows.
type BackupClient struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
}

// NewBackupClient builds an R2-compatible S3 client against accountID's R2
// endpoint. Returns a nil *BackupClient, nil error when any credential is
// blank, so callers can treat off-site backup as an optional feature.
func NewBackupClient(accountID, accessKeyID, secretAccessKey, bucket string) (*BackupClient, error) {
	if accountID == "" || accessKeyID == "" || secretAccessKey == "" || bucket == "" {
		return nil, nil
	}

	client := s3.New(s3.Options{
		Region:       "auto",
		Credentials:  credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
		BaseEndpoint: aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID)),
	})

	return &BackupClient{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
	}, nil
}

// Upload streams r to a timestamped key in the bucket via the multipart
// manager.Uploader, which transparently falls back to a single PutObject
// for archives under its part-size threshold.
func (c *BackupClient) Upload(ctx context.Context, now time.Time, r io.Reader) error {
	if c == nil {
		return nil
	}
	key := backupKey(now)
	_, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
		Body:   r,
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

// BackupObject describes one archive stored in the bucket.
type BackupObject struct {
	Key       string
	Timestamp time.Time
	SizeBytes int64
}

// List returns every object under the backup key prefix, newest first.
func (c *BackupClient) List(ctx context.Context) ([]BackupObject, error) {
	if c == nil {
		return nil, nil
	}
	out, err := c.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(backupKeyPrefix),
	})
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}

	objects := make([]BackupObject, 0, len(out.Contents))
	for _, obj := range out.Contents {
		if obj.Key == nil {
			continue
		}
		ts, ok := parseBackupTimestamp(*obj.Key)
		if !ok {
			continue
		}
		var size int64
		if obj.Size != nil {
			size = *obj.Size
		}
		objects = append(objects, BackupObject{Key: *obj.Key, Timestamp: ts, SizeBytes: size})
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Timestamp.After(objects[j].Timestamp) })
	return objects, nil
}

// Delete removes key from the bucket.
func (c *BackupClient) Delete(ctx context.Context, key string) error {
	if c == nil {
		return nil
	}
	_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	return err
}

const backupKeyPrefix = "arise-backup-"
const backupKeyTimeLayout = "2006-01-02-150405"

func backupKey(now time.Time) string {
	return fmt.Sprintf("%s%s.db", backupKeyPrefix, now.UTC().Format(backupKeyTimeLayout))
}

func parseBackupTimestamp(key string) (time.Time, bool) {
	name := strings.TrimPrefix(key, backupKeyPrefix)
	name = strings.TrimSuffix(name, ".db")
	ts, err := time.Parse(backupKeyTimeLayout, name)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
