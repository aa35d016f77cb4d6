package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Store keeps unparseable model answers in an S3-compatible bucket so they
// can be inspected without ever being shown to users.
type Store struct {
	client     *minio.Client
	bucketName string
	prefix     string
	now        func() time.Time
}

// New buat koneksi MinIO
func New(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*Store, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	// pastikan bucket ada
	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, err
		}
	}

	return &Store{client: cli, bucketName: bucket, prefix: "diagnostics", now: time.Now}, nil
}

// ObjectKey places a payload under diagnostics/yyyy/mm/dd/<id>.txt
func (s *Store) ObjectKey(id string) string {
	return objectKey(s.prefix, s.now().UTC(), id)
}

func objectKey(prefix string, t time.Time, id string) string {
	id = strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(id)
	return path.Join(prefix, t.Format("2006/01/02"), id+".txt")
}

// PutRaw stores payload under the object key derived from key and returns its URL.
func (s *Store) PutRaw(ctx context.Context, key string, payload []byte) (string, error) {
	objectKey := s.ObjectKey(key)
	_, err := s.client.PutObject(ctx, s.bucketName, objectKey, bytes.NewReader(payload), int64(len(payload)), minio.PutObjectOptions{
		ContentType: "text/plain; charset=utf-8",
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", objectKey, err)
	}

	// URL publik (jika bucket public), kalau private harus generate presigned URL
	url := fmt.Sprintf("%s://%s/%s/%s", s.client.EndpointURL().Scheme, s.client.EndpointURL().Host, s.bucketName, objectKey)
	return url, nil
}

// Check reports whether the bucket is still reachable.
func (s *Store) Check(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bucket %s missing", s.bucketName)
	}
	return nil
}
