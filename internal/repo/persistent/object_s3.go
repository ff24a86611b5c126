package persistent

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/pkg/s3client"
)

// ObjectRepo reads and writes objects in a single bucket.
type ObjectRepo struct {
	*s3client.S3Client
	bucket string
}

func NewObjectRepo(s3c *s3client.S3Client, bucket string) *ObjectRepo {
	return &ObjectRepo{s3c, bucket}
}

func (r *ObjectRepo) Bucket() string {
	return r.bucket
}

func (r *ObjectRepo) DownloadBytes(ctx context.Context, key string) ([]byte, error) {
	result, err := r.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("ObjectRepo - DownloadBytes - r.Client.GetObject: %w", err)
	}
	defer result.Body.Close()

	b, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("ObjectRepo - DownloadBytes - io.ReadAll: %w", err)
	}

	return b, nil
}

func (r *ObjectRepo) UploadBytes(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error {
	_, err := r.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
		Metadata:      metadata,
	})
	if err != nil {
		return fmt.Errorf("ObjectRepo - UploadBytes - r.Client.PutObject: %w", err)
	}

	return nil
}
