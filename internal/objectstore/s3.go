package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config describes the target deployment.
type S3Config struct {
	Region        string
	Endpoint      string
	UsePathStyle  bool
	PublicBaseURL string
	Buckets       map[Bucket]string
}

// S3 stores objects with the AWS SDK. A custom endpoint allows MinIO and other
// S3-compatible services.
type S3 struct {
	client  *s3.Client
	baseURL string
	buckets map[Bucket]string
}

// NewS3 loads AWS credentials from the default chain and builds a client.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &S3{client: client, baseURL: cfg.PublicBaseURL, buckets: cfg.Buckets}, nil
}

// Put uploads f under key and returns its public URL.
func (s *S3) Put(ctx context.Context, bucket Bucket, key string, f File) (string, error) {
	if len(f.Data) == 0 {
		return "", ErrEmptyFile
	}

	contentType := f.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(f.Data)
	}

	name := s.bucketName(bucket)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(name),
		Key:           aws.String(key),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(f.Data))),
		Body:          bytes.NewReader(f.Data),
	})
	if err != nil {
		return "", fmt.Errorf("put %s/%s: %w", name, key, err)
	}

	return PublicURL(s.baseURL, name, key), nil
}

// Delete removes an object. Missing objects are not an error.
func (s *S3) Delete(ctx context.Context, bucket Bucket, key string) error {
	name := s.bucketName(bucket)
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(name),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("delete %s/%s: %w", name, key, err)
	}
	return nil
}

func (s *S3) bucketName(b Bucket) string {
	if name, ok := s.buckets[b]; ok && name != "" {
		return name
	}
	return string(b)
}

// PublicURL joins the public base URL, bucket and key.
func PublicURL(baseURL, bucket, key string) string {
	return fmt.Sprintf("%s/%s/%s", baseURL, bucket, key)
}
