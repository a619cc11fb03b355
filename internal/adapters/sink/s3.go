package sink

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const jsonContentType = "application/json; charset=utf-8"

// S3API is the part of the S3 client the sink uses.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config holds the bucket settings. Endpoint is only needed for S3-compatible
// stores such as MinIO or R2.
type S3Config struct {
	Bucket          string
	Key             string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// S3 uploads the document to a bucket.
type S3 struct {
	client S3API
	bucket string
	key    string
}

// NewS3 creates an S3 sink over an existing client.
func NewS3(client S3API, bucket, key string) *S3 {
	return &S3{client: client, bucket: bucket, key: key}
}

// NewS3Client builds a client with static credentials. A custom endpoint switches
// to path-style addressing.
func NewS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region: cfg.Region,
	}
	if cfg.AccessKeyID != "" {
		opts.Credentials = aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "",
		))
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}
	return s3.New(opts)
}

// Name identifies the sink in logs and metrics.
func (s *S3) Name() string { return "s3" }

// Write puts the document at the configured key, tagged with the run.
func (s *S3) Write(ctx context.Context, doc []byte, meta Meta) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key),
		Body:          bytes.NewReader(doc),
		ContentLength: aws.Int64(int64(len(doc))),
		ContentType:   aws.String(jsonContentType),
		CacheControl:  aws.String("no-cache"),
		Metadata: map[string]string{
			"run-id":       meta.RunID,
			"generated-at": meta.GeneratedAt.UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return fmt.Errorf("%w: s3 %s/%s: %w", ErrWrite, s.bucket, s.key, err)
	}
	return nil
}
