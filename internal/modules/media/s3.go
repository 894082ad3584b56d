package media

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// S3Config holds the object storage settings for presigned delivery
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string // optional, S3-compatible providers; enables path-style addressing
	AccessKey string
	SecretKey string
}

// Enabled reports whether enough is configured to presign URLs
func (c S3Config) Enabled() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

// S3Presigner signs GET requests for objects in one bucket
type S3Presigner struct {
	bucket  string
	presign *s3.PresignClient
	log     zerolog.Logger
}

// NewS3Client builds an S3 client from static credentials. A custom endpoint
// switches to path-style addressing for S3-compatible providers.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("s3 requires bucket, access key and secret key")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// NewS3Presigner creates a presigner over a client from NewS3Client
func NewS3Presigner(client *s3.Client, bucket string, log zerolog.Logger) *S3Presigner {
	return &S3Presigner{
		bucket:  bucket,
		presign: s3.NewPresignClient(client),
		log:     log.With().Str("client", "s3_presigner").Logger(),
	}
}

// Bucket returns the configured bucket
func (p *S3Presigner) Bucket() string {
	return p.bucket
}

// PresignGet returns a time-limited GET URL for an object key
func (p *S3Presigner) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := p.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", key, err)
	}
	return req.URL, nil
}
