package reliability

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// S3Store uploads backup archives to a bucket with multipart uploads
type S3Store struct {
	uploader *manager.Uploader
	bucket   string
	log      zerolog.Logger
}

// NewS3Store creates a store over an S3 client
func NewS3Store(client *s3.Client, bucket string, log zerolog.Logger) *S3Store {
	return &S3Store{
		uploader: manager.NewUploader(client, func(u *manager.Uploader) {
			u.PartSize = 8 * 1024 * 1024
			u.Concurrency = 2
		}),
		bucket: bucket,
		log:    log.With().Str("client", "s3_backup").Logger(),
	}
}

// Put uploads body under key
func (s *S3Store) Put(ctx context.Context, key string, body io.Reader) error {
	out, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String("application/gzip"),
	})
	if err != nil {
		return fmt.Errorf("upload to s3://%s/%s failed: %w", s.bucket, key, err)
	}
	s.log.Debug().Str("location", out.Location).Msg("Backup uploaded")
	return nil
}
