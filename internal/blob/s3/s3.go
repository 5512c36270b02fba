// Package s3 stores school images in an S3 compatible bucket (AWS S3,
// Cloudflare R2, MinIO) through aws-sdk-go-v2.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aanand-mishra/schools-api/internal/blob"
	appconfig "github.com/aanand-mishra/schools-api/internal/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
)

// API is the subset of *s3.Client the store calls.
type API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Store implements blob.Uploader.
type Store struct {
	client    API
	bucket    string
	publicURL string
}

// New builds a Store around an existing client.
func New(client API, bucket, publicURL string) *Store {
	return &Store{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// NewFromConfig creates the S3 client from the blob config section.
// Static credentials are used when both keys are set; otherwise the
// default AWS credential chain applies.
func NewFromConfig(ctx context.Context, cfg appconfig.Blob) (*Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3.NewFromConfig: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return New(client, cfg.Bucket, cfg.PublicURL), nil
}

// Upload stores data under folder/publicID plus the sniffed extension.
// Uploading the same public id twice overwrites the object.
func (s *Store) Upload(ctx context.Context, data []byte, opts blob.Options) (blob.Result, error) {
	mtype := mimetype.Detect(data)

	if opts.ResourceType == blob.ResourceImage && !strings.HasPrefix(mtype.String(), "image/") {
		return blob.Result{}, fmt.Errorf("%w: detected %s", blob.ErrNotImage, mtype.String())
	}

	key := opts.PublicID + mtype.Extension()
	if opts.Folder != "" {
		key = opts.Folder + "/" + key
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(mtype.String()),
	})
	if err != nil {
		return blob.Result{}, fmt.Errorf("s3 upload %s: %w", key, err)
	}

	return blob.Result{
		SecureURL: s.publicURL + "/" + key,
		Key:       key,
	}, nil
}

// Delete removes an object by key.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s: %w", key, err)
	}
	return nil
}
