package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ObjectAPI is the subset of the S3 client the store needs.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Store keeps files as objects under bucket/prefix. Files are still served through
// the API so references have the same shape as with DiskStore.
type S3Store struct {
	client ObjectAPI
	bucket string
	prefix string
	limits Limits
	now    func() time.Time
	logger zerolog.Logger
}

// NewS3Store builds a client from the default AWS credential chain.
func NewS3Store(ctx context.Context, bucket, prefix string, limits Limits) (*S3Store, error) {
	if bucket == "" {
		return nil, errors.New("S3 bucket name is required")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return NewS3StoreWithClient(s3.NewFromConfig(cfg), bucket, prefix, limits), nil
}

func NewS3StoreWithClient(client ObjectAPI, bucket, prefix string, limits Limits) *S3Store {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &S3Store{
		client: client,
		bucket: bucket,
		prefix: prefix,
		limits: limits,
		now:    time.Now,
		logger: log.With().Str("component", "s3Store").Str("bucket", bucket).Logger(),
	}
}

func (s *S3Store) key(name string) string {
	return s.prefix + name
}

func (s *S3Store) Save(ctx context.Context, upload Upload) (FileRef, error) {
	detected, err := s.limits.Check(upload)
	if err != nil {
		return FileRef{}, err
	}

	name := NewFileName(upload.Role, detected.Extension, s.now())
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key(name)),
		Body:          bytes.NewReader(upload.Data),
		ContentLength: aws.Int64(int64(len(upload.Data))),
		ContentType:   aws.String(detected.ContentType),
		Metadata: map[string]string{
			"role":          string(upload.Role),
			"original-name": upload.FileName,
		},
	})
	if err != nil {
		return FileRef{}, fmt.Errorf("put object %s: %w", name, err)
	}

	s.logger.Debug().Str("key", s.key(name)).Int("bytes", len(upload.Data)).Msg("stored upload")
	return FileRef{Name: name, URL: URLFor(name)}, nil
}

func (s *S3Store) Open(ctx context.Context, name string) (*File, error) {
	if !ValidName(name) {
		return nil, ErrFileNotFound
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		var notFound *types.NotFound
		if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("get object %s: %w", name, err)
	}

	return &File{
		Name:        name,
		ContentType: ServedType(name, aws.ToString(out.ContentType)),
		Size:        aws.ToInt64(out.ContentLength),
		ModTime:     aws.ToTime(out.LastModified),
		Body:        out.Body,
	}, nil
}
