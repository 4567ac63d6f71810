// Package blobstore stores image bytes in an S3-compatible bucket.
package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/dmitrijs2005/photodiary/internal/common"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// ObjectAPI is the subset of *s3.Client used by the store.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Blob describes a stored object.
type Blob struct {
	Key          string
	Size         int64
	LastModified time.Time
}

type Options struct {
	Region        string
	User          string
	Password      string
	Bucket        string
	BaseEndpoint  string
	PublicBaseURL string
	URLExpiry     time.Duration
}

type S3Store struct {
	api     ObjectAPI
	presign *s3.PresignClient
	opts    Options
}

// NewS3Store builds a client with static credentials against opts.BaseEndpoint.
func NewS3Store(ctx context.Context, opts Options) (*S3Store, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(opts.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.User,
			opts.Password,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if opts.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(opts.BaseEndpoint)
		}
		// MinIO serves buckets under the path, not as subdomains.
		o.UsePathStyle = true
	})

	return &S3Store{api: client, presign: newS3PresignClient(client), opts: opts}, nil
}

// NewS3StoreWithAPI is used when the caller already has a client.
func NewS3StoreWithAPI(api ObjectAPI, presign *s3.PresignClient, opts Options) *S3Store {
	return &S3Store{api: api, presign: presign, opts: opts}
}

func (s *S3Store) Bucket() string {
	return s.opts.Bucket
}

// Put uploads data under key with a content type sniffed from the bytes.
// Put writes data under key. Existing objects are never overwritten: a key
// that is already taken fails with common.ErrAlreadyExists.
func (s *S3Store) Put(ctx context.Context, key string, data []byte) error {
	_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.opts.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(http.DetectContentType(data)),
		IfNoneMatch:   aws.String("*"),
	})
	if isPreconditionFailed(err) {
		return fmt.Errorf("put object %q: %w", key, common.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("put object %q: %w", key, err)
	}
	return nil
}

func isPreconditionFailed(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "PreconditionFailed"
}

// URL returns a public URL for key when a public base is configured, and a
// presigned GET URL otherwise.
func (s *S3Store) URL(ctx context.Context, key string) (string, error) {
	if s.opts.PublicBaseURL != "" {
		return joinURL(s.opts.PublicBaseURL, key)
	}

	req, err := presignGetObject(s.presign, ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.opts.URLExpiry))
	if err != nil {
		return "", fmt.Errorf("presign get %q: %w", key, err)
	}
	return req.URL, nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %q: %w", key, err)
	}
	return nil
}

// List returns every object whose key starts with prefix.
func (s *S3Store) List(ctx context.Context, prefix string) ([]Blob, error) {
	var out []Blob

	p := s3.NewListObjectsV2Paginator(s.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.opts.Bucket),
		Prefix: aws.String(prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects %q: %w", prefix, err)
		}
		for _, o := range page.Contents {
			out = append(out, Blob{
				Key:          aws.ToString(o.Key),
				Size:         aws.ToInt64(o.Size),
				LastModified: aws.ToTime(o.LastModified),
			})
		}
	}
	return out, nil
}

func joinURL(base, key string) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", fmt.Errorf("public base url: %w", err)
	}
	return u.JoinPath(strings.Split(key, "/")...).String(), nil
}
