// Package s3 reads remote event logs from and writes nets to S3 or an
// S3-compatible store.
package s3

import (
	"bytes"
	"context"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/logflow/alphaminer/pkg/config"
	"github.com/logflow/alphaminer/pkg/errors"
)

// Scheme prefixes remote log locations.
const Scheme = "s3://"

// Config holds S3 client configuration.
type Config struct {
	// Region is the AWS region (e.g., "us-east-1")
	Region string

	// Endpoint overrides the default S3 endpoint (for S3-compatible services)
	Endpoint string

	// UsePathStyle forces path-style addressing (for MinIO, LocalStack)
	UsePathStyle bool

	// Credentials (optional - uses default chain if not provided)
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string

	DownloadTimeout time.Duration
	UploadTimeout   time.Duration
}

// FromConfig maps the storage section onto Config.
func FromConfig(cfg config.StorageConfig) Config {
	return Config{
		Region:          cfg.Region,
		Endpoint:        cfg.Endpoint,
		UsePathStyle:    cfg.UsePathStyle,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
		DownloadTimeout: 5 * time.Minute,
		UploadTimeout:   time.Minute,
	}
}

// Client provides the S3 operations alphaminer needs.
type Client struct {
	cfg    Config
	client *s3.Client
}

// NewClient creates a new S3 client.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	var opts []func(*awsconfig.LoadOptions) error

	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	// Use explicit credentials if provided
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID,
				cfg.SecretAccessKey,
				cfg.SessionToken,
			),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageInit, "failed to load AWS config")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &Client{cfg: cfg, client: client}, nil
}

// IsRemote reports whether location uses the s3:// scheme.
func IsRemote(location string) bool {
	return strings.HasPrefix(location, Scheme)
}

// ParseURI splits "s3://bucket/key" into bucket and key.
func ParseURI(uri string) (bucket, key string, err error) {
	if !IsRemote(uri) {
		return "", "", errors.New(errors.CodeStorageFetch, "not an s3 URI").WithContext("uri", uri)
	}
	rest := strings.TrimPrefix(uri, Scheme)
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", errors.New(errors.CodeStorageFetch, "s3 URI needs a bucket and a key").WithContext("uri", uri)
	}
	return bucket, key, nil
}

// Fetch downloads the object at uri into a temporary file that keeps the
// key's extension, so the log format can still be detected. The cleanup
// function removes the file.
func (c *Client) Fetch(ctx context.Context, uri string) (string, func(), error) {
	bucket, key, err := ParseURI(uri)
	if err != nil {
		return "", nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.DownloadTimeout)
	defer cancel()

	out, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", nil, errors.Wrap(err, errors.CodeStorageFetch, "failed to get object").
			WithContext("uri", uri)
	}
	defer out.Body.Close()

	f, err := os.CreateTemp("", "alphaminer-*"+path.Ext(key))
	if err != nil {
		return "", nil, errors.Wrap(err, errors.CodeStorageFetch, "failed to create temp file")
	}
	cleanup := func() { os.Remove(f.Name()) }

	if _, err := io.Copy(f, out.Body); err != nil {
		f.Close()
		cleanup()
		return "", nil, errors.Wrap(err, errors.CodeStorageFetch, "failed to download object").
			WithContext("uri", uri)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, errors.Wrap(err, errors.CodeStorageFetch, "failed to flush download")
	}
	return f.Name(), cleanup, nil
}

// Upload writes data to uri.
func (c *Client) Upload(ctx context.Context, uri string, data []byte, contentType string) error {
	bucket, key, err := ParseURI(uri)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.UploadTimeout)
	defer cancel()

	_, err = c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return errors.Wrap(err, errors.CodeWriteFailed, "failed to put object").WithContext("uri", uri)
	}
	return nil
}
