// Package storage writes chapter pages to S3-compatible object storage
// (MinIO, R2, S3, GCS interoperability) and computes their public URLs.
package storage

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// TokenMetadataKey is the user metadata key carrying the per-object access
// token. Some backends only serve "public" objects when a token is attached.
const TokenMetadataKey = "download-token"

type Config struct {
	Endpoint        string `yaml:"endpoint" env:"ENDPOINT"`
	Region          string `yaml:"region" env:"REGION"`
	Bucket          string `yaml:"bucket" env:"BUCKET"`
	AccessKeyID     string `yaml:"access_key_id" env:"ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"-" env:"SECRET_ACCESS_KEY"`
	UseSSL          bool   `yaml:"use_ssl" env:"USE_SSL"`
	PublicBaseURL   string `yaml:"public_base_url" env:"PUBLIC_BASE_URL"`
}

// Object is a single write request.
type Object struct {
	Key         string
	Data        []byte
	ContentType string
	Public      bool
	Token       string
}

type S3Store struct {
	client *minio.Client
	cfg    Config
	base   string
}

func NewS3Store(cfg Config) (*S3Store, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("storage: endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage: bucket is required")
	}
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, errors.New("storage: credentials are required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	host := cfg.Endpoint
	useSSL := cfg.UseSSL
	if u, err := url.Parse(cfg.Endpoint); err == nil && u.Host != "" {
		host = u.Host
		if u.Scheme == "https" {
			useSSL = true
		}
	}

	client, err := minio.New(host, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, "storage: create client")
	}

	base := strings.TrimRight(cfg.PublicBaseURL, "/")
	if base == "" {
		base = strings.TrimRight(client.EndpointURL().String(), "/") + "/" + cfg.Bucket
	}

	return &S3Store{client: client, cfg: cfg, base: base}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *S3Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return errors.Wrapf(err, "storage: check bucket %s", s.cfg.Bucket)
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
		return errors.Wrapf(err, "storage: create bucket %s", s.cfg.Bucket)
	}

	return nil
}

func (s *S3Store) Put(ctx context.Context, obj Object) (string, error) {
	if obj.Key == "" {
		return "", errors.New("storage: object key is required")
	}

	meta := map[string]string{}
	if obj.Public {
		meta["x-amz-acl"] = "public-read"
	}
	if obj.Token != "" {
		meta[TokenMetadataKey] = obj.Token
	}

	_, err := s.client.PutObject(ctx, s.cfg.Bucket, obj.Key, bytes.NewReader(obj.Data), int64(len(obj.Data)), minio.PutObjectOptions{
		ContentType:  obj.ContentType,
		UserMetadata: meta,
	})
	if err != nil {
		return "", errors.Wrapf(classify(err), "storage: put %s", obj.Key)
	}

	return s.PublicURL(obj.Key), nil
}

func (s *S3Store) PublicURL(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}

	return s.base + "/" + strings.Join(parts, "/")
}

func classify(err error) error {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		switch resp.Code {
		case "NoSuchBucket":
			return errors.WithHint(err, "create the bucket or run with ensure_bucket enabled")
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return errors.WithHint(err, "check the storage credentials")
		}
	}

	return err
}
