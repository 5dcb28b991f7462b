// Package objectstore implements lockbox.FileStore on an S3-compatible
// bucket using minio-go. Each key is one object under "<namespace>/".
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sagarc03/lockbox"
	"github.com/sagarc03/lockbox/internal/cursor"
)

const (
	defaultRegion    = "us-east-1"
	defaultListLimit = 100
	contentType      = "application/json"
)

// Config holds connection settings for an S3-compatible endpoint.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Secure    bool
}

// ParseDSN parses "s3://ACCESS:SECRET@host:port/bucket?secure=true&region=us-east-1".
// secure defaults to true.
func ParseDSN(dsn string) (Config, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return Config{}, fmt.Errorf("parse s3 dsn: %w", err)
	}

	if u.Scheme != "s3" {
		return Config{}, fmt.Errorf("parse s3 dsn: unsupported scheme %q", u.Scheme)
	}

	if u.Host == "" {
		return Config{}, errors.New("parse s3 dsn: endpoint is required")
	}

	bucket := strings.Trim(u.Path, "/")
	if bucket == "" || strings.Contains(bucket, "/") {
		return Config{}, fmt.Errorf("parse s3 dsn: invalid bucket %q", bucket)
	}

	cfg := Config{
		Endpoint: u.Host,
		Bucket:   bucket,
		Region:   defaultRegion,
		Secure:   true,
	}

	if u.User != nil {
		cfg.AccessKey = u.User.Username()
		cfg.SecretKey, _ = u.User.Password()
	}

	q := u.Query()
	if v := q.Get("secure"); v != "" {
		cfg.Secure = v != "false" && v != "0"
	}
	if v := q.Get("region"); v != "" {
		cfg.Region = v
	}

	return cfg, nil
}

type database struct {
	client    *minio.Client
	bucket    string
	namespace string
}

// Connect opens a client for the bucket named in dsn. Keys are stored under
// tables.Items as the object prefix.
func Connect(ctx context.Context, dsn string, tables lockbox.Tables) (*database, error) {
	cfg, err := ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("connect s3: %w", err)
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       cfg.Secure,
		Region:       cfg.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("connect s3: %w", err)
	}

	return &database{client: client, bucket: cfg.Bucket, namespace: tables.Items}, nil
}

// Ping checks the endpoint answers a bucket lookup.
func (d *database) Ping(ctx context.Context) error {
	if _, err := d.client.BucketExists(ctx, d.bucket); err != nil {
		return fmt.Errorf("ping s3: %w", err)
	}
	return nil
}

// Migrate creates the bucket if it does not exist.
func (d *database) Migrate(ctx context.Context) error {
	exists, err := d.client.BucketExists(ctx, d.bucket)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if exists {
		return nil
	}

	if err := d.client.MakeBucket(ctx, d.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("migrate: make bucket %s: %w", d.bucket, err)
	}
	return nil
}

// Validate checks the bucket exists.
func (d *database) Validate(ctx context.Context) error {
	exists, err := d.client.BucketExists(ctx, d.bucket)
	if err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	if !exists {
		return fmt.Errorf("validate: bucket %s does not exist", d.bucket)
	}
	return nil
}

func (d *database) GetStore() lockbox.FileStore {
	return &Store{client: d.client, bucket: d.bucket, prefix: d.namespace + "/"}
}

// Close is a no-op; minio clients hold no resources beyond idle connections.
func (d *database) Close() error {
	return nil
}

// Store is a FileStore over one bucket and object prefix.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.prefix+key, minio.GetObjectOptions{})
	if err != nil {
		return "", fmt.Errorf("get: %w", mapError(key, err))
	}
	defer func() { _ = obj.Close() }()

	data, err := io.ReadAll(obj)
	if err != nil {
		return "", fmt.Errorf("get: %w", mapError(key, err))
	}

	return string(data), nil
}

// Put replaces the object for key. A single PutObject is atomic per key.
func (s *Store) Put(ctx context.Context, key, value string) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.prefix+key,
		strings.NewReader(value), int64(len(value)),
		minio.PutObjectOptions{ContentType: contentType},
	)
	if err != nil {
		return fmt.Errorf("put: %w", err)
	}
	return nil
}

// List relies on S3 returning keys in ascending UTF-8 byte order.
func (s *Store) List(ctx context.Context, q lockbox.ListQuery) (lockbox.ListResult, error) {
	after, err := cursor.Decode(q.Cursor)
	if err != nil {
		return lockbox.ListResult{}, fmt.Errorf("list: %w", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	opts := minio.ListObjectsOptions{
		Prefix:    s.prefix + q.Prefix,
		Recursive: true,
		MaxKeys:   limit + 1,
	}
	if after != "" {
		opts.StartAfter = s.prefix + after
	}

	// cancelling stops the listing goroutine once a page is full
	listCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	keys := make([]string, 0, limit+1)
	for obj := range s.client.ListObjects(listCtx, s.bucket, opts) {
		if obj.Err != nil {
			return lockbox.ListResult{}, fmt.Errorf("list: %w", obj.Err)
		}
		key := strings.TrimPrefix(obj.Key, s.prefix)
		// some S3 implementations ignore start-after
		if after != "" && key <= after {
			continue
		}
		keys = append(keys, key)
		if len(keys) > limit {
			break
		}
	}

	return cursor.Page(keys, limit), nil
}

func mapError(key string, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return fmt.Errorf("%s: %w", key, lockbox.ErrNotFound)
	}
	return err
}
