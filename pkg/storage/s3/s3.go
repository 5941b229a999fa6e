// Package s3 provides an S3/MinIO storage backend. Directories are modelled
// as key prefixes, with an empty "<dir>/" marker object written by MakeDirs.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/sourcegraph/conc/pool"

	"github.com/mwantia/mediaindex/pkg/storage"
)

// deleteBatchSize is the maximum number of keys accepted by DeleteObjects.
const deleteBatchSize = 1000

// Config holds S3 backend settings.
type Config struct {
	Endpoint    string
	Bucket      string
	Region      string
	AccessKey   string
	SecretKey   string
	UseSSL      bool
	Prefix      string
	Concurrency int
}

// Backend implements storage.Backend using S3/MinIO.
type Backend struct {
	client      *s3.Client
	bucket      string
	prefix      string
	concurrency int
}

var _ storage.Backend = (*Backend)(nil)

// New creates a new S3 backend from a Config.
func New(ctx context.Context, cfg Config) (*Backend, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}

	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		if !strings.Contains(endpoint, "://") {
			if cfg.UseSSL {
				endpoint = "https://" + endpoint
			} else {
				endpoint = "http://" + endpoint
			}
		}

		resolver := aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				return aws.Endpoint{
					URL:               endpoint,
					HostnameImmutable: true,
				}, nil
			},
		)
		opts = append(opts, config.WithEndpointResolverWithOptions(resolver))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	return &Backend{
		client:      client,
		bucket:      cfg.Bucket,
		prefix:      strings.Trim(cfg.Prefix, "/"),
		concurrency: concurrency,
	}, nil
}

func (b *Backend) objectKey(key string) string {
	key = strings.Trim(key, "/")
	if b.prefix == "" {
		return key
	}
	if key == "" {
		return b.prefix
	}
	return b.prefix + "/" + key
}

// dirPrefix returns the listing prefix for a directory key.
func (b *Backend) dirPrefix(key string) string {
	k := b.objectKey(key)
	if k == "" {
		return ""
	}
	return k + "/"
}

// ListDir lists common prefixes as directories and objects as files.
func (b *Backend) ListDir(ctx context.Context, key string) ([]storage.Entry, []storage.Entry, error) {
	prefix := b.dirPrefix(key)

	paginator := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(b.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	var dirs, files []storage.Entry
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to list %s: %w", key, translate(err))
		}

		for _, p := range page.CommonPrefixes {
			name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(p.Prefix), prefix), "/")
			if name == "" {
				continue
			}
			dirs = append(dirs, storage.Entry{Name: name})
		}

		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			// Skip the directory marker itself
			if name == "" {
				continue
			}
			files = append(files, storage.Entry{
				Name:    name,
				Size:    aws.ToInt64(obj.Size),
				ModTime: aws.ToTime(obj.LastModified),
			})
		}
	}

	return dirs, files, nil
}

func (b *Backend) Stat(ctx context.Context, key string) (*storage.ObjectInfo, error) {
	head, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.objectKey(key)),
	})
	if err == nil {
		return &storage.ObjectInfo{
			Size:    aws.ToInt64(head.ContentLength),
			ModTime: aws.ToTime(head.LastModified),
		}, nil
	}

	err = translate(err)
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat %s: %w", key, err)
	}

	isDir, dirErr := b.hasPrefix(ctx, key)
	if dirErr != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", key, dirErr)
	}
	if !isDir {
		return nil, fmt.Errorf("failed to stat %s: %w", key, err)
	}
	return &storage.ObjectInfo{IsDir: true}, nil
}

func (b *Backend) Exists(ctx context.Context, key string) (bool, error) {
	_, err := b.Stat(ctx, key)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Save uploads body to key. The body is buffered so that the request can be
// signed with a known content length.
func (b *Backend) Save(ctx context.Context, key string, body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("failed to read body for %s: %w", key, err)
	}

	_, err = b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(b.objectKey(key)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object %s: %w", key, translate(err))
	}
	return key, nil
}

// Move copies every object at or below src to dst and removes the originals.
func (b *Backend) Move(ctx context.Context, src, dst string, allowOverwrite bool) error {
	info, err := b.Stat(ctx, src)
	if err != nil {
		return fmt.Errorf("failed to move %s: %w", src, err)
	}

	if !allowOverwrite {
		exists, err := b.Exists(ctx, dst)
		if err != nil {
			return fmt.Errorf("failed to move %s: %w", src, err)
		}
		if exists {
			return fmt.Errorf("failed to move %s: %w", src, &fs.PathError{Op: "move", Path: dst, Err: fs.ErrExist})
		}
	}

	if !info.IsDir {
		if err := b.copyObject(ctx, b.objectKey(src), b.objectKey(dst)); err != nil {
			return err
		}
		return b.Delete(ctx, src)
	}

	srcPrefix, dstPrefix := b.dirPrefix(src), b.dirPrefix(dst)
	keys, err := b.listKeys(ctx, srcPrefix)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := b.copyObject(ctx, k, dstPrefix+strings.TrimPrefix(k, srcPrefix)); err != nil {
			return err
		}
	}
	return b.deleteKeys(ctx, keys)
}

func (b *Backend) Delete(ctx context.Context, key string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.objectKey(key)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, translate(err))
	}
	return nil
}

// RemoveAll deletes key and every object below it in concurrent batches.
func (b *Backend) RemoveAll(ctx context.Context, key string) error {
	if strings.Trim(key, "/") == "" {
		return &fs.PathError{Op: "rmtree", Path: key, Err: fs.ErrPermission}
	}

	keys, err := b.listKeys(ctx, b.dirPrefix(key))
	if err != nil {
		return err
	}
	keys = append(keys, b.objectKey(key))

	return b.deleteKeys(ctx, keys)
}

// MakeDirs writes a directory marker object.
func (b *Backend) MakeDirs(ctx context.Context, key string) error {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(b.dirPrefix(key)),
		Body:          bytes.NewReader(nil),
		ContentLength: aws.Int64(0),
	})
	if err != nil {
		return fmt.Errorf("failed to create directory %s: %w", key, translate(err))
	}
	return nil
}

// Type returns "s3".
func (b *Backend) Type() string { return "s3" }

// Close is a no-op for S3 backends.
func (b *Backend) Close() error { return nil }

func (b *Backend) hasPrefix(ctx context.Context, key string) (bool, error) {
	out, err := b.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(b.bucket),
		Prefix:  aws.String(b.dirPrefix(key)),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return false, translate(err)
	}
	return aws.ToInt32(out.KeyCount) > 0, nil
}

func (b *Backend) listKeys(ctx context.Context, prefix string) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
		Prefix: aws.String(prefix),
	})

	var keys []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", prefix, translate(err))
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

func (b *Backend) copyObject(ctx context.Context, srcKey, dstKey string) error {
	_, err := b.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(b.bucket),
		Key:        aws.String(dstKey),
		CopySource: aws.String(copySource(b.bucket, srcKey)),
	})
	if err != nil {
		return fmt.Errorf("failed to copy %s -> %s: %w", srcKey, dstKey, translate(err))
	}
	return nil
}

// copySource returns the URL-encoded "bucket/key" form CopyObject expects.
// Slashes between segments stay literal, '+' is escaped so it is not read as a space.
func copySource(bucket, key string) string {
	segments := strings.Split(key, "/")
	for i, segment := range segments {
		segments[i] = strings.ReplaceAll(url.PathEscape(segment), "+", "%2B")
	}
	return bucket + "/" + strings.Join(segments, "/")
}

func (b *Backend) deleteKeys(ctx context.Context, keys []string) error {
	p := pool.New().WithMaxGoroutines(b.concurrency).WithContext(ctx).WithCancelOnError()

	for start := 0; start < len(keys); start += deleteBatchSize {
		end := min(start+deleteBatchSize, len(keys))
		batch := keys[start:end]

		p.Go(func(ctx context.Context) error {
			objects := make([]types.ObjectIdentifier, 0, len(batch))
			for _, k := range batch {
				objects = append(objects, types.ObjectIdentifier{Key: aws.String(k)})
			}

			out, err := b.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
				Bucket: aws.String(b.bucket),
				Delete: &types.Delete{
					Objects: objects,
					Quiet:   aws.Bool(true),
				},
			})
			if err != nil {
				return fmt.Errorf("failed to delete objects: %w", translate(err))
			}
			if len(out.Errors) > 0 {
				first := out.Errors[0]
				return fmt.Errorf("failed to delete %s: %s", aws.ToString(first.Key), aws.ToString(first.Message))
			}
			return nil
		})
	}

	return p.Wait()
}

// translate maps S3 error codes onto fs errors.
func translate(err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	switch apiErr.ErrorCode() {
	case "NotFound", "NoSuchKey", "NoSuchBucket":
		return fmt.Errorf("%w: %v", fs.ErrNotExist, err)
	case "AccessDenied", "Forbidden", "AllAccessDisabled":
		return fmt.Errorf("%w: %v", fs.ErrPermission, err)
	default:
		return err
	}
}
